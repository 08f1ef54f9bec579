package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Logan1xl/suivie-academique/internal/models"
	"github.com/Logan1xl/suivie-academique/pkg/config"
	"github.com/Logan1xl/suivie-academique/pkg/jobs"
)

type auditSink interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuditService records state-changing operations asynchronously so that the
// audit trail never sits on the request path.
type AuditService struct {
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewAuditService builds the audit recorder backed by a worker queue.
func NewAuditService(sink auditSink, cfg config.AuditConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		entry, ok := job.Payload.(*models.AuditLog)
		if !ok {
			return fmt.Errorf("unexpected audit payload type %T", job.Payload)
		}
		return sink.CreateAuditLog(ctx, entry)
	}
	queue := jobs.NewQueue("audit", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return &AuditService{queue: queue, logger: logger, enabled: cfg.Enabled}
}

// Start launches the audit workers.
func (s *AuditService) Start(ctx context.Context) {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Start(ctx)
}

// Stop drains the audit workers.
func (s *AuditService) Stop() {
	if s == nil || !s.enabled {
		return
	}
	s.queue.Stop()
}

// Record enqueues an audit entry. Failures are logged, never surfaced.
func (s *AuditService) Record(entry *models.AuditLog) {
	if s == nil || !s.enabled || entry == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.queue.Enqueue(jobs.Job{Type: entry.Action, Payload: entry}); err != nil {
		s.logger.Warn("failed to enqueue audit entry", zap.String("action", entry.Action), zap.Error(err))
	}
}
