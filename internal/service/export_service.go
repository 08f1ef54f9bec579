package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Logan1xl/suivie-academique/internal/models"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
	"github.com/Logan1xl/suivie-academique/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ParseExportFormat validates a textual export format.
func ParseExportFormat(raw string) (ExportFormat, bool) {
	switch ExportFormat(raw) {
	case ExportFormatCSV, ExportFormatPDF:
		return ExportFormat(raw), true
	default:
		return "", false
	}
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportProgrammationLister interface {
	List(ctx context.Context, filter models.ProgrammationFilter) ([]models.ProgrammationDetail, error)
}

// ExportResult carries a rendered export and its presentation metadata.
type ExportResult struct {
	Payload     []byte
	Filename    string
	ContentType string
}

// ExportService renders programmation schedules as downloadable files.
type ExportService struct {
	programmations exportProgrammationLister
	csv            csvRenderer
	pdf            pdfRenderer
	logger         *zap.Logger
	now            func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(programmations exportProgrammationLister, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{programmations: programmations, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportProgrammations renders the sessions matching the filter.
func (s *ExportService) ExportProgrammations(ctx context.Context, format ExportFormat, filter models.ProgrammationFilter) (*ExportResult, error) {
	list, err := s.programmations.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load programmations for export")
	}

	dataset := buildProgrammationDataset(list)
	stamp := s.now().UTC().Format("20060102-150405")

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Payload:     payload,
			Filename:    fmt.Sprintf("programmations-%s.csv", stamp),
			ContentType: "text/csv",
		}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Programmations")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Payload:     payload,
			Filename:    fmt.Sprintf("programmations-%s.pdf", stamp),
			ContentType: "application/pdf",
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+string(format))
	}
}

func buildProgrammationDataset(list []models.ProgrammationDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(list))
	for _, p := range list {
		validator := ""
		if p.ValidatorName != nil {
			validator = *p.ValidatorName
		}
		rows = append(rows, map[string]string{
			"id":        strconv.Itoa(p.ID),
			"course":    p.CourseLabel,
			"room":      p.RoomCode,
			"start":     p.StartAt.UTC().Format(time.RFC3339),
			"end":       p.EndAt.UTC().Format(time.RFC3339),
			"hours":     strconv.Itoa(p.HourCount),
			"status":    string(p.Status),
			"organizer": p.OrganizerName,
			"validator": validator,
		})
	}
	return export.Dataset{
		Headers: []string{"id", "course", "room", "start", "end", "hours", "status", "organizer", "validator"},
		Rows:    rows,
	}
}
