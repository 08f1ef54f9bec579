package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Logan1xl/suivie-academique/internal/models"
	"github.com/Logan1xl/suivie-academique/internal/repository"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
)

const programmationCachePrefix = "programmations:"

type programmationRepository interface {
	IsRoomAvailable(ctx context.Context, roomCode string, start, end time.Time, excludeID int) (bool, error)
	Create(ctx context.Context, prog *models.Programmation) error
	Update(ctx context.Context, prog *models.Programmation) error
	SetValidated(ctx context.Context, id int, validatorCode string) error
	Delete(ctx context.Context, id int) error
	FindByID(ctx context.Context, id int) (*models.ProgrammationDetail, error)
	List(ctx context.Context, filter models.ProgrammationFilter) ([]models.ProgrammationDetail, error)
	ListPending(ctx context.Context) ([]models.ProgrammationDetail, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]models.ProgrammationDetail, error)
	ListTodayByRoom(ctx context.Context, roomCode string) ([]models.ProgrammationDetail, error)
	CountByStatus(ctx context.Context, status models.ProgrammationStatus) (int, error)
}

type programmationRoomReader interface {
	FindByCode(ctx context.Context, code string) (*models.Room, error)
}

// CreateProgrammationRequest schedules a course session in a room.
type CreateProgrammationRequest struct {
	HourCount  int       `json:"hour_count" validate:"required,min=1"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	RoomCode   string    `json:"room_code" validate:"required"`
	CourseCode string    `json:"course_code" validate:"required"`
}

// UpdateProgrammationRequest reschedules an existing session. The whole
// window is re-validated, including room availability.
type UpdateProgrammationRequest struct {
	HourCount  int       `json:"hour_count" validate:"required,min=1"`
	StartAt    time.Time `json:"start_at" validate:"required"`
	EndAt      time.Time `json:"end_at" validate:"required"`
	RoomCode   string    `json:"room_code" validate:"required"`
	CourseCode string    `json:"course_code" validate:"required"`
}

// ProgrammationService coordinates session scheduling, the room availability
// rule and the validation workflow.
type ProgrammationService struct {
	repo      programmationRepository
	rooms     programmationRoomReader
	courses   assignmentCourseReader
	staff     assignmentStaffReader
	cache     *CacheService
	metrics   *MetricsService
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewProgrammationService constructs a ProgrammationService.
func NewProgrammationService(
	repo programmationRepository,
	rooms programmationRoomReader,
	courses assignmentCourseReader,
	staff assignmentStaffReader,
	cache *CacheService,
	metrics *MetricsService,
	audit *AuditService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ProgrammationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgrammationService{
		repo:      repo,
		rooms:     rooms,
		courses:   courses,
		staff:     staff,
		cache:     cache,
		metrics:   metrics,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create schedules a new session. The session starts in the scheduled state
// with the acting staff member as organizer.
func (s *ProgrammationService) Create(ctx context.Context, actorCode string, req CreateProgrammationRequest) (*models.ProgrammationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid programmation payload")
	}
	if err := s.checkWindow(ctx, req.StartAt, req.EndAt, req.RoomCode, req.CourseCode, actorCode); err != nil {
		return nil, err
	}

	prog := &models.Programmation{
		HourCount:     req.HourCount,
		StartAt:       req.StartAt.UTC(),
		EndAt:         req.EndAt.UTC(),
		Status:        models.StatusScheduled,
		RoomCode:      req.RoomCode,
		CourseCode:    req.CourseCode,
		OrganizerCode: actorCode,
	}

	if err := s.repo.Create(ctx, prog); err != nil {
		if errors.Is(err, repository.ErrRoomUnavailable) {
			s.metrics.RecordRoomConflict()
			return nil, appErrors.Clone(appErrors.ErrConflict, "room is already booked for this window")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create programmation")
	}

	s.invalidateListings(ctx)
	resourceID := strconv.Itoa(prog.ID)
	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionCreate,
		Resource:   "programmation",
		ResourceID: &resourceID,
	})

	return s.findDetail(ctx, prog.ID)
}

// Update reschedules a session. Validated sessions are frozen.
func (s *ProgrammationService) Update(ctx context.Context, actorCode string, id int, req UpdateProgrammationRequest) (*models.ProgrammationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid programmation payload")
	}

	current, err := s.findDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.StatusValidated {
		return nil, appErrors.Clone(appErrors.ErrConflict, "validated programmation can no longer be modified")
	}

	if err := s.checkWindow(ctx, req.StartAt, req.EndAt, req.RoomCode, req.CourseCode, actorCode); err != nil {
		return nil, err
	}

	available, err := s.repo.IsRoomAvailable(ctx, req.RoomCode, req.StartAt.UTC(), req.EndAt.UTC(), id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room availability")
	}
	if !available {
		s.metrics.RecordRoomConflict()
		return nil, appErrors.Clone(appErrors.ErrConflict, "room is already booked for this window")
	}

	prog := &models.Programmation{
		ID:            id,
		HourCount:     req.HourCount,
		StartAt:       req.StartAt.UTC(),
		EndAt:         req.EndAt.UTC(),
		Status:        current.Status,
		RoomCode:      req.RoomCode,
		CourseCode:    req.CourseCode,
		OrganizerCode: current.OrganizerCode,
		ValidatorCode: current.ValidatorCode,
	}

	if err := s.repo.Update(ctx, prog); err != nil {
		if errors.Is(err, repository.ErrRoomUnavailable) {
			s.metrics.RecordRoomConflict()
			return nil, appErrors.Clone(appErrors.ErrConflict, "room is already booked for this window")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "programmation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update programmation")
	}

	s.invalidateListings(ctx)
	resourceID := strconv.Itoa(id)
	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionUpdate,
		Resource:   "programmation",
		ResourceID: &resourceID,
	})

	return s.findDetail(ctx, id)
}

// Validate moves a scheduled session to the validated state, stamping the
// acting staff member as validator. The transition is one way.
func (s *ProgrammationService) Validate(ctx context.Context, actorCode string, id int) (*models.ProgrammationDetail, error) {
	current, err := s.findDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.StatusValidated {
		return nil, appErrors.Clone(appErrors.ErrConflict, "programmation is already validated")
	}

	if _, err := s.staff.FindByCode(ctx, actorCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "validator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load validator")
	}

	if err := s.repo.SetValidated(ctx, id, actorCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "programmation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate programmation")
	}

	s.metrics.RecordValidation()
	s.invalidateListings(ctx)
	resourceID := strconv.Itoa(id)
	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionValidate,
		Resource:   "programmation",
		ResourceID: &resourceID,
	})

	return s.findDetail(ctx, id)
}

// Delete removes a session and frees its room window.
func (s *ProgrammationService) Delete(ctx context.Context, actorCode string, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "programmation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete programmation")
	}

	s.invalidateListings(ctx)
	resourceID := strconv.Itoa(id)
	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionDelete,
		Resource:   "programmation",
		ResourceID: &resourceID,
	})
	return nil
}

// Get returns one session with display names.
func (s *ProgrammationService) Get(ctx context.Context, id int) (*models.ProgrammationDetail, error) {
	return s.findDetail(ctx, id)
}

// List returns sessions matching the filter.
func (s *ProgrammationService) List(ctx context.Context, filter models.ProgrammationFilter) ([]models.ProgrammationDetail, error) {
	key := listCacheKey(filter)
	var cached []models.ProgrammationDetail
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programmations")
	}
	if err := s.cache.Set(ctx, key, list, 0); err != nil {
		s.logger.Debug("failed to cache programmation listing", zap.Error(err))
	}
	return list, nil
}

// ListPending returns scheduled sessions awaiting a validator.
func (s *ProgrammationService) ListPending(ctx context.Context) ([]models.ProgrammationDetail, error) {
	list, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending programmations")
	}
	return list, nil
}

// ListUpcoming returns sessions starting from now, soonest first.
func (s *ProgrammationService) ListUpcoming(ctx context.Context) ([]models.ProgrammationDetail, error) {
	list, err := s.repo.ListUpcoming(ctx, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list upcoming programmations")
	}
	return list, nil
}

// ListTodayByRoom returns the sessions booked in a room today.
func (s *ProgrammationService) ListTodayByRoom(ctx context.Context, roomCode string) ([]models.ProgrammationDetail, error) {
	if _, err := s.rooms.FindByCode(ctx, roomCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	list, err := s.repo.ListTodayByRoom(ctx, roomCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list today's programmations")
	}
	return list, nil
}

// CheckRoomAvailability reports whether a room is free for the window.
func (s *ProgrammationService) CheckRoomAvailability(ctx context.Context, roomCode string, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}
	if _, err := s.rooms.FindByCode(ctx, roomCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	available, err := s.repo.IsRoomAvailable(ctx, roomCode, start.UTC(), end.UTC(), 0)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room availability")
	}
	return available, nil
}

// Stats aggregates session counts by status.
func (s *ProgrammationService) Stats(ctx context.Context) (*models.ProgrammationStats, error) {
	scheduled, err := s.repo.CountByStatus(ctx, models.StatusScheduled)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count programmations")
	}
	validated, err := s.repo.CountByStatus(ctx, models.StatusValidated)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count programmations")
	}
	rejected, err := s.repo.CountByStatus(ctx, models.StatusRejected)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count programmations")
	}
	return &models.ProgrammationStats{
		Scheduled: scheduled,
		Validated: validated,
		Rejected:  rejected,
		Total:     scheduled + validated + rejected,
	}, nil
}

// checkWindow validates the time window and the existence of the room,
// course and organizer. Room availability itself is enforced at the store
// inside the booking transaction.
func (s *ProgrammationService) checkWindow(ctx context.Context, start, end time.Time, roomCode, courseCode, organizerCode string) error {
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end must be after start")
	}

	room, err := s.rooms.FindByCode(ctx, roomCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if room.Status == models.RoomClosed {
		return appErrors.Clone(appErrors.ErrConflict, "room is closed")
	}

	if _, err := s.courses.FindByCode(ctx, courseCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if _, err := s.staff.FindByCode(ctx, organizerCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "organizer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organizer")
	}

	return nil
}

func (s *ProgrammationService) findDetail(ctx context.Context, id int) (*models.ProgrammationDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "programmation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load programmation")
	}
	return detail, nil
}

func (s *ProgrammationService) invalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, programmationCachePrefix+"*"); err != nil {
		s.logger.Debug("failed to invalidate programmation cache", zap.Error(err))
	}
}

func listCacheKey(filter models.ProgrammationFilter) string {
	status := ""
	if filter.Status != nil {
		status = string(*filter.Status)
	}
	from, to := "", ""
	if filter.From != nil {
		from = filter.From.UTC().Format(time.RFC3339)
	}
	if filter.To != nil {
		to = filter.To.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%slist:%s:%s:%s:%s:%s:%s:%s",
		programmationCachePrefix, status, filter.RoomCode, filter.CourseCode, filter.OrganizerCode, filter.ValidatorCode, from, to)
}
