package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Logan1xl/suivie-academique/internal/models"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, code string) error
}

// CreateCourseRequest is the payload for registering a course.
type CreateCourseRequest struct {
	Code        string `json:"code" validate:"required,min=1,max=100"`
	Label       string `json:"label" validate:"required"`
	Description string `json:"description"`
	CreditCount string `json:"credit_count"`
	HourCount   string `json:"hour_count"`
}

// UpdateCourseRequest is the payload for updating a course.
type UpdateCourseRequest struct {
	Label       string `json:"label" validate:"required"`
	Description string `json:"description"`
	CreditCount string `json:"credit_count"`
	HourCount   string `json:"hour_count"`
}

// CourseService manages the course catalogue.
type CourseService struct {
	repo      courseRepository
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns every course.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns a course by code.
func (s *CourseService) Get(ctx context.Context, code string) (*models.Course, error) {
	course, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, actorCode string, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}

	course := &models.Course{
		Code:        strings.TrimSpace(req.Code),
		Label:       strings.TrimSpace(req.Label),
		Description: req.Description,
		CreditCount: req.CreditCount,
		HourCount:   req.HourCount,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionCreate,
		Resource:   "course",
		ResourceID: &course.Code,
	})

	return course, nil
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, actorCode, code string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course.Label = strings.TrimSpace(req.Label)
	course.Description = req.Description
	course.CreditCount = req.CreditCount
	course.HourCount = req.HourCount

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionUpdate,
		Resource:   "course",
		ResourceID: &course.Code,
	})

	return course, nil
}

// Delete removes a course. Assignments and programmations referencing it
// cascade at the store.
func (s *CourseService) Delete(ctx context.Context, actorCode, code string) error {
	if err := s.repo.Delete(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionDelete,
		Resource:   "course",
		ResourceID: &code,
	})
	return nil
}
