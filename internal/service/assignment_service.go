package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Logan1xl/suivie-academique/internal/models"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
)

type assignmentRepository interface {
	Exists(ctx context.Context, key models.AssignmentKey) (bool, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, key models.AssignmentKey) error
	ListAll(ctx context.Context) ([]models.AssignmentDetail, error)
	ListByStaff(ctx context.Context, staffCode string) ([]models.AssignmentDetail, error)
	ListByCourse(ctx context.Context, courseCode string) ([]models.AssignmentDetail, error)
	CountByStaff(ctx context.Context, staffCode string) (int, error)
	CountByCourse(ctx context.Context, courseCode string) (int, error)
}

type assignmentStaffReader interface {
	FindByCode(ctx context.Context, code string) (*models.Staff, error)
}

type assignmentCourseReader interface {
	FindByCode(ctx context.Context, code string) (*models.Course, error)
}

// CreateAssignmentRequest links a staff member to a course.
type CreateAssignmentRequest struct {
	CourseCode string `json:"course_code" validate:"required"`
	StaffCode  string `json:"staff_code" validate:"required"`
}

// AssignmentService manages the staff to course assignment links.
type AssignmentService struct {
	repo      assignmentRepository
	staff     assignmentStaffReader
	courses   assignmentCourseReader
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentRepository, staff assignmentStaffReader, courses assignmentCourseReader, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, staff: staff, courses: courses, audit: audit, validator: validate, logger: logger}
}

// Create links a staff member to a course. Both sides must exist and the
// pair must not already be linked.
func (s *AssignmentService) Create(ctx context.Context, actorCode string, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.courses.FindByCode(ctx, req.CourseCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if _, err := s.staff.FindByCode(ctx, req.StaffCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}

	key := models.AssignmentKey{CourseCode: req.CourseCode, StaffCode: req.StaffCode}
	exists, err := s.repo.Exists(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "staff member is already assigned to this course")
	}

	assignment := &models.Assignment{CourseCode: req.CourseCode, StaffCode: req.StaffCode}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	resourceID := assignment.CourseCode + ":" + assignment.StaffCode
	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionCreate,
		Resource:   "assignment",
		ResourceID: &resourceID,
	})

	return assignment, nil
}

// Delete unlinks a staff member from a course.
func (s *AssignmentService) Delete(ctx context.Context, actorCode string, key models.AssignmentKey) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}

	resourceID := key.CourseCode + ":" + key.StaffCode
	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionDelete,
		Resource:   "assignment",
		ResourceID: &resourceID,
	})
	return nil
}

// List returns every assignment with display names.
func (s *AssignmentService) List(ctx context.Context) ([]models.AssignmentDetail, error) {
	assignments, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListByStaff returns the courses a staff member is assigned to.
func (s *AssignmentService) ListByStaff(ctx context.Context, staffCode string) ([]models.AssignmentDetail, error) {
	if _, err := s.staff.FindByCode(ctx, staffCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	assignments, err := s.repo.ListByStaff(ctx, staffCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListByCourse returns the staff assigned to a course.
func (s *AssignmentService) ListByCourse(ctx context.Context, courseCode string) ([]models.AssignmentDetail, error) {
	if _, err := s.courses.FindByCode(ctx, courseCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	assignments, err := s.repo.ListByCourse(ctx, courseCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// CountByStaff returns the number of courses a staff member carries.
func (s *AssignmentService) CountByStaff(ctx context.Context, staffCode string) (int, error) {
	if _, err := s.staff.FindByCode(ctx, staffCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	count, err := s.repo.CountByStaff(ctx, staffCode)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}
	return count, nil
}

// CountByCourse returns the number of staff assigned to a course.
func (s *AssignmentService) CountByCourse(ctx context.Context, courseCode string) (int, error) {
	if _, err := s.courses.FindByCode(ctx, courseCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	count, err := s.repo.CountByCourse(ctx, courseCode)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}
	return count, nil
}
