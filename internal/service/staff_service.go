package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Logan1xl/suivie-academique/internal/models"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
)

type staffRepository interface {
	List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, int, error)
	FindByCode(ctx context.Context, code string) (*models.Staff, error)
	FindByLogin(ctx context.Context, login string) (*models.Staff, error)
	FindByPhone(ctx context.Context, phone string) (*models.Staff, error)
	ExistsByLogin(ctx context.Context, login, excludeCode string) (bool, error)
	ExistsByPhone(ctx context.Context, phone, excludeCode string) (bool, error)
	Create(ctx context.Context, staff *models.Staff) error
	Update(ctx context.Context, staff *models.Staff) error
	Delete(ctx context.Context, code string) error
	CountByRole(ctx context.Context, role models.StaffRole) (int, error)
	CountBySex(ctx context.Context, sex string) (int, error)
}

// RegisterStaffRequest is the payload for registering a staff member.
type RegisterStaffRequest struct {
	Name     string `json:"name" validate:"required"`
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
	Sex      string `json:"sex" validate:"required,oneof=M F"`
	Phone    string `json:"phone" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// UpdateStaffRequest is the payload for updating the mutable staff fields.
// The password hash is never updated through this path.
type UpdateStaffRequest struct {
	Name  string `json:"name" validate:"required"`
	Login string `json:"login" validate:"required"`
	Sex   string `json:"sex" validate:"required,oneof=M F"`
	Phone string `json:"phone" validate:"required"`
	Role  string `json:"role" validate:"required"`
}

// StaffService orchestrates registration and staff directory operations.
type StaffService struct {
	repo      staffRepository
	codes     *CodeGenerator
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStaffService constructs a StaffService.
func NewStaffService(repo staffRepository, codes *CodeGenerator, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *StaffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{repo: repo, codes: codes, audit: audit, validator: validate, logger: logger}
}

// Register creates a staff member with a generated business code and a
// bcrypt password hash.
func (s *StaffService) Register(ctx context.Context, req RegisterStaffRequest) (*models.Staff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	role, ok := models.ParseStaffRole(req.Role)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown staff role: "+req.Role)
	}

	taken, err := s.repo.ExistsByLogin(ctx, req.Login, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check login uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "login already used")
	}

	taken, err = s.repo.ExistsByPhone(ctx, req.Phone, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already used")
	}

	code, err := s.codes.Generate(ctx, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate staff code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	staff := &models.Staff{
		Code:         code,
		Name:         strings.TrimSpace(req.Name),
		Login:        strings.TrimSpace(req.Login),
		PasswordHash: string(hash),
		Sex:          req.Sex,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
	}

	if err := s.repo.Create(ctx, staff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff")
	}

	s.audit.Record(&models.AuditLog{
		StaffCode:  &staff.Code,
		Action:     models.AuditActionRegister,
		Resource:   "staff",
		ResourceID: &staff.Code,
	})

	return staff, nil
}

// List returns staff plus pagination data.
func (s *StaffService) List(ctx context.Context, filter models.StaffFilter) ([]models.Staff, *models.Pagination, error) {
	staff, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list staff")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return staff, pagination, nil
}

// Get returns a staff member by business code.
func (s *StaffService) Get(ctx context.Context, code string) (*models.Staff, error) {
	staff, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	return staff, nil
}

// GetByLogin returns a staff member by login.
func (s *StaffService) GetByLogin(ctx context.Context, login string) (*models.Staff, error) {
	staff, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "login not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	return staff, nil
}

// GetByPhone returns a staff member by phone number.
func (s *StaffService) GetByPhone(ctx context.Context, phone string) (*models.Staff, error) {
	staff, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "phone number not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}
	return staff, nil
}

// Update modifies the mutable staff fields.
func (s *StaffService) Update(ctx context.Context, actorCode, code string, req UpdateStaffRequest) (*models.Staff, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid staff payload")
	}

	role, ok := models.ParseStaffRole(req.Role)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown staff role: "+req.Role)
	}

	staff, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff")
	}

	taken, err := s.repo.ExistsByLogin(ctx, req.Login, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check login uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "login already used")
	}

	taken, err = s.repo.ExistsByPhone(ctx, req.Phone, code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already used")
	}

	staff.Name = strings.TrimSpace(req.Name)
	staff.Login = strings.TrimSpace(req.Login)
	staff.Sex = req.Sex
	staff.Phone = strings.TrimSpace(req.Phone)
	staff.Role = role

	if err := s.repo.Update(ctx, staff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update staff")
	}

	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionUpdate,
		Resource:   "staff",
		ResourceID: &staff.Code,
	})

	return staff, nil
}

// Delete removes a staff member.
func (s *StaffService) Delete(ctx context.Context, actorCode, code string) error {
	if err := s.repo.Delete(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "staff not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete staff")
	}

	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionDelete,
		Resource:   "staff",
		ResourceID: &code,
	})
	return nil
}

// CountByRole returns the number of staff holding a given role.
func (s *StaffService) CountByRole(ctx context.Context, rawRole string) (int, error) {
	role, ok := models.ParseStaffRole(rawRole)
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown staff role: "+rawRole)
	}
	count, err := s.repo.CountByRole(ctx, role)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count staff")
	}
	return count, nil
}

// CountBySex returns the number of staff with the given sex marker.
func (s *StaffService) CountBySex(ctx context.Context, sex string) (int, error) {
	if sex != "M" && sex != "F" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown sex marker: "+sex)
	}
	count, err := s.repo.CountBySex(ctx, sex)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count staff")
	}
	return count, nil
}
