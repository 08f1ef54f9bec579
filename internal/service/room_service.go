package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Logan1xl/suivie-academique/internal/models"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context) ([]models.Room, error)
	FindByCode(ctx context.Context, code string) (*models.Room, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, code string) error
}

// CreateRoomRequest is the payload for registering a room.
type CreateRoomRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity" validate:"required"`
	Status      string `json:"status" validate:"required"`
}

// UpdateRoomRequest is the payload for updating a room.
type UpdateRoomRequest struct {
	Description string `json:"description"`
	Capacity    int    `json:"capacity" validate:"required"`
	Status      string `json:"status" validate:"required"`
}

// RoomService manages the bookable room inventory.
type RoomService struct {
	repo      roomRepository
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs a RoomService.
func NewRoomService(repo roomRepository, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns every room.
func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// Get returns a room by code.
func (s *RoomService) Get(ctx context.Context, code string) (*models.Room, error) {
	room, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// Create registers a new room. Rooms below the minimum capacity are refused.
func (s *RoomService) Create(ctx context.Context, actorCode string, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	if req.Capacity < models.MinRoomCapacity {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room capacity must be at least %d", models.MinRoomCapacity))
	}

	status, ok := models.ParseRoomStatus(req.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown room status: "+req.Status)
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "room code already used")
	}

	room := &models.Room{
		Code:        strings.TrimSpace(req.Code),
		Description: req.Description,
		Capacity:    req.Capacity,
		Status:      status,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}

	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionCreate,
		Resource:   "room",
		ResourceID: &room.Code,
	})

	return room, nil
}

// Update modifies a room, enforcing the same capacity floor as Create.
func (s *RoomService) Update(ctx context.Context, actorCode, code string, req UpdateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}

	if req.Capacity < models.MinRoomCapacity {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("room capacity must be at least %d", models.MinRoomCapacity))
	}

	status, ok := models.ParseRoomStatus(req.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown room status: "+req.Status)
	}

	room, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	room.Description = req.Description
	room.Capacity = req.Capacity
	room.Status = status

	if err := s.repo.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}

	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionUpdate,
		Resource:   "room",
		ResourceID: &room.Code,
	})

	return room, nil
}

// Delete removes a room.
func (s *RoomService) Delete(ctx context.Context, actorCode, code string) error {
	if err := s.repo.Delete(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}

	s.audit.Record(&models.AuditLog{
		StaffCode:  &actorCode,
		Action:     models.AuditActionDelete,
		Resource:   "room",
		ResourceID: &code,
	})
	return nil
}
