package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Logan1xl/suivie-academique/internal/models"
)

const roomColumns = "code_room, description, capacity, status, created_at, updated_at"

// RoomRepository manages persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns all rooms ordered by code.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms ORDER BY code_room ASC", roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByCode fetches a room by business code.
func (r *RoomRepository) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE code_room = $1", roomColumns)
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, code); err != nil {
		return nil, err
	}
	return &room, nil
}

// ExistsByCode reports whether a room code exists.
func (r *RoomRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM rooms WHERE code_room = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check room code: %w", err)
	}
	return true, nil
}

// Create inserts a new room record.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	const query = `INSERT INTO rooms (code_room, description, capacity, status, created_at, updated_at)
		VALUES (:code_room, :description, :capacity, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update modifies an existing room record.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rooms SET description = :description, capacity = :capacity, status = :status, updated_at = :updated_at WHERE code_room = :code_room`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

// Delete removes a room record.
func (r *RoomRepository) Delete(ctx context.Context, code string) error {
	const query = `DELETE FROM rooms WHERE code_room = $1`
	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted room rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
