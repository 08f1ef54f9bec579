package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Logan1xl/suivie-academique/internal/models"
)

// ErrRoomUnavailable signals that the requested room/window overlaps an
// existing booking. Raised from inside the booking transaction so callers can
// translate it into a conflict response.
var ErrRoomUnavailable = errors.New("room is occupied for the requested window")

const programmationDetailQuery = `
SELECT p.id, p.hour_count, p.start_at, p.end_at, p.status,
       p.code_room, p.code_course, p.organizer_code, p.validator_code,
       p.created_at, p.updated_at,
       c.label AS course_label, o.name AS organizer_name, v.name AS validator_name
FROM programmations p
JOIN courses c ON c.code_course = p.code_course
JOIN staff o ON o.code_staff = p.organizer_code
LEFT JOIN staff v ON v.code_staff = p.validator_code`

// The boundary comparisons are deliberately inclusive: a session ending
// exactly when another starts counts as an overlap.
const overlapCountQuery = `
SELECT COUNT(*) FROM programmations
WHERE code_room = $1
  AND ((start_at <= $2 AND end_at >= $2)
    OR (start_at <= $3 AND end_at >= $3)
    OR (start_at >= $2 AND end_at <= $3))
  AND ($4 <= 0 OR id <> $4)`

// ProgrammationRepository persists scheduled course sessions.
type ProgrammationRepository struct {
	db *sqlx.DB
}

// NewProgrammationRepository constructs the repository.
func NewProgrammationRepository(db *sqlx.DB) *ProgrammationRepository {
	return &ProgrammationRepository{db: db}
}

// IsRoomAvailable decides whether the room is free over [start, end] among
// stored bookings. excludeID skips the booking being updated; pass 0 on
// create.
func (r *ProgrammationRepository) IsRoomAvailable(ctx context.Context, roomCode string, start, end time.Time, excludeID int) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, overlapCountQuery, roomCode, start, end, excludeID); err != nil {
		return false, fmt.Errorf("check room availability: %w", err)
	}
	return count == 0, nil
}

// Create inserts a booking after re-verifying availability inside a
// transaction holding a room-scoped advisory lock. This closes the window
// between the availability check and the insert under concurrent requests.
func (r *ProgrammationRepository) Create(ctx context.Context, prog *models.Programmation) error {
	now := time.Now().UTC()
	prog.CreatedAt = now
	prog.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockRoom(ctx, tx, prog.RoomCode); err != nil {
		return err
	}

	var count int
	if err := tx.GetContext(ctx, &count, overlapCountQuery, prog.RoomCode, prog.StartAt, prog.EndAt, 0); err != nil {
		return fmt.Errorf("recheck room availability: %w", err)
	}
	if count > 0 {
		return ErrRoomUnavailable
	}

	const query = `INSERT INTO programmations (hour_count, start_at, end_at, status, code_room, code_course, organizer_code, validator_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := tx.QueryRowxContext(ctx, query,
		prog.HourCount, prog.StartAt, prog.EndAt, prog.Status,
		prog.RoomCode, prog.CourseCode, prog.OrganizerCode, prog.ValidatorCode,
		prog.CreatedAt, prog.UpdatedAt,
	).Scan(&prog.ID); err != nil {
		return fmt.Errorf("create programmation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	return nil
}

// Update rewrites a booking's window, room, course and status under the same
// room-scoped lock discipline as Create. The booking's own row is excluded
// from the overlap test.
func (r *ProgrammationRepository) Update(ctx context.Context, prog *models.Programmation) error {
	prog.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := lockRoom(ctx, tx, prog.RoomCode); err != nil {
		return err
	}

	var count int
	if err := tx.GetContext(ctx, &count, overlapCountQuery, prog.RoomCode, prog.StartAt, prog.EndAt, prog.ID); err != nil {
		return fmt.Errorf("recheck room availability: %w", err)
	}
	if count > 0 {
		return ErrRoomUnavailable
	}

	const query = `UPDATE programmations SET hour_count = $2, start_at = $3, end_at = $4, status = $5, code_room = $6, code_course = $7, updated_at = $8 WHERE id = $1`
	result, err := tx.ExecContext(ctx, query,
		prog.ID, prog.HourCount, prog.StartAt, prog.EndAt, prog.Status,
		prog.RoomCode, prog.CourseCode, prog.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update programmation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated programmation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	return nil
}

// SetValidated stamps the validator and moves the booking to VALIDATED.
func (r *ProgrammationRepository) SetValidated(ctx context.Context, id int, validatorCode string) error {
	const query = `UPDATE programmations SET status = $2, validator_code = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, models.StatusValidated, validatorCode, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("validate programmation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check validated programmation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a booking unconditionally.
func (r *ProgrammationRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM programmations WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete programmation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted programmation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID fetches a booking with resolved display names.
func (r *ProgrammationRepository) FindByID(ctx context.Context, id int) (*models.ProgrammationDetail, error) {
	query := programmationDetailQuery + " WHERE p.id = $1"
	var detail models.ProgrammationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns bookings matching the filter, ordered by start time.
func (r *ProgrammationRepository) List(ctx context.Context, filter models.ProgrammationFilter) ([]models.ProgrammationDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.RoomCode != "" {
		conditions = append(conditions, fmt.Sprintf("p.code_room = $%d", len(args)+1))
		args = append(args, filter.RoomCode)
	}
	if filter.CourseCode != "" {
		conditions = append(conditions, fmt.Sprintf("p.code_course = $%d", len(args)+1))
		args = append(args, filter.CourseCode)
	}
	if filter.OrganizerCode != "" {
		conditions = append(conditions, fmt.Sprintf("p.organizer_code = $%d", len(args)+1))
		args = append(args, filter.OrganizerCode)
	}
	if filter.ValidatorCode != "" {
		conditions = append(conditions, fmt.Sprintf("p.validator_code = $%d", len(args)+1))
		args = append(args, filter.ValidatorCode)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("p.start_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("p.end_at <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	query := programmationDetailQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.start_at ASC"

	var details []models.ProgrammationDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list programmations: %w", err)
	}
	return details, nil
}

// ListPending returns SCHEDULED bookings that have no validator yet.
func (r *ProgrammationRepository) ListPending(ctx context.Context) ([]models.ProgrammationDetail, error) {
	query := programmationDetailQuery + " WHERE p.status = $1 AND p.validator_code IS NULL ORDER BY p.start_at ASC"
	var details []models.ProgrammationDetail
	if err := r.db.SelectContext(ctx, &details, query, models.StatusScheduled); err != nil {
		return nil, fmt.Errorf("list pending programmations: %w", err)
	}
	return details, nil
}

// ListUpcoming returns bookings starting at or after now, soonest first.
func (r *ProgrammationRepository) ListUpcoming(ctx context.Context, now time.Time) ([]models.ProgrammationDetail, error) {
	query := programmationDetailQuery + " WHERE p.start_at >= $1 ORDER BY p.start_at ASC"
	var details []models.ProgrammationDetail
	if err := r.db.SelectContext(ctx, &details, query, now); err != nil {
		return nil, fmt.Errorf("list upcoming programmations: %w", err)
	}
	return details, nil
}

// ListTodayByRoom returns the bookings of a room for the current day.
func (r *ProgrammationRepository) ListTodayByRoom(ctx context.Context, roomCode string) ([]models.ProgrammationDetail, error) {
	query := programmationDetailQuery + " WHERE p.code_room = $1 AND p.start_at::date = CURRENT_DATE ORDER BY p.start_at ASC"
	var details []models.ProgrammationDetail
	if err := r.db.SelectContext(ctx, &details, query, roomCode); err != nil {
		return nil, fmt.Errorf("list today's programmations: %w", err)
	}
	return details, nil
}

// CountByStatus returns the number of bookings holding a status.
func (r *ProgrammationRepository) CountByStatus(ctx context.Context, status models.ProgrammationStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM programmations WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, status); err != nil {
		return 0, fmt.Errorf("count programmations by status: %w", err)
	}
	return count, nil
}

// lockRoom serializes booking decisions for a single room within the
// surrounding transaction.
func lockRoom(ctx context.Context, tx *sqlx.Tx, roomCode string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, roomCode); err != nil {
		return fmt.Errorf("lock room %s: %w", roomCode, err)
	}
	return nil
}
