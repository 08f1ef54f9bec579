package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Logan1xl/suivie-academique/internal/models"
)

const assignmentDetailQuery = `
SELECT a.code_course, a.code_staff, a.created_at,
       c.label AS course_label, s.name AS staff_name
FROM assignments a
JOIN courses c ON c.code_course = a.code_course
JOIN staff s ON s.code_staff = a.code_staff`

// AssignmentRepository persists the staff-course assignment relation keyed by
// the composite (course, staff) pair.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Exists checks whether the composite pair is already recorded.
func (r *AssignmentRepository) Exists(ctx context.Context, key models.AssignmentKey) (bool, error) {
	const query = `SELECT 1 FROM assignments WHERE code_course = $1 AND code_staff = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, key.CourseCode, key.StaffCode); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments (code_course, code_staff, created_at)
		VALUES (:code_course, :code_staff, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes the assignment identified by the composite pair.
func (r *AssignmentRepository) Delete(ctx context.Context, key models.AssignmentKey) error {
	const query = `DELETE FROM assignments WHERE code_course = $1 AND code_staff = $2`
	result, err := r.db.ExecContext(ctx, query, key.CourseCode, key.StaffCode)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListAll returns every assignment with resolved display names.
func (r *AssignmentRepository) ListAll(ctx context.Context) ([]models.AssignmentDetail, error) {
	query := assignmentDetailQuery + " ORDER BY a.code_course ASC, a.code_staff ASC"
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ListByStaff returns the assignments owned by a staff member.
func (r *AssignmentRepository) ListByStaff(ctx context.Context, staffCode string) ([]models.AssignmentDetail, error) {
	query := assignmentDetailQuery + " WHERE a.code_staff = $1 ORDER BY a.code_course ASC"
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, staffCode); err != nil {
		return nil, fmt.Errorf("list assignments by staff: %w", err)
	}
	return assignments, nil
}

// ListByCourse returns the assignments bound to a course.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseCode string) ([]models.AssignmentDetail, error) {
	query := assignmentDetailQuery + " WHERE a.code_course = $1 ORDER BY a.code_staff ASC"
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, courseCode); err != nil {
		return nil, fmt.Errorf("list assignments by course: %w", err)
	}
	return assignments, nil
}

// CountByStaff returns how many courses a staff member is assigned to.
func (r *AssignmentRepository) CountByStaff(ctx context.Context, staffCode string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE code_staff = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, staffCode); err != nil {
		return 0, fmt.Errorf("count assignments by staff: %w", err)
	}
	return count, nil
}

// CountByCourse returns how many staff members are assigned to a course.
func (r *AssignmentRepository) CountByCourse(ctx context.Context, courseCode string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE code_course = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseCode); err != nil {
		return 0, fmt.Errorf("count assignments by course: %w", err)
	}
	return count, nil
}
