package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Logan1xl/suivie-academique/internal/models"
)

const courseColumns = "code_course, label, description, credit_count, hour_count, created_at, updated_at"

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns all courses ordered by code.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses ORDER BY code_course ASC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByCode fetches a course by business code.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE code_course = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode reports whether a course code exists.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	const query = `SELECT 1 FROM courses WHERE code_course = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO courses (code_course, label, description, credit_count, hour_count, created_at, updated_at)
		VALUES (:code_course, :label, :description, :credit_count, :hour_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course record.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET label = :label, description = :description, credit_count = :credit_count, hour_count = :hour_count, updated_at = :updated_at WHERE code_course = :code_course`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course record.
func (r *CourseRepository) Delete(ctx context.Context, code string) error {
	const query = `DELETE FROM courses WHERE code_course = $1`
	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted course rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
