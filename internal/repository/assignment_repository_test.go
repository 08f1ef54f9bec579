package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Logan1xl/suivie-academique/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	key := models.AssignmentKey{CourseCode: "MATH101", StaffCode: "ENS20261234"}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM assignments WHERE code_course = $1 AND code_staff = $2")).
		WithArgs("MATH101", "ENS20261234").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))
	exists, err := repo.Exists(context.Background(), key)
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM assignments WHERE code_course = $1 AND code_staff = $2")).
		WithArgs("MATH101", "ENS20269999").
		WillReturnError(sql.ErrNoRows)
	exists, err = repo.Exists(context.Background(), models.AssignmentKey{CourseCode: "MATH101", StaffCode: "ENS20269999"})
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateAndDelete(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	assignment := &models.Assignment{CourseCode: "MATH101", StaffCode: "ENS20261234"}
	require.NoError(t, repo.Create(context.Background(), assignment))
	require.False(t, assignment.CreatedAt.IsZero())

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE code_course = $1 AND code_staff = $2")).
		WithArgs("MATH101", "ENS20261234").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), assignment.Key()))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE code_course = $1 AND code_staff = $2")).
		WithArgs("MATH101", "ENS20261234").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Delete(context.Background(), assignment.Key())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByStaff(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"code_course", "code_staff", "created_at", "course_label", "staff_name"}).
		AddRow("MATH101", "ENS20261234", now, "Analyse 1", "Amballa Jean").
		AddRow("PHY201", "ENS20261234", now, "Mecanique", "Amballa Jean")

	mock.ExpectQuery("SELECT a.code_course, a.code_staff").
		WithArgs("ENS20261234").
		WillReturnRows(rows)

	list, err := repo.ListByStaff(context.Background(), "ENS20261234")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Analyse 1", list[0].CourseLabel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountByCourse(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assignments WHERE code_course = $1")).
		WithArgs("MATH101").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByCourse(context.Background(), "MATH101")
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
