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

func newStaffRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func staffRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"code_staff", "name", "login", "password_hash", "sex", "phone", "role", "created_at", "updated_at"}).
		AddRow("ENS20261234", "Amballa Jean", "amballa", "$2a$10$hash", "M", "+237699112233", models.RoleTeacher, now, now)
}

func TestStaffRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newStaffRepoMock(t)
	defer cleanup()

	repo := NewStaffRepository(db)
	role := models.RoleTeacher

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code_staff, name, login, password_hash, sex, phone, role, created_at, updated_at FROM staff")).
		WithArgs(role, "%jean%").
		WillReturnRows(staffRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM staff")).
		WithArgs(role, "%jean%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	staff, total, err := repo.List(context.Background(), models.StaffFilter{
		Role:   &role,
		Search: "Jean",
		Page:   1,
	})
	require.NoError(t, err)
	require.Len(t, staff, 1)
	require.Equal(t, 1, total)
	require.Equal(t, "ENS20261234", staff[0].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryFindByLogin(t *testing.T) {
	db, mock, cleanup := newStaffRepoMock(t)
	defer cleanup()

	repo := NewStaffRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM staff WHERE LOWER(login) = LOWER($1)")).
		WithArgs("AMBALLA").
		WillReturnRows(staffRows())

	staff, err := repo.FindByLogin(context.Background(), "AMBALLA")
	require.NoError(t, err)
	require.Equal(t, "amballa", staff.Login)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryExistsByLoginExcludesCode(t *testing.T) {
	db, mock, cleanup := newStaffRepoMock(t)
	defer cleanup()

	repo := NewStaffRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM staff WHERE LOWER(login) = LOWER($1) AND code_staff <> $2")).
		WithArgs("amballa", "ENS20261234").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByLogin(context.Background(), "amballa", "ENS20261234")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStaffRepoMock(t)
	defer cleanup()

	repo := NewStaffRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO staff")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	staff := &models.Staff{
		Code:         "RA20265678",
		Name:         "Ndongo Claire",
		Login:        "ndongo",
		PasswordHash: "$2a$10$hash",
		Sex:          "F",
		Phone:        "+237677889900",
		Role:         models.RoleAcademicManager,
	}
	require.NoError(t, repo.Create(context.Background(), staff))
	require.False(t, staff.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryUpdatePassword(t *testing.T) {
	db, mock, cleanup := newStaffRepoMock(t)
	defer cleanup()

	repo := NewStaffRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE staff SET password_hash = $1")).
		WithArgs("$2a$10$newhash", now, "ENS20261234").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "ENS20261234", "$2a$10$newhash", now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newStaffRepoMock(t)
	defer cleanup()

	repo := NewStaffRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM staff WHERE code_staff = $1")).
		WithArgs("ENS20269999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ENS20269999")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryRefreshTokenRoundTrip(t *testing.T) {
	db, mock, cleanup := newStaffRepoMock(t)
	defer cleanup()

	repo := NewStaffRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{
		StaffCode: "ENS20261234",
		Token:     "opaque-token",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	require.NotEmpty(t, token.ID)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "staff_code", "token", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent"}).
		AddRow(token.ID, token.StaffCode, token.Token, token.ExpiresAt, now, false, nil, "", "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token = $1")).
		WithArgs("opaque-token").
		WillReturnRows(rows)

	stored, err := repo.FindRefreshToken(context.Background(), "opaque-token")
	require.NoError(t, err)
	require.Equal(t, token.ID, stored.ID)
	require.False(t, stored.Revoked)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1")).
		WithArgs(token.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), token.ID, now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStaffRepositoryCountByRole(t *testing.T) {
	db, mock, cleanup := newStaffRepoMock(t)
	defer cleanup()

	repo := NewStaffRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM staff WHERE role = $1")).
		WithArgs(models.RoleTeacher).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountByRole(context.Background(), models.RoleTeacher)
	require.NoError(t, err)
	require.Equal(t, 12, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
