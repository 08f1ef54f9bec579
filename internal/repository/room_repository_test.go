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

func newRoomRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRoomRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRoomRepoMock(t)
	defer cleanup()

	repo := NewRoomRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	room := &models.Room{
		Code:        "A101",
		Description: "Amphi A",
		Capacity:    120,
		Status:      models.RoomFree,
	}
	require.NoError(t, repo.Create(context.Background(), room))
	require.False(t, room.UpdatedAt.IsZero())

	now := time.Now()
	rows := sqlmock.NewRows([]string{"code_room", "description", "capacity", "status", "created_at", "updated_at"}).
		AddRow("A101", "Amphi A", 120, models.RoomFree, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE code_room = $1")).
		WithArgs("A101").
		WillReturnRows(rows)

	found, err := repo.FindByCode(context.Background(), "A101")
	require.NoError(t, err)
	require.Equal(t, 120, found.Capacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryExistsByCode(t *testing.T) {
	db, mock, cleanup := newRoomRepoMock(t)
	defer cleanup()

	repo := NewRoomRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM rooms WHERE code_room = $1")).
		WithArgs("Z999").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByCode(context.Background(), "Z999")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRoomRepoMock(t)
	defer cleanup()

	repo := NewRoomRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms WHERE code_room = $1")).
		WithArgs("Z999").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "Z999")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
