package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yoockh/resumerank/internal/utils"
)

func TestGuestSessionRepo_GetByToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGuestSessionRepo(db)
	now := time.Now().UTC()

	cols := []string{"id", "session_token", "data", "created_at", "expires_at", "migrated_to_user_id", "migrated_at"}
	mock.ExpectQuery(`SELECT \* FROM "guest_sessions" WHERE session_token = \$1`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("g-1", "tok", []byte(`{"step":2}`), now, now.Add(time.Hour), nil, nil))

	s, err := repo.GetByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "g-1", s.ID)
	assert.JSONEq(t, `{"step":2}`, string(s.Data))
	assert.Nil(t, s.MigratedToUserID)

	mock.ExpectQuery(`SELECT \* FROM "guest_sessions"`).WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.GetByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestGuestSessionRepo_UpdateData(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGuestSessionRepo(db)

	mock.ExpectExec(`UPDATE "guest_sessions" SET "data"=\$1 WHERE session_token = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateData(context.Background(), "tok", datatypes.JSON(`{"a":1}`)))

	mock.ExpectExec(`UPDATE "guest_sessions"`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateData(context.Background(), "nope", datatypes.JSON(`{}`)), utils.ErrNotFound)
}

func TestGuestSessionRepo_MarkMigratedOnlyOnce(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGuestSessionRepo(db)
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE "guest_sessions" SET .* WHERE session_token = \$\d+ AND migrated_to_user_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.MarkMigrated(context.Background(), "tok", "u-1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE "guest_sessions" SET .* migrated_to_user_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.MarkMigrated(context.Background(), "tok", "u-2", now)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}
