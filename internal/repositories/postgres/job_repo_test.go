package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/resumerank/internal/models"
	"github.com/yoockh/resumerank/internal/utils"
)

var jobColumns = []string{"id", "job_title", "job_tag", "requirements", "user_id", "created_at"}

func TestJobRepo_CreateDuplicateTag(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)

	mock.ExpectExec(`INSERT INTO "jobs"`).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "jobs_job_tag_key"})

	err := repo.Create(context.Background(), &models.Job{ID: "j-1", Title: "Go dev", Tag: "go-1", UserID: "u-1"})
	assert.ErrorIs(t, err, utils.ErrDuplicate)
}

func TestJobRepo_GetOwned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id = \$1 AND user_id = \$2`).
		WillReturnRows(sqlmock.NewRows(jobColumns).AddRow("j-1", "Go dev", "go-1", "Go, SQL", "u-1", now))

	j, err := repo.GetOwned(context.Background(), "j-1", "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Go dev", j.Title)
	assert.Equal(t, "go-1", j.Tag)

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id = \$1 AND user_id = \$2`).
		WillReturnRows(sqlmock.NewRows(jobColumns))
	_, err = repo.GetOwned(context.Background(), "j-1", "intruder")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestJobRepo_ListByUserNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE user_id = \$1 ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow("j-2", "B", "b", "r", "u-1", now).
			AddRow("j-1", "A", "a", "r", "u-1", now.Add(-time.Hour)))

	jobs, err := repo.ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j-2", jobs[0].ID)
}

func TestJobRepo_DeleteOwnedRemovesResumes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "jobs" WHERE id = \$1 AND user_id = \$2`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "resumes" WHERE job_id = \$1`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteOwned(context.Background(), "j-1", "u-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepo_DeleteOwnedForeignJob(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "jobs"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteOwned(context.Background(), "j-1", "intruder")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepo_DeleteOwnedRollsBackOnResumeError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "jobs"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "resumes"`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.DeleteOwned(context.Background(), "j-1", "u-1")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
