package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecraft/internal/domain"
	"coursecraft/internal/domain/models/course"
)

func setupDraftRepo(t *testing.T) (*PostgresDraftRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	repo := NewDraftRepository(&RepositoryConfig{
		DB:     mock,
		Tables: NewTableNames("test_"),
	}).(*PostgresDraftRepository)
	return repo, mock
}

func TestDraftRepository_Save(t *testing.T) {
	repo, mock := setupDraftRepo(t)
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	mock.ExpectQuery("INSERT INTO test_editor_drafts .* ON CONFLICT \\(course_id, user_id\\)").
		WithArgs("c1", "u1", []byte(`{"version":1}`), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, updated))

	draft := &course.Draft{CourseID: "c1", UserID: "u1", Snapshot: json.RawMessage(`{"version":1}`)}
	require.NoError(t, repo.Save(context.Background(), draft))

	assert.Equal(t, created, draft.CreatedAt)
	assert.Equal(t, updated, draft.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDraftRepository_SaveMissingTable(t *testing.T) {
	repo, mock := setupDraftRepo(t)

	mock.ExpectQuery("INSERT INTO test_editor_drafts").
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: "relation does not exist"})

	err := repo.Save(context.Background(), &course.Draft{CourseID: "c1", UserID: "u1", Snapshot: json.RawMessage(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create_drafts_table")
	assert.True(t, IsPgUndefinedTableError(err))
}

func TestDraftRepository_Get(t *testing.T) {
	repo, mock := setupDraftRepo(t)
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT course_id, user_id, snapshot, created_at, updated_at FROM test_editor_drafts").
			WithArgs("c1", "u1").
			WillReturnRows(pgxmock.NewRows([]string{"course_id", "user_id", "snapshot", "created_at", "updated_at"}).
				AddRow("c1", "u1", []byte(`{"version":1,"course_id":"c1"}`), now, now))

		draft, err := repo.Get(context.Background(), "c1", "u1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"version":1,"course_id":"c1"}`, string(draft.Snapshot))
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM test_editor_drafts").
			WithArgs("c1", "u2").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Get(context.Background(), "c1", "u2")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDraftRepository_Delete(t *testing.T) {
	repo, mock := setupDraftRepo(t)

	mock.ExpectExec("DELETE FROM test_editor_drafts").
		WithArgs("c1", "u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "c1", "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
