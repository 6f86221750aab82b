package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coursecraft/internal/domain"
	"coursecraft/internal/domain/models/course"
	"coursecraft/internal/domain/repositories"
)

// PostgresDraftRepository implements the DraftRepository interface.
// One row per (course, user), the workspace snapshot stored as JSONB.
type PostgresDraftRepository struct {
	db     repositories.DBTX
	tables *TableNames
	logger *slog.Logger
}

// DraftsTableDDL returns the CREATE TABLE statement for the drafts table
func DraftsTableDDL(tables *TableNames) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			course_id  TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			snapshot   JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (course_id, user_id)
		)
	`, tables.Drafts)
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(config *RepositoryConfig) repositories.DraftRepository {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDraftRepository{
		db:     config.DB,
		tables: config.Tables,
		logger: logger,
	}
}

// Save inserts or replaces the draft
func (r *PostgresDraftRepository) Save(ctx context.Context, draft *course.Draft) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (course_id, user_id, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (course_id, user_id)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`, r.tables.Drafts)

	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, query,
		draft.CourseID,
		draft.UserID,
		[]byte(draft.Snapshot),
		now,
	).Scan(&draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		if IsPgUndefinedTableError(err) {
			return fmt.Errorf("save draft: table %s missing, run scripts/drafts_table.go create: %w", r.tables.Drafts, err)
		}
		return fmt.Errorf("save draft: %w", err)
	}

	r.logger.Debug("draft saved", "course_id", draft.CourseID, "user_id", draft.UserID, "bytes", len(draft.Snapshot))
	return nil
}

// Get retrieves the draft for a course and user
func (r *PostgresDraftRepository) Get(ctx context.Context, courseID, userID string) (*course.Draft, error) {
	query := fmt.Sprintf(`
		SELECT course_id, user_id, snapshot, created_at, updated_at
		FROM %s
		WHERE course_id = $1 AND user_id = $2
	`, r.tables.Drafts)

	var draft course.Draft
	var snapshot []byte
	err := r.db.QueryRow(ctx, query, courseID, userID).Scan(
		&draft.CourseID,
		&draft.UserID,
		&snapshot,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Message: fmt.Sprintf("no draft for course %s", courseID)}
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}
	draft.Snapshot = snapshot
	return &draft, nil
}

// Delete removes the draft. Deleting a missing draft is not an error.
func (r *PostgresDraftRepository) Delete(ctx context.Context, courseID, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE course_id = $1 AND user_id = $2
	`, r.tables.Drafts)

	tag, err := r.db.Exec(ctx, query, courseID, userID)
	if err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	if tag.RowsAffected() > 0 {
		r.logger.Debug("draft deleted", "course_id", courseID, "user_id", userID)
	}
	return nil
}
