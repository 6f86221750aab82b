package repositories

import (
	"context"

	"coursecraft/internal/domain/models/course"
)

// DraftRepository stores unsaved editor workspaces, one per course and user
type DraftRepository interface {
	// Save inserts or replaces the draft
	Save(ctx context.Context, draft *course.Draft) error

	// Get returns domain.ErrNotFound when there is no draft
	Get(ctx context.Context, courseID, userID string) (*course.Draft, error)

	// Delete is a no-op when there is no draft
	Delete(ctx context.Context, courseID, userID string) error
}
