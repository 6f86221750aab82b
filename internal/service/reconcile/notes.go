package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"coursecraft/internal/curriculum"
	"coursecraft/internal/domain"
	"coursecraft/internal/domain/models/course"
)

// CreateNote adds a note for f and uploads it. If the upload fails the
// note stays in the list as pending and can be persisted again.
func (c *Controller) CreateNote(ctx context.Context, title, description string, f curriculum.FileHandle) (uuid.UUID, error) {
	var id uuid.UUID
	err := c.Edit(func(ws *curriculum.Workspace) error {
		n, err := curriculum.NewNote(title, description, f)
		if err != nil {
			return err
		}
		if err := n.Validate(); err != nil {
			return err
		}
		ws.Notes.Add(n)
		id = n.LocalID()
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, c.PersistNote(ctx, id)
}

// PersistNote creates the note or sends its edits. A pending file goes
// along in the same multipart request.
func (c *Controller) PersistNote(ctx context.Context, noteID uuid.UUID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	n, err := c.ws.Notes.Find(noteID.String())
	if err == nil {
		err = n.Validate()
	}
	if err == nil && !n.IsPersisted() && n.PendingFile() == nil {
		err = fmt.Errorf("note %s has no file: %w", noteID, domain.ErrInvalidFile)
	}
	if err == nil {
		err = n.BeginSync()
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}
	courseID, canonicalID := c.ws.CourseID, n.CanonicalID()
	in, file, rev := n.Input(), n.LendFile(), n.Revision()
	c.mu.Unlock()

	var rec *course.Note
	if canonicalID == "" {
		rec, err = c.api.CreateNote(ctx, courseID, in, file)
	} else {
		rec, err = c.api.UpdateNote(ctx, courseID, canonicalID, in, file)
	}

	if !c.relock("note", noteID.String()) {
		releaseSent(file)
		return domain.ErrSessionClosed
	}
	defer c.mu.Unlock()
	defer n.ReturnFile(file)

	if err != nil {
		n.EndSync()
		c.logger.Warn("note persist failed", "note", noteID, "error", err)
		return &domain.PersistenceError{Entity: "note", LocalID: noteID.String(), Cause: err}
	}
	n.Confirm(*rec, file, rev)
	c.logger.Info("note persisted", "note", noteID, "note_id", rec.ID, "created", canonicalID == "")
	return nil
}

// DeleteNote removes a note, deleting it on the server first when it was
// persisted.
func (c *Controller) DeleteNote(ctx context.Context, noteID uuid.UUID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	n, err := c.ws.Notes.Find(noteID.String())
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if n.State() == curriculum.StateSyncing {
		c.mu.Unlock()
		return fmt.Errorf("note %s: %w", noteID, domain.ErrSyncInProgress)
	}
	if !n.IsPersisted() {
		err := c.ws.Notes.Remove(noteID)
		c.mu.Unlock()
		return err
	}
	if err := n.BeginSync(); err != nil {
		c.mu.Unlock()
		return err
	}
	courseID, canonicalID := c.ws.CourseID, n.CanonicalID()
	c.mu.Unlock()

	err = c.api.DeleteNote(ctx, courseID, canonicalID)

	if !c.relock("note", noteID.String()) {
		return domain.ErrSessionClosed
	}
	defer c.mu.Unlock()
	n.EndSync()

	if err != nil {
		return &domain.PersistenceError{Entity: "note", LocalID: noteID.String(), Cause: err}
	}
	_ = c.ws.Notes.Remove(noteID) // may already be gone
	c.logger.Info("note deleted", "note", noteID, "note_id", canonicalID)
	return nil
}
