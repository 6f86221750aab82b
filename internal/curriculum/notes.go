package curriculum

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"coursecraft/internal/config"
	"coursecraft/internal/domain"
	"coursecraft/internal/domain/models/course"
)

// Note is a downloadable resource attached to the course. A new note holds
// a pending file until its first upload succeeds.
type Note struct {
	identity

	title       string
	description string
	fileName    string
	fileSize    int64
	fileURL     string
	uploadedAt  time.Time
	pending     FileHandle
	sending     FileHandle
}

// NewNote creates a pending note for f
func NewNote(title, description string, f FileHandle) (*Note, error) {
	n := &Note{identity: newIdentity(), title: title, description: description}
	if err := n.ReplaceFile(f); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Note) Title() string           { return n.title }
func (n *Note) Description() string     { return n.description }
func (n *Note) FileName() string        { return n.fileName }
func (n *Note) FileSize() int64         { return n.fileSize }
func (n *Note) FileURL() string         { return n.fileURL }
func (n *Note) UploadedAt() time.Time   { return n.uploadedAt }
func (n *Note) PendingFile() FileHandle { return n.pending }

func (n *Note) Rename(title string) {
	n.title = title
	n.touch()
}

func (n *Note) SetDescription(description string) {
	n.description = description
	n.touch()
}

// ReplaceFile selects a new file to upload. The previous pending file, if
// any, is released unless a request is still sending it.
func (n *Note) ReplaceFile(f FileHandle) error {
	if f == nil {
		return fmt.Errorf("no file given: %w", domain.ErrInvalidFile)
	}
	if f.Size() > config.MaxNoteFileSize {
		return fmt.Errorf("%s is %d bytes, limit %d: %w", f.Name(), f.Size(), config.MaxNoteFileSize, domain.ErrFileTooLarge)
	}
	if n.pending != nil && n.pending != f && n.pending != n.sending {
		_ = n.pending.Release()
	}
	n.pending = f
	n.fileName = f.Name()
	n.fileSize = f.Size()
	n.touch()
	return nil
}

// Confirm merges the stored record after a request that carried revision
// rev and file sent (nil for a metadata-only update). Title and description
// stay as the author has them now.
func (n *Note) Confirm(rec course.Note, sent FileHandle, rev uint64) {
	n.MarkPersisted(rec.ID, rev)
	if sent == nil || n.pending != sent {
		// metadata-only update, or a newer file was picked meanwhile
		return
	}
	_ = sent.Release() // the server has it now
	n.pending = nil
	n.sending = nil
	n.fileName = rec.FileName
	n.fileSize = rec.FileSize
	n.fileURL = rec.FileURL
	n.uploadedAt = rec.UploadedAt
}

// LendFile marks the pending file as being sent and returns it
func (n *Note) LendFile() FileHandle {
	n.sending = n.pending
	return n.pending
}

// ReturnFile ends the loan of sent, releasing it when it was replaced while
// the request ran.
func (n *Note) ReturnFile(sent FileHandle) {
	if sent == nil || n.sending != sent {
		return
	}
	n.sending = nil
	if n.pending != sent {
		_ = sent.Release()
	}
}

// Validate checks the note can be uploaded
func (n *Note) Validate() error {
	err := validation.Errors{
		"title": validation.Validate(strings.TrimSpace(n.title),
			validation.Required,
			validation.Length(1, config.MaxNoteTitleLength),
		),
		"description": validation.Validate(n.description,
			validation.Length(0, config.MaxDescriptionLength),
		),
		"file": validation.Validate(n.fileName, validation.Required),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: note %s: %v", domain.ErrValidation, n.ID(), err)
	}
	return nil
}

func (n *Note) release() {
	if n.pending != nil {
		if n.pending != n.sending {
			_ = n.pending.Release()
		}
		n.pending = nil
	}
}

// NoteList is the course's notes in display order, independent of the
// curriculum tree.
type NoteList struct {
	notes []*Note
}

func NewNoteList() *NoteList {
	return &NoteList{}
}

// Add appends a note
func (nl *NoteList) Add(n *Note) {
	nl.notes = append(nl.notes, n)
}

// Remove destroys a note, releasing its pending file
func (nl *NoteList) Remove(localID uuid.UUID) error {
	for i, n := range nl.notes {
		if n.localID == localID {
			nl.notes = append(nl.notes[:i], nl.notes[i+1:]...)
			n.release()
			return nil
		}
	}
	return &domain.NotFoundError{Message: fmt.Sprintf("note %s not found", localID)}
}

// Find looks a note up by local token or canonical id
func (nl *NoteList) Find(id string) (*Note, error) {
	for _, n := range nl.notes {
		if n.Matches(id) {
			return n, nil
		}
	}
	return nil, &domain.NotFoundError{Message: fmt.Sprintf("note %s not found", id)}
}

// List returns the notes in order
func (nl *NoteList) List() []*Note {
	out := make([]*Note, len(nl.notes))
	copy(out, nl.notes)
	return out
}

func (nl *NoteList) Len() int {
	return len(nl.notes)
}

// Release drops every pending note file
func (nl *NoteList) Release() {
	for _, n := range nl.notes {
		n.release()
	}
}
