package handler

import (
	"net/http"

	"github.com/google/uuid"

	"coursecraft/internal/config"
	"coursecraft/internal/curriculum"
	"coursecraft/internal/service/editor"
)

// CreateNote uploads a new course note. Multipart fields: title,
// description and file. A failed upload keeps the note as pending.
// POST /api/sessions/{session}/notes
func (h *EditorHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	upload, err := h.readUpload(w, r, "file", config.MaxNoteFileSize)
	if err != nil {
		handleError(w, err)
		return
	}

	id, err := s.Controller.CreateNote(r.Context(), upload.Fields["title"], upload.Fields["description"], upload.File)
	if err != nil {
		if id == uuid.Nil {
			// never added; nobody else owns the file
			_ = upload.File.Release()
		}
		handleError(w, err)
		return
	}
	h.respondCreated(w, s, id)
}

// UpdateNote edits a note's title or description locally
// PATCH /api/sessions/{session}/notes/{note}
func (h *EditorHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	s, noteID, ok := h.notePath(w, r)
	if !ok {
		return
	}

	req := updateRequest{titleLimit: config.MaxNoteTitleLength}
	if !decodeRequest(w, r, &req) {
		return
	}

	h.edit(w, s, func(ws *curriculum.Workspace) error {
		n, err := ws.Notes.Find(noteID.String())
		if err != nil {
			return err
		}
		if v, ok := req.Title.Get(); ok {
			n.Rename(v)
		}
		if v, ok := req.Description.Get(); ok {
			n.SetDescription(v)
		}
		return nil
	})
}

// ReplaceNoteFile swaps the note's attachment; sent on the next persist
// PUT /api/sessions/{session}/notes/{note}/file
func (h *EditorHandler) ReplaceNoteFile(w http.ResponseWriter, r *http.Request) {
	s, noteID, ok := h.notePath(w, r)
	if !ok {
		return
	}

	upload, err := h.readUpload(w, r, "file", config.MaxNoteFileSize)
	if err != nil {
		handleError(w, err)
		return
	}

	err = s.Controller.Edit(func(ws *curriculum.Workspace) error {
		n, err := ws.Notes.Find(noteID.String())
		if err != nil {
			return err
		}
		return n.ReplaceFile(upload.File)
	})
	if err != nil {
		_ = upload.File.Release()
		handleError(w, err)
		return
	}
	h.respondWorkspace(w, http.StatusOK, s)
}

// PersistNote creates or updates the note on the Course API
// POST /api/sessions/{session}/notes/{note}/persist
func (h *EditorHandler) PersistNote(w http.ResponseWriter, r *http.Request) {
	s, noteID, ok := h.notePath(w, r)
	if !ok {
		return
	}

	if err := s.Controller.PersistNote(r.Context(), noteID); err != nil {
		handleError(w, err)
		return
	}
	h.respondWorkspace(w, http.StatusOK, s)
}

// DeleteNote removes a note, remotely first when it was saved
// DELETE /api/sessions/{session}/notes/{note}
func (h *EditorHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	s, noteID, ok := h.notePath(w, r)
	if !ok {
		return
	}

	if err := s.Controller.DeleteNote(r.Context(), noteID); err != nil {
		handleError(w, err)
		return
	}
	h.respondWorkspace(w, http.StatusOK, s)
}

func (h *EditorHandler) notePath(w http.ResponseWriter, r *http.Request) (*editor.Session, uuid.UUID, bool) {
	s, ok := h.session(w, r)
	if !ok {
		return nil, uuid.Nil, false
	}
	noteID, ok := PathUUID(w, r, "note", "Note ID")
	if !ok {
		return nil, uuid.Nil, false
	}
	return s, noteID, true
}
