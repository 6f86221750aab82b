package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"coursecraft/internal/curriculum"
	"coursecraft/internal/httputil"
	"coursecraft/internal/mediatypes"
	"coursecraft/internal/service/editor"
)

// EditorHandler serves the course editor. Nodes are addressed by their
// local ids, which stay stable across saves.
type EditorHandler struct {
	manager  *editor.Manager
	formats  *mediatypes.Registry
	spoolDir string
	logger   *slog.Logger
}

// NewEditorHandler creates a new editor handler. Uploaded files are spooled
// under spoolDir until they are sent to the Course API.
func NewEditorHandler(manager *editor.Manager, formats *mediatypes.Registry, spoolDir string, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{
		manager:  manager,
		formats:  formats,
		spoolDir: spoolDir,
		logger:   logger,
	}
}

// HealthCheck reports liveness and the number of open sessions
// GET /health
func (h *EditorHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.manager.Count(),
	})
}

// OpenSession opens (or returns) the caller's editor for a course
// POST /api/courses/{course}/sessions
func (h *EditorHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	courseID, ok := PathParam(w, r, "course", "Course ID")
	if !ok {
		return
	}
	httputil.NoteSession(r, "", courseID)

	s, err := h.manager.Open(r.Context(), courseID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return
	}
	snap, err := s.Controller.Snapshot()
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, sessionResponse{Session: s, Workspace: snap})
}

// GetSession returns the session's workspace
// GET /api/sessions/{session}
func (h *EditorHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap, err := s.Controller.Snapshot()
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, sessionResponse{Session: s, Workspace: snap})
}

// CloseSession ends the session, keeping unsaved edits as a draft
// DELETE /api/sessions/{session}
func (h *EditorHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := PathParam(w, r, "session", "Session ID")
	if !ok {
		return
	}
	if err := h.manager.Close(r.Context(), sessionID, httputil.GetUserID(r)); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondNoContent(w)
}

// PersistAll saves every unsaved chapter, lesson and note in order
// POST /api/sessions/{session}/persist
func (h *EditorHandler) PersistAll(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	report, err := s.Controller.PersistAll(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	if !report.OK() {
		h.logger.Warn("persist all finished with failures",
			"session_id", s.ID,
			"failures", len(report.Failures),
			"stopped", report.Stopped,
		)
	}

	snap, err := s.Controller.Snapshot()
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, persistAllResponse{Report: report, Workspace: snap})
}

// GetOutline flattens the workspace into playback order
// GET /api/sessions/{session}/outline
func (h *EditorHandler) GetOutline(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var outline []curriculum.OutlineEntry
	if err := s.Controller.View(func(ws *curriculum.Workspace) {
		outline = ws.Tree.Outline()
	}); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, outline)
}

// GetProgress maps a learner's completed lessons onto the saved course.
// Repeat ?completed= for each lesson id; ?current= pins the current lesson.
// GET /api/courses/{course}/progress
func (h *EditorHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	courseID, ok := PathParam(w, r, "course", "Course ID")
	if !ok {
		return
	}
	q := r.URL.Query()

	outline, progress, err := h.manager.CourseProgress(r.Context(), courseID, q["completed"], q.Get("current"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, progressResponse{Outline: outline, Progress: progress})
}

// session resolves the {session} path parameter for the caller
func (h *EditorHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	sessionID, ok := PathParam(w, r, "session", "Session ID")
	if !ok {
		return nil, false
	}
	s, err := h.manager.Get(sessionID, httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	httputil.NoteSession(r, s.ID, s.CourseID)
	return s, true
}

// edit applies fn and answers with the updated workspace
func (h *EditorHandler) edit(w http.ResponseWriter, s *editor.Session, fn func(ws *curriculum.Workspace) error) {
	if err := s.Controller.Edit(fn); err != nil {
		handleError(w, err)
		return
	}
	h.respondWorkspace(w, http.StatusOK, s)
}

func (h *EditorHandler) respondWorkspace(w http.ResponseWriter, status int, s *editor.Session) {
	snap, err := s.Controller.Snapshot()
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, status, snap)
}

func (h *EditorHandler) respondCreated(w http.ResponseWriter, s *editor.Session, id uuid.UUID) {
	snap, err := s.Controller.Snapshot()
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, createdResponse{ID: id, Workspace: snap})
}
