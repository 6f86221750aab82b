package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"coursecraft/internal/config"
	"coursecraft/internal/curriculum"
	"coursecraft/internal/domain"
	"coursecraft/internal/httputil"
	"coursecraft/internal/service/editor"
)

// CreateChapter appends a local chapter
// POST /api/sessions/{session}/chapters
func (h *EditorHandler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req chapterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	c := curriculum.NewChapter(req.Title, req.Description)
	if err := s.Controller.Edit(func(ws *curriculum.Workspace) error {
		return ws.Tree.AddChapter(c)
	}); err != nil {
		handleError(w, err)
		return
	}
	h.respondCreated(w, s, c.LocalID())
}

// UpdateChapter edits a chapter's title or description
// PATCH /api/sessions/{session}/chapters/{chapter}
func (h *EditorHandler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	chapterID, ok := PathUUID(w, r, "chapter", "Chapter ID")
	if !ok {
		return
	}

	req := updateRequest{titleLimit: config.MaxChapterTitleLength}
	if !decodeRequest(w, r, &req) {
		return
	}

	h.edit(w, s, func(ws *curriculum.Workspace) error {
		c, err := ws.Tree.Chapter(chapterID)
		if err != nil {
			return err
		}
		if v, ok := req.Title.Get(); ok {
			c.Rename(v)
		}
		if v, ok := req.Description.Get(); ok {
			c.SetDescription(v)
		}
		return nil
	})
}

// DeleteChapter removes a chapter that was never saved
// DELETE /api/sessions/{session}/chapters/{chapter}
func (h *EditorHandler) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	chapterID, ok := PathUUID(w, r, "chapter", "Chapter ID")
	if !ok {
		return
	}

	if err := s.Controller.RemoveChapter(chapterID); err != nil {
		handleError(w, err)
		return
	}
	h.respondWorkspace(w, http.StatusOK, s)
}

// MoveChapter reorders a chapter
// POST /api/sessions/{session}/chapters/{chapter}/move
func (h *EditorHandler) MoveChapter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	chapterID, ok := PathUUID(w, r, "chapter", "Chapter ID")
	if !ok {
		return
	}

	var req moveRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	h.edit(w, s, func(ws *curriculum.Workspace) error {
		return ws.Tree.MoveChapter(chapterID, *req.Position)
	})
}

// PersistChapter creates or updates the chapter on the Course API
// POST /api/sessions/{session}/chapters/{chapter}/persist
func (h *EditorHandler) PersistChapter(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	chapterID, ok := PathUUID(w, r, "chapter", "Chapter ID")
	if !ok {
		return
	}

	if err := s.Controller.PersistChapter(r.Context(), chapterID); err != nil {
		handleError(w, err)
		return
	}
	h.respondWorkspace(w, http.StatusOK, s)
}

// CreateLesson appends a local lesson to a chapter
// POST /api/sessions/{session}/chapters/{chapter}/lessons
func (h *EditorHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	chapterID, ok := PathUUID(w, r, "chapter", "Chapter ID")
	if !ok {
		return
	}

	var req createLessonRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	l := curriculum.NewLesson(req.Title)
	l.SetDescription(req.Description)
	l.SetDuration(req.Duration)
	if req.VideoKind != "" {
		kind, err := curriculum.ParseVideoKind(req.VideoKind)
		if err != nil {
			handleError(w, err)
			return
		}
		if err := l.SetVideoKind(kind); err != nil {
			handleError(w, err)
			return
		}
	}

	if err := s.Controller.Edit(func(ws *curriculum.Workspace) error {
		return ws.Tree.AddLesson(chapterID, l)
	}); err != nil {
		handleError(w, err)
		return
	}
	h.respondCreated(w, s, l.LocalID())
}

// UpdateLesson edits a lesson's title, description or duration
// PATCH /api/sessions/{session}/chapters/{chapter}/lessons/{lesson}
func (h *EditorHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	s, chapterID, lessonID, ok := h.lessonPath(w, r)
	if !ok {
		return
	}

	req := updateRequest{titleLimit: config.MaxLessonTitleLength}
	if !decodeRequest(w, r, &req) {
		return
	}

	h.edit(w, s, func(ws *curriculum.Workspace) error {
		l, err := lessonIn(ws, chapterID, lessonID)
		if err != nil {
			return err
		}
		if v, ok := req.Title.Get(); ok {
			l.Rename(v)
		}
		if v, ok := req.Description.Get(); ok {
			l.SetDescription(v)
		}
		if v, ok := req.Duration.Get(); ok {
			l.SetDuration(v)
		}
		return nil
	})
}

// DeleteLesson removes a lesson, deleting it on the Course API first when
// it was saved
// DELETE /api/sessions/{session}/chapters/{chapter}/lessons/{lesson}
func (h *EditorHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	s, chapterID, lessonID, ok := h.lessonPath(w, r)
	if !ok {
		return
	}

	if err := s.Controller.DeleteLesson(r.Context(), chapterID, lessonID); err != nil {
		handleError(w, err)
		return
	}
	h.respondWorkspace(w, http.StatusOK, s)
}

// MoveLesson reorders a lesson, optionally into another chapter
// POST /api/sessions/{session}/chapters/{chapter}/lessons/{lesson}/move
func (h *EditorHandler) MoveLesson(w http.ResponseWriter, r *http.Request) {
	s, chapterID, lessonID, ok := h.lessonPath(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	to := chapterID
	if req.ChapterID != nil {
		to = *req.ChapterID
	}

	h.edit(w, s, func(ws *curriculum.Workspace) error {
		return ws.Tree.MoveLesson(chapterID, to, lessonID, *req.Position)
	})
}

// PersistLesson creates or updates the lesson, uploading a pending video
// POST /api/sessions/{session}/chapters/{chapter}/lessons/{lesson}/persist
func (h *EditorHandler) PersistLesson(w http.ResponseWriter, r *http.Request) {
	s, chapterID, lessonID, ok := h.lessonPath(w, r)
	if !ok {
		return
	}

	if err := s.Controller.PersistLesson(r.Context(), chapterID, lessonID); err != nil {
		handleError(w, err)
		return
	}
	h.respondWorkspace(w, http.StatusOK, s)
}

// AddTimestamp adds a marker; the list stays sorted by time
// POST /api/sessions/{session}/chapters/{chapter}/lessons/{lesson}/timestamps
func (h *EditorHandler) AddTimestamp(w http.ResponseWriter, r *http.Request) {
	s, chapterID, lessonID, ok := h.lessonPath(w, r)
	if !ok {
		return
	}

	var req timestampRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	var added curriculum.Timestamp
	if err := s.Controller.Edit(func(ws *curriculum.Workspace) error {
		l, err := lessonIn(ws, chapterID, lessonID)
		if err != nil {
			return err
		}
		added, err = l.AddTimestamp(req.Time, req.Title, req.Description)
		return err
	}); err != nil {
		handleError(w, err)
		return
	}

	snap, err := s.Controller.Snapshot()
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, timestampResponse{Timestamp: added, Workspace: snap})
}

// RemoveTimestamp deletes the marker at a position in the sorted list
// DELETE /api/sessions/{session}/chapters/{chapter}/lessons/{lesson}/timestamps/{index}
func (h *EditorHandler) RemoveTimestamp(w http.ResponseWriter, r *http.Request) {
	s, chapterID, lessonID, ok := h.lessonPath(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Timestamp index must be a number")
		return
	}

	h.edit(w, s, func(ws *curriculum.Workspace) error {
		l, err := lessonIn(ws, chapterID, lessonID)
		if err != nil {
			return err
		}
		return l.RemoveTimestamp(index)
	})
}

// lessonPath resolves the session, chapter and lesson path parameters
func (h *EditorHandler) lessonPath(w http.ResponseWriter, r *http.Request) (s *editor.Session, chapterID, lessonID uuid.UUID, ok bool) {
	if s, ok = h.session(w, r); !ok {
		return nil, uuid.Nil, uuid.Nil, false
	}
	if chapterID, ok = PathUUID(w, r, "chapter", "Chapter ID"); !ok {
		return nil, uuid.Nil, uuid.Nil, false
	}
	if lessonID, ok = PathUUID(w, r, "lesson", "Lesson ID"); !ok {
		return nil, uuid.Nil, uuid.Nil, false
	}
	return s, chapterID, lessonID, true
}

// lessonIn finds a lesson and checks it belongs to chapterID
func lessonIn(ws *curriculum.Workspace, chapterID, lessonID uuid.UUID) (*curriculum.Lesson, error) {
	c, l, err := ws.Tree.FindLesson(lessonID.String())
	if err != nil {
		return nil, err
	}
	if c.LocalID() != chapterID {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("lesson %s not found in chapter %s", lessonID, chapterID)}
	}
	return l, nil
}
