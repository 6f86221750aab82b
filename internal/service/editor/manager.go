package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"coursecraft/internal/curriculum"
	"coursecraft/internal/domain"
	"coursecraft/internal/domain/models/course"
	"coursecraft/internal/domain/repositories"
	"coursecraft/internal/domain/services"
	"coursecraft/internal/service/reconcile"
)

// Session is one author's open editor for one course
type Session struct {
	ID       string    `json:"id"`
	CourseID string    `json:"course_id"`
	UserID   string    `json:"-"`
	OpenedAt time.Time `json:"opened_at"`
	Restored bool      `json:"restored"` // loaded from a saved draft

	Controller *reconcile.Controller `json:"-"`
}

type ownerKey struct {
	courseID string
	userID   string
}

// Manager keeps the open editor sessions. Drafts are optional: with a nil
// repository, unsaved edits are lost when a session closes.
type Manager struct {
	api      services.CourseAPI
	drafts   repositories.DraftRepository
	previews *curriculum.PreviewRegistry
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	byOwner  map[ownerKey]*Session
}

// NewManager creates a session manager. Preview URLs start with previewBase.
func NewManager(api services.CourseAPI, drafts repositories.DraftRepository, previewBase string, logger *slog.Logger) *Manager {
	return &Manager{
		api:      api,
		drafts:   drafts,
		previews: curriculum.NewPreviewRegistry(previewBase),
		logger:   logger,
		sessions: make(map[string]*Session),
		byOwner:  make(map[ownerKey]*Session),
	}
}

// Open returns the user's session for a course, creating it if needed. A
// new session starts from the user's saved draft when there is one,
// otherwise from the course as the Course API has it.
func (m *Manager) Open(ctx context.Context, courseID, userID string) (*Session, error) {
	key := ownerKey{courseID: courseID, userID: userID}

	m.mu.Lock()
	if s, ok := m.byOwner[key]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	ws, restored, err := m.load(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         uuid.NewString(),
		CourseID:   courseID,
		UserID:     userID,
		OpenedAt:   time.Now().UTC(),
		Restored:   restored,
		Controller: reconcile.NewController(ws, m.api, m.previews, m.logger),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byOwner[key]; ok {
		// opened concurrently; keep the first
		s.Controller.Close()
		return existing, nil
	}
	m.sessions[s.ID] = s
	m.byOwner[key] = s

	m.logger.Info("editor session opened",
		"session_id", s.ID,
		"course_id", courseID,
		"user_id", userID,
		"restored", restored,
	)
	return s, nil
}

func (m *Manager) load(ctx context.Context, courseID, userID string) (*curriculum.Workspace, bool, error) {
	c, err := m.api.FetchCourse(ctx, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("fetch course %s: %w", courseID, err)
	}
	ws := curriculum.FromCourse(c)

	if m.drafts == nil {
		return ws, false, nil
	}
	draft, err := m.drafts.Get(ctx, courseID, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			m.logger.Warn("failed to load draft", "course_id", courseID, "error", err)
		}
		return ws, false, nil
	}

	var snap curriculum.Snapshot
	if err := json.Unmarshal(draft.Snapshot, &snap); err != nil {
		m.logger.Warn("discarding unreadable draft", "course_id", courseID, "error", err)
		return ws, false, nil
	}
	restored, err := snap.Restore()
	if err != nil {
		m.logger.Warn("discarding invalid draft", "course_id", courseID, "error", err)
		return ws, false, nil
	}
	restored.CourseTitle = c.Title
	return restored, true, nil
}

// Get returns a session owned by userID
func (m *Manager) Get(sessionID, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("editor session %s not found", sessionID)}
	}
	return s, nil
}

// Close ends a session. Unsaved edits are kept as a draft when drafts are
// enabled; a fully saved workspace clears any old draft.
func (m *Manager) Close(ctx context.Context, sessionID, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		m.mu.Unlock()
		return &domain.NotFoundError{Message: fmt.Sprintf("editor session %s not found", sessionID)}
	}
	delete(m.sessions, sessionID)
	delete(m.byOwner, ownerKey{courseID: s.CourseID, userID: s.UserID})
	m.mu.Unlock()

	return m.shutdown(ctx, s)
}

// CloseAll ends every session, saving drafts. Used on server shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.sessions = make(map[string]*Session)
	m.byOwner = make(map[ownerKey]*Session)
	m.mu.Unlock()

	for _, s := range open {
		if err := m.shutdown(ctx, s); err != nil {
			m.logger.Error("failed to close editor session", "session_id", s.ID, "error", err)
		}
	}
}

func (m *Manager) shutdown(ctx context.Context, s *Session) error {
	snap, snapErr := s.Controller.Snapshot()
	s.Controller.Close()
	m.logger.Info("editor session closed", "session_id", s.ID, "course_id", s.CourseID)

	if m.drafts == nil || snapErr != nil {
		return nil
	}
	if !snap.Dirty() {
		return m.drafts.Delete(ctx, s.CourseID, s.UserID)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	return m.drafts.Save(ctx, &course.Draft{CourseID: s.CourseID, UserID: s.UserID, Snapshot: data})
}

// Preview returns the pending file behind a preview token
func (m *Manager) Preview(token string) (curriculum.FileHandle, bool) {
	return m.previews.Lookup(token)
}

// Previews exposes the shared preview registry
func (m *Manager) Previews() *curriculum.PreviewRegistry {
	return m.previews
}

// Count returns the number of open sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CourseProgress maps a learner's completed lessons onto the course
// outline, fetched fresh from the Course API.
func (m *Manager) CourseProgress(ctx context.Context, courseID string, completed []string, currentID string) ([]curriculum.OutlineEntry, curriculum.Progress, error) {
	c, err := m.api.FetchCourse(ctx, courseID)
	if err != nil {
		return nil, curriculum.Progress{}, fmt.Errorf("fetch course %s: %w", courseID, err)
	}
	outline := curriculum.OutlineFromCourse(c)
	return outline, curriculum.MapProgress(outline, completed, currentID), nil
}
