package editor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecraft/internal/curriculum"
	"coursecraft/internal/domain"
	"coursecraft/internal/domain/models/course"
	"coursecraft/internal/domain/services"
)

// courseAPI serves FetchCourse only; the embedded interface panics on
// anything else.
type courseAPI struct {
	services.CourseAPI

	mu      sync.Mutex
	courses map[string]*course.Course
	fetches int
}

func (a *courseAPI) FetchCourse(ctx context.Context, courseID string) (*course.Course, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches++
	c, ok := a.courses[courseID]
	if !ok {
		return nil, &domain.NotFoundError{Message: "course not found"}
	}
	return c, nil
}

type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[string]*course.Draft
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{drafts: map[string]*course.Draft{}}
}

func (m *memoryDrafts) Save(ctx context.Context, d *course.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[d.CourseID+"/"+d.UserID] = d
	return nil
}

func (m *memoryDrafts) Get(ctx context.Context, courseID, userID string) (*course.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[courseID+"/"+userID]
	if !ok {
		return nil, &domain.NotFoundError{Message: "draft not found"}
	}
	return d, nil
}

func (m *memoryDrafts) Delete(ctx context.Context, courseID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, courseID+"/"+userID)
	return nil
}

func (m *memoryDrafts) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts)
}

func newTestManager(drafts *memoryDrafts) (*Manager, *courseAPI) {
	api := &courseAPI{courses: map[string]*course.Course{
		"course-1": {
			ID:    "course-1",
			Title: "Go basics",
			Chapters: []course.Chapter{
				{ID: "ch-1", Title: "Intro", Lessons: []course.Lesson{
					{ID: "ls-1", Title: "Hello", VideoType: "link", VideoURL: "https://videos.example.com/hello"},
					{ID: "ls-2", Title: "Types", VideoType: "link", VideoURL: "https://videos.example.com/types"},
				}},
			},
		},
	}}
	logger := slog.New(slog.DiscardHandler)
	if drafts == nil {
		return NewManager(api, nil, "/previews", logger), api
	}
	return NewManager(api, drafts, "/previews", logger), api
}

func TestManager_OpenReusesSession(t *testing.T) {
	m, api := newTestManager(nil)
	ctx := context.Background()

	s1, err := m.Open(ctx, "course-1", "user-1")
	require.NoError(t, err)
	s2, err := m.Open(ctx, "course-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, s1.ID, s2.ID)
	assert.Equal(t, 1, api.fetches)

	other, err := m.Open(ctx, "course-1", "user-2")
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, other.ID)
	assert.Equal(t, 2, m.Count())
}

func TestManager_OpenUnknownCourse(t *testing.T) {
	m, _ := newTestManager(nil)

	_, err := m.Open(context.Background(), "missing", "user-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, m.Count())
}

func TestManager_GetChecksOwner(t *testing.T) {
	m, _ := newTestManager(nil)
	s, err := m.Open(context.Background(), "course-1", "user-1")
	require.NoError(t, err)

	got, err := m.Get(s.ID, "user-1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get(s.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_CloseSavesDirtyDraft(t *testing.T) {
	drafts := newMemoryDrafts()
	m, _ := newTestManager(drafts)
	ctx := context.Background()

	s, err := m.Open(ctx, "course-1", "user-1")
	require.NoError(t, err)
	assert.False(t, s.Restored)

	require.NoError(t, s.Controller.Edit(func(ws *curriculum.Workspace) error {
		c, err := ws.Tree.FindChapter("ch-1")
		if err != nil {
			return err
		}
		c.Rename("Getting started")
		return nil
	}))

	require.NoError(t, m.Close(ctx, s.ID, "user-1"))
	assert.True(t, s.Controller.Closed())
	require.Equal(t, 1, drafts.Len())

	d, err := drafts.Get(ctx, "course-1", "user-1")
	require.NoError(t, err)
	var snap curriculum.Snapshot
	require.NoError(t, json.Unmarshal(d.Snapshot, &snap))
	assert.True(t, snap.Dirty())

	// reopening picks the draft up again
	s2, err := m.Open(ctx, "course-1", "user-1")
	require.NoError(t, err)
	assert.True(t, s2.Restored)
	assert.NotEqual(t, s.ID, s2.ID)

	var title string
	require.NoError(t, s2.Controller.View(func(ws *curriculum.Workspace) {
		c, err := ws.Tree.FindChapter("ch-1")
		require.NoError(t, err)
		title = c.Title()
		assert.Equal(t, "Go basics", ws.CourseTitle)
	}))
	assert.Equal(t, "Getting started", title)
}

func TestManager_CloseCleanDeletesDraft(t *testing.T) {
	drafts := newMemoryDrafts()
	require.NoError(t, drafts.Save(context.Background(), &course.Draft{
		CourseID: "course-1",
		UserID:   "user-1",
		Snapshot: json.RawMessage(`{"version":99}`),
	}))
	m, _ := newTestManager(drafts)
	ctx := context.Background()

	// an unreadable draft is ignored, not fatal
	s, err := m.Open(ctx, "course-1", "user-1")
	require.NoError(t, err)
	assert.False(t, s.Restored)

	require.NoError(t, m.Close(ctx, s.ID, "user-1"))
	assert.Equal(t, 0, drafts.Len())

	err = m.Close(ctx, s.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_CloseAll(t *testing.T) {
	m, _ := newTestManager(newMemoryDrafts())
	ctx := context.Background()

	a, err := m.Open(ctx, "course-1", "user-1")
	require.NoError(t, err)
	b, err := m.Open(ctx, "course-1", "user-2")
	require.NoError(t, err)

	m.CloseAll(ctx)
	assert.Equal(t, 0, m.Count())
	assert.True(t, a.Controller.Closed())
	assert.True(t, b.Controller.Closed())

	err = a.Controller.Edit(func(*curriculum.Workspace) error { return nil })
	assert.True(t, errors.Is(err, domain.ErrSessionClosed))
}

func TestManager_CourseProgress(t *testing.T) {
	m, _ := newTestManager(nil)

	outline, progress, err := m.CourseProgress(context.Background(), "course-1", []string{"ls-1"}, "")
	require.NoError(t, err)
	require.Len(t, outline, 2)
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, 1, progress.CurrentIndex)
}
