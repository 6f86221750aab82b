package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursecraft/internal/curriculum"
	"coursecraft/internal/domain"
)

var mp4Header = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'm', 'p', '4', '1'}

type fixture struct {
	api      *fakeAPI
	ctrl     *Controller
	previews *curriculum.PreviewRegistry
	chapter  *curriculum.Chapter
	lessons  []*curriculum.Lesson
}

// newFixture builds a course with one chapter holding the named lessons
func newFixture(t *testing.T, lessonTitles ...string) *fixture {
	t.Helper()
	ws := curriculum.NewWorkspace("course-1")
	ch := curriculum.NewChapter("Basics", "")
	require.NoError(t, ws.Tree.AddChapter(ch))

	var lessons []*curriculum.Lesson
	for _, title := range lessonTitles {
		l := curriculum.NewLesson(title)
		require.NoError(t, ws.Tree.AddLesson(ch.LocalID(), l))
		lessons = append(lessons, l)
	}

	api := newFakeAPI()
	previews := curriculum.NewPreviewRegistry("/previews")
	ctrl := NewController(ws, api, previews, slog.New(slog.DiscardHandler))
	t.Cleanup(ctrl.Close)
	return &fixture{api: api, ctrl: ctrl, previews: previews, chapter: ch, lessons: lessons}
}

func (fx *fixture) attach(t *testing.T, l *curriculum.Lesson, name string) *curriculum.MemoryFile {
	t.Helper()
	f := curriculum.NewMemoryFile(name, "video/mp4", mp4Header)
	require.NoError(t, fx.ctrl.Edit(func(*curriculum.Workspace) error {
		return l.AttachVideo(f, fx.previews)
	}))
	return f
}

func TestPersistLesson_ParentNotPersisted(t *testing.T) {
	fx := newFixture(t, "Hello")
	before, err := fx.ctrl.Snapshot()
	require.NoError(t, err)

	err = fx.ctrl.PersistLesson(context.Background(), fx.chapter.LocalID(), fx.lessons[0].LocalID())

	require.ErrorIs(t, err, domain.ErrParentNotPersisted)
	assert.Empty(t, fx.api.Calls(), "no request may be sent")
	after, err := fx.ctrl.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, curriculum.StateLocal, fx.lessons[0].State())
}

func TestPersistChapter_CreateThenUpdate(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.ctrl.PersistChapter(ctx, fx.chapter.LocalID()))
	assert.Equal(t, "ch-1", fx.chapter.CanonicalID())
	assert.Equal(t, curriculum.StatePersisted, fx.chapter.State())
	assert.False(t, fx.chapter.Dirty())

	require.NoError(t, fx.ctrl.Edit(func(*curriculum.Workspace) error {
		fx.chapter.Rename("Basics, revised")
		return nil
	}))
	require.NoError(t, fx.ctrl.PersistChapter(ctx, fx.chapter.LocalID()))

	assert.Equal(t, []string{"CreateChapter", "UpdateChapter"}, fx.api.Calls())
	assert.Equal(t, "ch-1", fx.chapter.CanonicalID())
	assert.False(t, fx.chapter.Dirty())
}

func TestPersistChapter_Failure(t *testing.T) {
	fx := newFixture(t)
	cause := errors.New("connection reset")
	fx.api.chapterErrs["Basics"] = cause

	err := fx.ctrl.PersistChapter(context.Background(), fx.chapter.LocalID())

	require.ErrorIs(t, err, domain.ErrPersistenceFailed)
	require.ErrorIs(t, err, cause)
	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "chapter", perr.Entity)
	assert.Equal(t, curriculum.StateLocal, fx.chapter.State())
	assert.False(t, fx.chapter.IsPersisted())
}

func TestPersistChapter_Validation(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.ctrl.Edit(func(*curriculum.Workspace) error {
		fx.chapter.Rename("   ")
		return nil
	}))

	err := fx.ctrl.PersistChapter(context.Background(), fx.chapter.LocalID())
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, fx.api.Calls())
}

func TestPersistLesson_CreateWithUpload(t *testing.T) {
	fx := newFixture(t, "Hello")
	ctx := context.Background()
	l := fx.lessons[0]
	f := fx.attach(t, l, "hello.mp4")
	require.Equal(t, 1, fx.previews.Live())

	require.NoError(t, fx.ctrl.PersistChapter(ctx, fx.chapter.LocalID()))
	require.NoError(t, fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID()))

	assert.Equal(t, []string{"CreateChapter", "CreateLesson"}, fx.api.Calls())
	assert.True(t, l.IsPersisted())
	assert.Equal(t, "https://cdn.example.com/hello.mp4", l.Video().URL)
	assert.Nil(t, l.Video().PendingFile)
	assert.True(t, f.Released())
	assert.Zero(t, fx.previews.Live())
	assert.False(t, l.Dirty())
}

func TestPersistLesson_UpdateUploadsFirst(t *testing.T) {
	fx := newFixture(t, "Hello")
	ctx := context.Background()
	l := fx.lessons[0]

	require.NoError(t, fx.ctrl.PersistChapter(ctx, fx.chapter.LocalID()))
	require.NoError(t, fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID()))
	fx.attach(t, l, "v2.mp4")
	require.NoError(t, fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID()))

	assert.Equal(t, []string{"CreateChapter", "CreateLesson", "UploadVideo", "UpdateLesson"}, fx.api.Calls())
	assert.Equal(t, "https://cdn.example.com/up/v2.mp4", fx.api.lastLesson.VideoURL)
	assert.Equal(t, "https://cdn.example.com/up/v2.mp4", l.Video().URL)
	assert.False(t, l.Dirty())
}

func TestPersistLesson_KeepsEditsMadeDuringRequest(t *testing.T) {
	fx := newFixture(t, "Hello")
	ctx := context.Background()
	l := fx.lessons[0]
	require.NoError(t, fx.ctrl.PersistChapter(ctx, fx.chapter.LocalID()))
	require.NoError(t, fx.ctrl.Edit(func(*curriculum.Workspace) error {
		if _, err := l.AddTimestamp("0:10", "A", ""); err != nil {
			return err
		}
		_, err := l.AddTimestamp("0:50", "B", "")
		return err
	}))

	fx.api.started = make(chan struct{})
	fx.api.release = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID())
	}()
	<-fx.api.started

	// the request is in flight; the editor stays usable
	require.NoError(t, fx.ctrl.Edit(func(*curriculum.Workspace) error {
		l.Rename("Hello, world")
		_, err := l.AddTimestamp("0:30", "C", "")
		return err
	}))
	err := fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID())
	require.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(fx.api.release)
	require.NoError(t, <-done)

	var titles []string
	for _, ts := range l.Timestamps() {
		titles = append(titles, ts.Title)
	}
	assert.Equal(t, []string{"A", "C", "B"}, titles)
	assert.Equal(t, "Hello, world", l.Title())
	assert.Equal(t, "Hello", fx.api.lastLesson.Title, "request carried the title at send time")
	assert.True(t, l.IsPersisted())
	assert.True(t, l.Dirty(), "edits made during the request still need saving")
}

func TestPersistLesson_LateResponseAfterClose(t *testing.T) {
	fx := newFixture(t, "Hello")
	ctx := context.Background()
	l := fx.lessons[0]
	require.NoError(t, fx.ctrl.PersistChapter(ctx, fx.chapter.LocalID()))
	f := fx.attach(t, l, "hello.mp4")

	fx.api.started = make(chan struct{})
	fx.api.release = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID())
	}()
	<-fx.api.started

	fx.ctrl.Close()
	assert.Zero(t, fx.previews.Live(), "close must release previews while the request is outstanding")
	assert.False(t, f.Released(), "the request still reads the file")

	close(fx.api.release)
	select {
	case err := <-done:
		require.ErrorIs(t, err, domain.ErrSessionClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("PersistLesson did not return")
	}
	assert.True(t, f.Released(), "file released once the dropped request returned")
	assert.False(t, l.IsPersisted(), "closed editor must not be mutated")
	assert.ErrorIs(t, fx.ctrl.Edit(func(*curriculum.Workspace) error { return nil }), domain.ErrSessionClosed)
}

func TestPersistLesson_FailureLeavesLocal(t *testing.T) {
	fx := newFixture(t, "Broken")
	ctx := context.Background()
	l := fx.lessons[0]
	f := fx.attach(t, l, "b.mp4")
	fx.api.lessonErrs["Broken"] = errors.New("500 from server")
	require.NoError(t, fx.ctrl.PersistChapter(ctx, fx.chapter.LocalID()))

	err := fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID())

	require.ErrorIs(t, err, domain.ErrPersistenceFailed)
	assert.Equal(t, curriculum.StateLocal, l.State())
	assert.Equal(t, curriculum.FileHandle(f), l.Video().PendingFile, "file kept for a retry")
	assert.False(t, f.Released())
}

func TestPersistAll_PartialFailure(t *testing.T) {
	fx := newFixture(t, "One", "Broken", "Three")
	fx.api.lessonErrs["Broken"] = errors.New("timeout")

	var second, third *curriculum.Chapter
	require.NoError(t, fx.ctrl.Edit(func(ws *curriculum.Workspace) error {
		second = curriculum.NewChapter("Failing", "")
		third = curriculum.NewChapter("Never", "")
		second.AddLesson(curriculum.NewLesson("Unreached"))
		third.AddLesson(curriculum.NewLesson("Unreached too"))
		if err := ws.Tree.AddChapter(second); err != nil {
			return err
		}
		return ws.Tree.AddChapter(third)
	}))
	fx.api.chapterErrs["Failing"] = errors.New("boom")

	report, err := fx.ctrl.PersistAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Chapters)
	assert.Equal(t, 2, report.Lessons)
	assert.True(t, report.Stopped)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "lesson", report.Failures[0].Entity)
	assert.Equal(t, fx.lessons[1].LocalID(), report.Failures[0].LocalID)
	assert.Equal(t, "chapter", report.Failures[1].Entity)
	assert.Equal(t, second.LocalID(), report.Failures[1].LocalID)

	assert.Equal(t, []string{"CreateChapter", "CreateLesson", "CreateLesson", "CreateLesson", "CreateChapter"}, fx.api.Calls())
	assert.False(t, third.IsPersisted())
	assert.True(t, fx.lessons[2].IsPersisted())
}

func TestPersistAll_SkipsCleanEntities(t *testing.T) {
	fx := newFixture(t, "One")
	ctx := context.Background()

	_, err := fx.ctrl.PersistAll(ctx)
	require.NoError(t, err)
	calls := len(fx.api.Calls())

	report, err := fx.ctrl.PersistAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, len(fx.api.Calls()), "nothing to send")
	assert.Equal(t, 2, report.Skipped)
	assert.True(t, report.OK())
}

func TestDeleteLesson(t *testing.T) {
	fx := newFixture(t, "Keep", "Drop")
	ctx := context.Background()
	_, err := fx.ctrl.PersistAll(ctx)
	require.NoError(t, err)
	drop := fx.lessons[1]

	fx.api.deleteErr = errors.New("unavailable")
	err = fx.ctrl.DeleteLesson(ctx, fx.chapter.LocalID(), drop.LocalID())
	require.ErrorIs(t, err, domain.ErrPersistenceFailed)
	assert.Equal(t, 2, fx.chapter.LessonCount(), "lesson kept when the server delete fails")

	fx.api.deleteErr = nil
	require.NoError(t, fx.ctrl.DeleteLesson(ctx, fx.chapter.LocalID(), drop.LocalID()))
	assert.Equal(t, 1, fx.chapter.LessonCount())

	err = fx.ctrl.DeleteLesson(ctx, fx.chapter.LocalID(), drop.LocalID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteLesson_LocalOnly(t *testing.T) {
	fx := newFixture(t, "Draft")
	f := fx.attach(t, fx.lessons[0], "d.mp4")

	require.NoError(t, fx.ctrl.DeleteLesson(context.Background(), fx.chapter.LocalID(), fx.lessons[0].LocalID()))

	assert.Empty(t, fx.api.Calls())
	assert.True(t, f.Released())
	assert.Zero(t, fx.previews.Live())
}

func TestUploadLessonVideo(t *testing.T) {
	fx := newFixture(t, "Draft")
	l := fx.lessons[0]

	_, err := fx.ctrl.UploadLessonVideo(context.Background(), l.LocalID())
	require.ErrorIs(t, err, domain.ErrInvalidFile)

	fx.attach(t, l, "early.mp4")
	url, err := fx.ctrl.UploadLessonVideo(context.Background(), l.LocalID())
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/up/early.mp4", url)
	assert.Equal(t, url, l.Video().URL)
	assert.False(t, l.IsPersisted(), "uploading the video does not save the lesson")
}

// startBlocked runs fn in the background and waits until the fake API is
// holding its request
func (fx *fixture) startBlocked(fn func() error) <-chan error {
	fx.api.started = make(chan struct{})
	fx.api.release = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- fn() }()
	<-fx.api.started
	return done
}

func TestDeleteLesson_RefusedWhileCreating(t *testing.T) {
	fx := newFixture(t, "Intro")
	ctx := context.Background()
	l := fx.lessons[0]
	require.NoError(t, fx.ctrl.PersistChapter(ctx, fx.chapter.LocalID()))

	done := fx.startBlocked(func() error {
		return fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID())
	})

	err := fx.ctrl.DeleteLesson(ctx, fx.chapter.LocalID(), l.LocalID())
	require.ErrorIs(t, err, domain.ErrSyncInProgress)
	assert.Equal(t, 1, fx.chapter.LessonCount())

	close(fx.api.release)
	require.NoError(t, <-done)
	require.True(t, l.IsPersisted())

	// once the create landed the lesson can be deleted on the server
	require.NoError(t, fx.ctrl.DeleteLesson(ctx, fx.chapter.LocalID(), l.LocalID()))
	assert.Equal(t, []string{"CreateChapter", "CreateLesson", "DeleteLesson"}, fx.api.Calls())
	assert.Zero(t, fx.chapter.LessonCount())
}

func TestRemoveChapter_RefusedWhileLessonUploads(t *testing.T) {
	fx := newFixture(t, "Draft")
	ctx := context.Background()
	l := fx.lessons[0]
	fx.attach(t, l, "early.mp4")

	done := fx.startBlocked(func() error {
		_, err := fx.ctrl.UploadLessonVideo(ctx, l.LocalID())
		return err
	})

	require.ErrorIs(t, fx.ctrl.RemoveChapter(fx.chapter.LocalID()), domain.ErrSyncInProgress)
	require.ErrorIs(t, fx.ctrl.DeleteLesson(ctx, fx.chapter.LocalID(), l.LocalID()), domain.ErrSyncInProgress)

	close(fx.api.release)
	require.NoError(t, <-done)
	require.NoError(t, fx.ctrl.RemoveChapter(fx.chapter.LocalID()))
}

func TestPersistLesson_ReattachDuringUpload(t *testing.T) {
	fx := newFixture(t, "Intro")
	ctx := context.Background()
	l := fx.lessons[0]
	require.NoError(t, fx.ctrl.PersistChapter(ctx, fx.chapter.LocalID()))
	sent := fx.attach(t, l, "a.mp4")

	done := fx.startBlocked(func() error {
		return fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID())
	})

	newer := fx.attach(t, l, "b.mp4")
	assert.False(t, sent.Released(), "file being uploaded must stay readable")

	close(fx.api.release)
	require.NoError(t, <-done)

	assert.True(t, sent.Released(), "replaced file released after the response")
	assert.Equal(t, curriculum.FileHandle(newer), l.Video().PendingFile)
	assert.False(t, newer.Released())
	assert.Empty(t, l.Video().URL, "stale upload URL not applied")
	assert.True(t, l.Dirty())
}

func TestMoveLesson_SavedLessonKeepsChapter(t *testing.T) {
	fx := newFixture(t, "Intro")
	ctx := context.Background()
	var other *curriculum.Chapter
	require.NoError(t, fx.ctrl.Edit(func(ws *curriculum.Workspace) error {
		other = curriculum.NewChapter("Advanced", "")
		return ws.Tree.AddChapter(other)
	}))
	_, err := fx.ctrl.PersistAll(ctx)
	require.NoError(t, err)

	l := fx.lessons[0]
	err = fx.ctrl.Edit(func(ws *curriculum.Workspace) error {
		return ws.Tree.MoveLesson(fx.chapter.LocalID(), other.LocalID(), l.LocalID(), 0)
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, fx.chapter.LessonCount())
	assert.Zero(t, other.LessonCount())

	// updates still address the chapter the server knows
	require.NoError(t, fx.ctrl.Edit(func(*curriculum.Workspace) error {
		l.Rename("Intro, revised")
		return nil
	}))
	require.NoError(t, fx.ctrl.PersistLesson(ctx, fx.chapter.LocalID(), l.LocalID()))
	assert.Equal(t, "Intro, revised", fx.api.lastLesson.Title)
}

func TestRemoveChapter(t *testing.T) {
	fx := newFixture(t, "One")
	require.NoError(t, fx.ctrl.PersistChapter(context.Background(), fx.chapter.LocalID()))
	assert.ErrorIs(t, fx.ctrl.RemoveChapter(fx.chapter.LocalID()), domain.ErrValidation)

	var draft *curriculum.Chapter
	require.NoError(t, fx.ctrl.Edit(func(ws *curriculum.Workspace) error {
		draft = curriculum.NewChapter("Draft", "")
		return ws.Tree.AddChapter(draft)
	}))
	require.NoError(t, fx.ctrl.RemoveChapter(draft.LocalID()))
	assert.ErrorIs(t, fx.ctrl.RemoveChapter(uuid.New()), domain.ErrNotFound)
}

func TestNotes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	f := curriculum.NewMemoryFile("slides.pdf", "application/pdf", []byte("%PDF"))

	id, err := fx.ctrl.CreateNote(ctx, "Slides", "week 1", f)
	require.NoError(t, err)
	assert.True(t, f.Released())

	var n *curriculum.Note
	require.NoError(t, fx.ctrl.View(func(ws *curriculum.Workspace) {
		n, err = ws.Notes.Find(id.String())
	}))
	require.NoError(t, err)
	assert.Equal(t, "note-1", n.CanonicalID())
	assert.Equal(t, "https://files.example.com/slides.pdf", n.FileURL())

	require.NoError(t, fx.ctrl.Edit(func(*curriculum.Workspace) error {
		n.Rename("Slides v2")
		return nil
	}))
	require.NoError(t, fx.ctrl.PersistNote(ctx, id))
	assert.Equal(t, "slides.pdf", n.FileName(), "metadata update keeps the file")

	fx.api.noteErr = errors.New("gone")
	require.ErrorIs(t, fx.ctrl.DeleteNote(ctx, id), domain.ErrPersistenceFailed)
	fx.api.noteErr = nil
	require.NoError(t, fx.ctrl.DeleteNote(ctx, id))

	assert.Equal(t, []string{"CreateNote", "UpdateNote", "DeleteNote", "DeleteNote"}, fx.api.Calls())
}

func TestCreateNote_FailureKeepsPendingNote(t *testing.T) {
	fx := newFixture(t)
	fx.api.noteErr = errors.New("offline")
	f := curriculum.NewMemoryFile("a.pdf", "application/pdf", []byte("x"))

	id, err := fx.ctrl.CreateNote(context.Background(), "A", "", f)
	require.ErrorIs(t, err, domain.ErrPersistenceFailed)
	require.NotEqual(t, uuid.Nil, id)
	assert.False(t, f.Released())

	fx.api.noteErr = nil
	report, err := fx.ctrl.PersistAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Notes)
	assert.True(t, f.Released())
}
