package reconcile

import (
	"context"
	"fmt"
	"sync"

	"coursecraft/internal/domain/models/course"
	"coursecraft/internal/domain/services"
)

// fakeAPI is an in-memory Course API that records every call
type fakeAPI struct {
	mu     sync.Mutex
	calls  []string
	nextID int

	chapterErrs map[string]error // by chapter title
	lessonErrs  map[string]error // by lesson title
	deleteErr   error
	noteErr     error

	// when set, lesson create/update and video uploads announce themselves
	// on started and wait for release before answering
	started chan struct{}
	release chan struct{}

	lastLesson course.LessonInput
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{chapterErrs: map[string]error{}, lessonErrs: map[string]error{}}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) id(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) wait(ctx context.Context) error {
	if f.started == nil {
		return nil
	}
	f.started <- struct{}{}
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) FetchCourse(ctx context.Context, courseID string) (*course.Course, error) {
	f.record("FetchCourse")
	return &course.Course{ID: courseID}, nil
}

func (f *fakeAPI) CreateChapter(ctx context.Context, courseID string, in course.ChapterInput) (string, error) {
	f.record("CreateChapter")
	if err := f.chapterErrs[in.Title]; err != nil {
		return "", err
	}
	return f.id("ch"), nil
}

func (f *fakeAPI) UpdateChapter(ctx context.Context, courseID, chapterID string, in course.ChapterInput) error {
	f.record("UpdateChapter")
	return f.chapterErrs[in.Title]
}

func (f *fakeAPI) CreateLesson(ctx context.Context, courseID, chapterID string, in course.LessonInput, video services.UploadFile) (*course.LessonResult, error) {
	f.record("CreateLesson")
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastLesson = in
	f.mu.Unlock()
	if err := f.lessonErrs[in.Title]; err != nil {
		return nil, err
	}
	res := &course.LessonResult{LessonID: f.id("ls")}
	if video != nil {
		res.VideoURL = "https://cdn.example.com/" + video.Name()
	}
	return res, nil
}

func (f *fakeAPI) UpdateLesson(ctx context.Context, courseID, chapterID, lessonID string, in course.LessonInput) (*course.LessonResult, error) {
	f.record("UpdateLesson")
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lastLesson = in
	f.mu.Unlock()
	if err := f.lessonErrs[in.Title]; err != nil {
		return nil, err
	}
	return &course.LessonResult{LessonID: lessonID}, nil
}

func (f *fakeAPI) DeleteLesson(ctx context.Context, courseID, chapterID, lessonID string) error {
	f.record("DeleteLesson")
	return f.deleteErr
}

func (f *fakeAPI) CreateNote(ctx context.Context, courseID string, in course.NoteInput, file services.UploadFile) (*course.Note, error) {
	f.record("CreateNote")
	if f.noteErr != nil {
		return nil, f.noteErr
	}
	return &course.Note{ID: f.id("note"), Title: in.Title, FileName: file.Name(), FileSize: file.Size(), FileURL: "https://files.example.com/" + file.Name()}, nil
}

func (f *fakeAPI) UpdateNote(ctx context.Context, courseID, noteID string, in course.NoteInput, file services.UploadFile) (*course.Note, error) {
	f.record("UpdateNote")
	if f.noteErr != nil {
		return nil, f.noteErr
	}
	return &course.Note{ID: noteID, Title: in.Title}, nil
}

func (f *fakeAPI) DeleteNote(ctx context.Context, courseID, noteID string) error {
	f.record("DeleteNote")
	return f.noteErr
}

func (f *fakeAPI) UploadVideo(ctx context.Context, file services.UploadFile) (string, error) {
	f.record("UploadVideo")
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	return "https://cdn.example.com/up/" + file.Name(), nil
}
