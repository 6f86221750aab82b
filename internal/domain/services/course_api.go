package services

import (
	"context"
	"io"

	"coursecraft/internal/domain/models/course"
)

// UploadFile is a file sent to the Course API in a multipart body
type UploadFile interface {
	Name() string
	Size() int64
	ContentType() string
	Open() (io.ReadCloser, error)
}

// CourseAPI is the authoritative course backend. Every method performs
// network I/O; the caller's context carries the author's access token.
type CourseAPI interface {
	// FetchCourse returns the course with its chapters, lessons and notes
	FetchCourse(ctx context.Context, courseID string) (*course.Course, error)

	// CreateChapter returns the new chapter's id
	CreateChapter(ctx context.Context, courseID string, in course.ChapterInput) (string, error)
	UpdateChapter(ctx context.Context, courseID, chapterID string, in course.ChapterInput) error

	// CreateLesson sends a multipart body when video is non-nil, JSON otherwise
	CreateLesson(ctx context.Context, courseID, chapterID string, in course.LessonInput, video UploadFile) (*course.LessonResult, error)
	UpdateLesson(ctx context.Context, courseID, chapterID, lessonID string, in course.LessonInput) (*course.LessonResult, error)
	DeleteLesson(ctx context.Context, courseID, chapterID, lessonID string) error

	// CreateNote uploads the note's file. UpdateNote may pass a nil file to
	// change only the metadata.
	CreateNote(ctx context.Context, courseID string, in course.NoteInput, file UploadFile) (*course.Note, error)
	UpdateNote(ctx context.Context, courseID, noteID string, in course.NoteInput, file UploadFile) (*course.Note, error)
	DeleteNote(ctx context.Context, courseID, noteID string) error

	// UploadVideo stores a standalone video and returns its URL
	UploadVideo(ctx context.Context, file UploadFile) (string, error)
}
