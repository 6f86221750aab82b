package course

import (
	"encoding/json"
	"time"
)

// Course is the authoritative course record returned by the Course API
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Chapters    []Chapter `json:"chapters"`
	Notes       []Note    `json:"notes,omitempty"`
}

type Chapter struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lessons     []Lesson `json:"lessons"`
}

type Lesson struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Duration    string      `json:"duration"`
	VideoURL    string      `json:"videoUrl,omitempty"`
	VideoType   string      `json:"videoType"`
	Timestamps  []Timestamp `json:"timestamps"`
}

// Timestamp wire form. Lists are always sent ascending by Time.
type Timestamp struct {
	Time        int    `json:"time"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Note is a downloadable course resource
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	FileURL     string    `json:"fileUrl"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// ChapterInput is the body of createChapter / updateChapter
type ChapterInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// LessonInput is the body of createLesson / updateLesson. With a video file
// attached it is sent as multipart form fields instead of JSON.
type LessonInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Duration    string      `json:"duration"`
	VideoURL    string      `json:"videoUrl,omitempty"`
	VideoType   string      `json:"videoType"`
	Timestamps  []Timestamp `json:"timestamps"`
}

// LessonResult is what the Course API returns for a saved lesson
type LessonResult struct {
	LessonID string `json:"lessonId"`
	VideoURL string `json:"videoUrl,omitempty"`
}

type NoteInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Draft is a saved editor workspace that was not fully persisted
type Draft struct {
	CourseID  string          `json:"course_id" db:"course_id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Snapshot  json.RawMessage `json:"snapshot" db:"snapshot"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
