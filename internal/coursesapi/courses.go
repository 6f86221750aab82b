package coursesapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"coursecraft/internal/domain/models/course"
	"coursecraft/internal/domain/services"
)

// compile-time check
var _ services.CourseAPI = (*Client)(nil)

// fetchCourseResponse accepts both {"course": {..., chapters}} and the
// split {"course": {...}, "chapters": [...], "notes": [...]} form.
type fetchCourseResponse struct {
	Course   course.Course    `json:"course"`
	Chapters []course.Chapter `json:"chapters"`
	Notes    []course.Note    `json:"notes"`
}

func (c *Client) FetchCourse(ctx context.Context, courseID string) (*course.Course, error) {
	var resp fetchCourseResponse
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("courses", courseID), nil, &resp); err != nil {
		return nil, err
	}
	out := resp.Course
	if out.ID == "" {
		out.ID = courseID
	}
	if resp.Chapters != nil {
		out.Chapters = resp.Chapters
	}
	if resp.Notes != nil {
		out.Notes = resp.Notes
	}
	return &out, nil
}

func (c *Client) CreateChapter(ctx context.Context, courseID string, in course.ChapterInput) (string, error) {
	var resp struct {
		ChapterID string `json:"chapterId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("courses", courseID, "chapters"), in, &resp); err != nil {
		return "", err
	}
	if resp.ChapterID == "" {
		return "", fmt.Errorf("create chapter: response has no chapterId")
	}
	return resp.ChapterID, nil
}

func (c *Client) UpdateChapter(ctx context.Context, courseID, chapterID string, in course.ChapterInput) error {
	return c.doJSON(ctx, http.MethodPut, c.endpoint("courses", courseID, "chapters", chapterID), in, nil)
}

func (c *Client) CreateLesson(ctx context.Context, courseID, chapterID string, in course.LessonInput, video services.UploadFile) (*course.LessonResult, error) {
	endpoint := c.endpoint("courses", courseID, "chapters", chapterID, "lessons")

	var res course.LessonResult
	var err error
	if video != nil {
		var fields []formField
		fields, err = lessonFields(in)
		if err != nil {
			return nil, err
		}
		err = c.doMultipart(ctx, http.MethodPost, endpoint, fields, "video", video, &res)
	} else {
		err = c.doJSON(ctx, http.MethodPost, endpoint, in, &res)
	}
	if err != nil {
		return nil, err
	}
	if res.LessonID == "" {
		return nil, fmt.Errorf("create lesson: response has no lessonId")
	}
	return &res, nil
}

func (c *Client) UpdateLesson(ctx context.Context, courseID, chapterID, lessonID string, in course.LessonInput) (*course.LessonResult, error) {
	var res course.LessonResult
	endpoint := c.endpoint("courses", courseID, "chapters", chapterID, "lessons", lessonID)
	if err := c.doJSON(ctx, http.MethodPut, endpoint, in, &res); err != nil {
		return nil, err
	}
	if res.LessonID == "" {
		res.LessonID = lessonID
	}
	return &res, nil
}

func (c *Client) DeleteLesson(ctx context.Context, courseID, chapterID, lessonID string) error {
	endpoint := c.endpoint("courses", courseID, "chapters", chapterID, "lessons", lessonID)
	return c.doJSON(ctx, http.MethodDelete, endpoint, nil, nil)
}

func (c *Client) CreateNote(ctx context.Context, courseID string, in course.NoteInput, file services.UploadFile) (*course.Note, error) {
	if file == nil {
		return nil, fmt.Errorf("create note: file is required")
	}
	return c.sendNote(ctx, http.MethodPost, c.endpoint("courses", courseID, "notes"), in, file)
}

func (c *Client) UpdateNote(ctx context.Context, courseID, noteID string, in course.NoteInput, file services.UploadFile) (*course.Note, error) {
	return c.sendNote(ctx, http.MethodPut, c.endpoint("courses", courseID, "notes", noteID), in, file)
}

func (c *Client) DeleteNote(ctx context.Context, courseID, noteID string) error {
	return c.doJSON(ctx, http.MethodDelete, c.endpoint("courses", courseID, "notes", noteID), nil, nil)
}

func (c *Client) sendNote(ctx context.Context, method, endpoint string, in course.NoteInput, file services.UploadFile) (*course.Note, error) {
	var resp struct {
		Note course.Note `json:"note"`
	}
	fields := []formField{
		{name: "title", value: in.Title},
		{name: "description", value: in.Description},
	}
	if err := c.doMultipart(ctx, method, endpoint, fields, "file", file, &resp); err != nil {
		return nil, err
	}
	if resp.Note.ID == "" {
		return nil, fmt.Errorf("save note: response has no note id")
	}
	return &resp.Note, nil
}

func (c *Client) UploadVideo(ctx context.Context, file services.UploadFile) (string, error) {
	if file == nil {
		return "", fmt.Errorf("upload video: file is required")
	}
	var resp struct {
		VideoURL string `json:"videoUrl"`
	}
	if err := c.doMultipart(ctx, http.MethodPost, c.endpoint("uploads", "video"), nil, "file", file, &resp); err != nil {
		return "", err
	}
	if resp.VideoURL == "" {
		return "", fmt.Errorf("upload video: response has no videoUrl")
	}
	return resp.VideoURL, nil
}

// lessonFields flattens a lesson for a multipart body. Timestamps travel
// as one JSON-encoded field.
func lessonFields(in course.LessonInput) ([]formField, error) {
	timestamps := in.Timestamps
	if timestamps == nil {
		timestamps = []course.Timestamp{}
	}
	ts, err := json.Marshal(timestamps)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamps: %w", err)
	}
	fields := []formField{
		{name: "title", value: in.Title},
		{name: "description", value: in.Description},
		{name: "duration", value: in.Duration},
		{name: "videoType", value: in.VideoType},
		{name: "timestamps", value: string(ts)},
	}
	if in.VideoURL != "" {
		fields = append(fields, formField{name: "videoUrl", value: in.VideoURL})
	}
	return fields, nil
}
