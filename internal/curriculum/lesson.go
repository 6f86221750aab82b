package curriculum

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"coursecraft/internal/config"
	"coursecraft/internal/domain"
)

// Lesson is a single teachable unit. It belongs to exactly one Chapter.
type Lesson struct {
	identity

	title       string
	description string
	duration    string
	video       *VideoSource
	timestamps  TimestampSet
}

// NewLesson creates a pending lesson with an empty upload source
func NewLesson(title string) *Lesson {
	return &Lesson{
		identity: newIdentity(),
		title:    title,
		video:    NewVideoSource(VideoUpload),
	}
}

func (l *Lesson) Title() string       { return l.title }
func (l *Lesson) Description() string { return l.description }
func (l *Lesson) Duration() string    { return l.duration }

func (l *Lesson) Rename(title string) {
	l.title = title
	l.touch()
}

func (l *Lesson) SetDescription(description string) {
	l.description = description
	l.touch()
}

// SetDuration stores the display duration as entered ("12:30", "1h")
func (l *Lesson) SetDuration(duration string) {
	l.duration = duration
	l.touch()
}

// Dirty also holds while a selected file has not been uploaded
func (l *Lesson) Dirty() bool {
	return l.identity.Dirty() || l.video.PendingFile() != nil
}

// Video returns a snapshot of the video binding
func (l *Lesson) Video() VideoState {
	return l.video.State()
}

// SetVideoKind switches the video source, discarding the old selection
func (l *Lesson) SetVideoKind(kind VideoKind) error {
	changed, err := l.video.SetKind(kind)
	if err != nil {
		return err
	}
	if changed {
		l.touch()
	}
	return nil
}

// AttachVideo selects a file for upload. previews may be nil.
func (l *Lesson) AttachVideo(f FileHandle, previews *PreviewRegistry) error {
	if err := l.video.AttachFile(f, previews); err != nil {
		return err
	}
	l.touch()
	return nil
}

// SetVideoURL sets the link for link and embed sources
func (l *Lesson) SetVideoURL(url string) error {
	if err := l.video.SetURL(strings.TrimSpace(url)); err != nil {
		return err
	}
	l.touch()
	return nil
}

// CompleteUpload stores the server URL for an upload of sent. Server-owned,
// so it does not count as an edit.
func (l *Lesson) CompleteUpload(url string, sent FileHandle) bool {
	return l.video.CompleteUpload(url, sent)
}

// LendVideoFile hands the pending file to a request about to send it
func (l *Lesson) LendVideoFile() FileHandle {
	return l.video.Lend()
}

// ReturnVideoFile is called with the lent file once its request returned
func (l *Lesson) ReturnVideoFile(sent FileHandle) {
	l.video.FinishSend(sent)
}

// AddTimestamp parses text and inserts a marker. A zero result is only
// accepted when text literally spells zero.
func (l *Lesson) AddTimestamp(text, title, description string) (Timestamp, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Timestamp{}, fmt.Errorf("timestamp title is required: %w", domain.ErrInvalidTimestamp)
	}
	if len(title) > config.MaxTimestampTitleLength {
		return Timestamp{}, fmt.Errorf("timestamp title longer than %d: %w", config.MaxTimestampTitleLength, domain.ErrInvalidTimestamp)
	}

	t := ParseTimeCode(text)
	if t == 0 && !IsZeroLiteral(text) {
		return Timestamp{}, fmt.Errorf("cannot parse time %q: %w", text, domain.ErrInvalidTimestamp)
	}

	ts := Timestamp{Time: t, Title: title, Description: description}
	l.timestamps.Add(ts)
	l.touch()
	return ts, nil
}

// RemoveTimestamp deletes the marker at index
func (l *Lesson) RemoveTimestamp(index int) error {
	if err := l.timestamps.Remove(index); err != nil {
		return err
	}
	l.touch()
	return nil
}

// Timestamps returns the markers ascending by time
func (l *Lesson) Timestamps() []Timestamp {
	return l.timestamps.List()
}

// Validate checks the lesson can be sent to the Course API
func (l *Lesson) Validate() error {
	v := l.video
	err := validation.Errors{
		"title": validation.Validate(strings.TrimSpace(l.title),
			validation.Required,
			validation.Length(1, config.MaxLessonTitleLength),
		),
		"description": validation.Validate(l.description,
			validation.Length(0, config.MaxDescriptionLength),
		),
		"duration": validation.Validate(l.duration,
			validation.Length(0, config.MaxDurationLength),
		),
		"video_url": validation.Validate(v.URL(),
			validation.When(v.Kind() != VideoUpload, validation.Required, is.URL),
			validation.Length(0, config.MaxURLLength),
		),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: lesson %s: %v", domain.ErrValidation, l.ID(), err)
	}
	return nil
}

// release drops the pending file and preview. Called when the lesson leaves
// the tree for good or the session closes.
func (l *Lesson) release() {
	l.video.Release()
}
