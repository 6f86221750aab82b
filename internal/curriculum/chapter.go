package curriculum

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"coursecraft/internal/config"
	"coursecraft/internal/domain"
)

// Chapter is an ordered group of lessons. It owns its lessons: removing a
// lesson from a chapter outside of a move destroys it.
type Chapter struct {
	identity

	title       string
	description string
	lessons     []*Lesson
}

// NewChapter creates a pending chapter
func NewChapter(title, description string) *Chapter {
	return &Chapter{
		identity:    newIdentity(),
		title:       title,
		description: description,
	}
}

func (c *Chapter) Title() string       { return c.title }
func (c *Chapter) Description() string { return c.description }

func (c *Chapter) Rename(title string) {
	c.title = title
	c.touch()
}

func (c *Chapter) SetDescription(description string) {
	c.description = description
	c.touch()
}

// AddLesson appends l
func (c *Chapter) AddLesson(l *Lesson) {
	c.lessons = append(c.lessons, l)
}

// InsertLesson places l at index at (0..len)
func (c *Chapter) InsertLesson(at int, l *Lesson) error {
	if at < 0 || at > len(c.lessons) {
		return fmt.Errorf("insert lesson at %d of %d: %w", at, len(c.lessons), domain.ErrIndexOutOfRange)
	}
	c.lessons = append(c.lessons, nil)
	copy(c.lessons[at+1:], c.lessons[at:])
	c.lessons[at] = l
	return nil
}

// RemoveLesson destroys the lesson with the given local id, releasing its
// pending file and preview.
func (c *Chapter) RemoveLesson(localID uuid.UUID) error {
	l, err := c.detach(localID)
	if err != nil {
		return err
	}
	l.release()
	return nil
}

// Lessons returns the lessons in curriculum order
func (c *Chapter) Lessons() []*Lesson {
	out := make([]*Lesson, len(c.lessons))
	copy(out, c.lessons)
	return out
}

// LessonCount returns the number of lessons
func (c *Chapter) LessonCount() int {
	return len(c.lessons)
}

// Lesson finds a lesson by local token or canonical id
func (c *Chapter) Lesson(id string) (*Lesson, bool) {
	for _, l := range c.lessons {
		if l.Matches(id) {
			return l, true
		}
	}
	return nil, false
}

func (c *Chapter) indexOf(localID uuid.UUID) int {
	for i, l := range c.lessons {
		if l.localID == localID {
			return i
		}
	}
	return -1
}

// detach removes a lesson without releasing it
func (c *Chapter) detach(localID uuid.UUID) (*Lesson, error) {
	i := c.indexOf(localID)
	if i < 0 {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("lesson %s not found in chapter %s", localID, c.ID())}
	}
	l := c.lessons[i]
	c.lessons = append(c.lessons[:i], c.lessons[i+1:]...)
	return l, nil
}

// Validate checks the chapter can be sent to the Course API
func (c *Chapter) Validate() error {
	err := validation.Errors{
		"title": validation.Validate(strings.TrimSpace(c.title),
			validation.Required,
			validation.Length(1, config.MaxChapterTitleLength),
		),
		"description": validation.Validate(c.description,
			validation.Length(0, config.MaxDescriptionLength),
		),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: chapter %s: %v", domain.ErrValidation, c.ID(), err)
	}
	return nil
}

func (c *Chapter) release() {
	for _, l := range c.lessons {
		l.release()
	}
}
