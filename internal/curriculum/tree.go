package curriculum

import (
	"fmt"
	"iter"

	"github.com/google/uuid"

	"coursecraft/internal/domain"
)

// Tree is the course curriculum: chapters in order, each owning its lessons.
// Every lesson reachable from the tree belongs to exactly one chapter in it.
type Tree struct {
	chapters []*Chapter
}

// NewTree creates an empty curriculum
func NewTree() *Tree {
	return &Tree{}
}

// Chapters returns the chapters in curriculum order
func (t *Tree) Chapters() []*Chapter {
	out := make([]*Chapter, len(t.chapters))
	copy(out, t.chapters)
	return out
}

// AddChapter appends c. Its lessons come with it.
func (t *Tree) AddChapter(c *Chapter) error {
	if t.chapterIndex(c.localID) >= 0 {
		return &domain.ValidationError{Message: fmt.Sprintf("chapter %s is already in the curriculum", c.ID())}
	}
	for _, l := range c.lessons {
		if _, _, err := t.lessonByLocalID(l.localID); err == nil {
			return &domain.ValidationError{Message: fmt.Sprintf("lesson %s already belongs to another chapter", l.ID())}
		}
	}
	t.chapters = append(t.chapters, c)
	return nil
}

// RemoveChapter destroys a chapter and all of its lessons, releasing any
// pending uploads they hold.
func (t *Tree) RemoveChapter(localID uuid.UUID) error {
	i := t.chapterIndex(localID)
	if i < 0 {
		return chapterNotFound(localID.String())
	}
	c := t.chapters[i]
	t.chapters = append(t.chapters[:i], t.chapters[i+1:]...)
	c.release()
	c.lessons = nil
	return nil
}

// MoveChapter moves a chapter to position at. Like lesson order, chapter
// order is kept by the editor.
func (t *Tree) MoveChapter(localID uuid.UUID, at int) error {
	i := t.chapterIndex(localID)
	if i < 0 {
		return chapterNotFound(localID.String())
	}
	if at < 0 || at >= len(t.chapters) {
		return fmt.Errorf("move chapter to %d of %d: %w", at, len(t.chapters), domain.ErrIndexOutOfRange)
	}
	c := t.chapters[i]
	t.chapters = append(t.chapters[:i], t.chapters[i+1:]...)
	t.chapters = append(t.chapters[:at], append([]*Chapter{c}, t.chapters[at:]...)...)
	return nil
}

// Chapter returns the chapter with the given local id
func (t *Tree) Chapter(localID uuid.UUID) (*Chapter, error) {
	i := t.chapterIndex(localID)
	if i < 0 {
		return nil, chapterNotFound(localID.String())
	}
	return t.chapters[i], nil
}

// FindChapter looks a chapter up by local token or canonical id
func (t *Tree) FindChapter(id string) (*Chapter, error) {
	for _, c := range t.chapters {
		if c.Matches(id) {
			return c, nil
		}
	}
	return nil, chapterNotFound(id)
}

// AddLesson appends a lesson to a chapter
func (t *Tree) AddLesson(chapterID uuid.UUID, l *Lesson) error {
	c, err := t.Chapter(chapterID)
	if err != nil {
		return err
	}
	if _, _, err := t.lessonByLocalID(l.localID); err == nil {
		return &domain.ValidationError{Message: fmt.Sprintf("lesson %s is already in the curriculum", l.ID())}
	}
	c.AddLesson(l)
	return nil
}

// RemoveLesson destroys a lesson
func (t *Tree) RemoveLesson(chapterID, lessonID uuid.UUID) error {
	c, err := t.Chapter(chapterID)
	if err != nil {
		return err
	}
	return c.RemoveLesson(lessonID)
}

// MoveLesson moves a lesson to index at of chapter to, which may be the
// chapter it is already in. Every argument is checked before anything
// changes, so the lesson is never left outside a chapter.
// The Course API cannot reparent a lesson, so only lessons that were never
// sent may change chapter. Order is kept by the editor and not sent.
func (t *Tree) MoveLesson(from, to, lessonID uuid.UUID, at int) error {
	src, err := t.Chapter(from)
	if err != nil {
		return err
	}
	dst, err := t.Chapter(to)
	if err != nil {
		return err
	}
	i := src.indexOf(lessonID)
	if i < 0 {
		return &domain.NotFoundError{Message: fmt.Sprintf("lesson %s not found in chapter %s", lessonID, src.ID())}
	}

	if src != dst && src.lessons[i].State() != StateLocal {
		return &domain.ValidationError{Message: fmt.Sprintf("lesson %s is saved on the server and cannot move to another chapter", src.lessons[i].ID())}
	}

	limit := len(dst.lessons) // appending to another chapter is allowed
	if src == dst {
		limit = len(dst.lessons) - 1
	}
	if at < 0 || at > limit {
		return fmt.Errorf("move lesson to %d of %d: %w", at, limit+1, domain.ErrIndexOutOfRange)
	}

	l := src.lessons[i]
	src.lessons = append(src.lessons[:i], src.lessons[i+1:]...)
	dst.lessons = append(dst.lessons, nil)
	copy(dst.lessons[at+1:], dst.lessons[at:])
	dst.lessons[at] = l
	return nil
}

// FindLesson looks a lesson up by local token or canonical id
func (t *Tree) FindLesson(id string) (*Chapter, *Lesson, error) {
	for _, c := range t.chapters {
		if l, ok := c.Lesson(id); ok {
			return c, l, nil
		}
	}
	return nil, nil, &domain.NotFoundError{Message: fmt.Sprintf("lesson %s not found", id)}
}

// AllLessons yields every lesson, chapter by chapter. The sequence is lazy
// and can be ranged over any number of times; the order only changes after
// a structural mutation.
func (t *Tree) AllLessons() iter.Seq[*Lesson] {
	return func(yield func(*Lesson) bool) {
		for _, c := range t.chapters {
			for _, l := range c.lessons {
				if !yield(l) {
					return
				}
			}
		}
	}
}

// LessonCount returns the number of lessons across all chapters
func (t *Tree) LessonCount() int {
	n := 0
	for _, c := range t.chapters {
		n += len(c.lessons)
	}
	return n
}

// LessonIndex returns the position of a lesson in AllLessons order, or -1
func (t *Tree) LessonIndex(id string) int {
	i := 0
	for l := range t.AllLessons() {
		if l.Matches(id) {
			return i
		}
		i++
	}
	return -1
}

// Release drops every pending file and preview in the tree
func (t *Tree) Release() {
	for _, c := range t.chapters {
		c.release()
	}
}

func (t *Tree) chapterIndex(localID uuid.UUID) int {
	for i, c := range t.chapters {
		if c.localID == localID {
			return i
		}
	}
	return -1
}

func (t *Tree) lessonByLocalID(localID uuid.UUID) (*Chapter, *Lesson, error) {
	for _, c := range t.chapters {
		if i := c.indexOf(localID); i >= 0 {
			return c, c.lessons[i], nil
		}
	}
	return nil, nil, &domain.NotFoundError{Message: fmt.Sprintf("lesson %s not found", localID)}
}

func chapterNotFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("chapter %s not found", id)}
}
