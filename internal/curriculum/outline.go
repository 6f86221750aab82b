package curriculum

import (
	"coursecraft/internal/domain/models/course"
)

// OutlineEntry is one lesson in flattened curriculum order
type OutlineEntry struct {
	Index        int    `json:"index"`
	ChapterID    string `json:"chapter_id"`
	ChapterTitle string `json:"chapter_title"`
	Position     int    `json:"position"` // within the chapter
	LessonID     string `json:"lesson_id"`
	LessonTitle  string `json:"lesson_title"`
	Duration     string `json:"duration,omitempty"`
	VideoURL     string `json:"video_url,omitempty"`
}

// Outline flattens the tree in AllLessons order
func (t *Tree) Outline() []OutlineEntry {
	out := make([]OutlineEntry, 0, t.LessonCount())
	for _, c := range t.chapters {
		for pos, l := range c.lessons {
			out = append(out, OutlineEntry{
				Index:        len(out),
				ChapterID:    c.ID(),
				ChapterTitle: c.title,
				Position:     pos,
				LessonID:     l.ID(),
				LessonTitle:  l.title,
				Duration:     l.duration,
				VideoURL:     l.video.URL(),
			})
		}
	}
	return out
}

// OutlineFromCourse flattens a fetched course the same way, without
// building a workspace.
func OutlineFromCourse(c *course.Course) []OutlineEntry {
	var out []OutlineEntry
	for _, ch := range c.Chapters {
		for pos, l := range ch.Lessons {
			out = append(out, OutlineEntry{
				Index:        len(out),
				ChapterID:    ch.ID,
				ChapterTitle: ch.Title,
				Position:     pos,
				LessonID:     l.ID,
				LessonTitle:  l.Title,
				Duration:     l.Duration,
				VideoURL:     l.VideoURL,
			})
		}
	}
	return out
}

// Progress is a learner's position in an outline
type Progress struct {
	Total        int           `json:"total"`
	Completed    int           `json:"completed"`
	Percent      int           `json:"percent"`
	CurrentIndex int           `json:"current_index"` // -1 when the outline is empty
	Current      *OutlineEntry `json:"current,omitempty"`
	Next         *OutlineEntry `json:"next,omitempty"`
}

// MapProgress works out where a learner is. currentID selects the lesson
// being watched; when it is empty or unknown the first lesson not in
// completed is current. Completed ids that are not in the outline are
// ignored.
func MapProgress(outline []OutlineEntry, completed []string, currentID string) Progress {
	p := Progress{Total: len(outline), CurrentIndex: -1}
	if len(outline) == 0 {
		return p
	}

	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}
	for _, e := range outline {
		if done[e.LessonID] {
			p.Completed++
		}
	}
	p.Percent = p.Completed * 100 / p.Total

	for i, e := range outline {
		if currentID != "" && e.LessonID == currentID {
			p.CurrentIndex = i
			break
		}
	}
	if p.CurrentIndex < 0 {
		p.CurrentIndex = 0
		for i, e := range outline {
			if !done[e.LessonID] {
				p.CurrentIndex = i
				break
			}
		}
	}

	cur := outline[p.CurrentIndex]
	p.Current = &cur
	if p.CurrentIndex+1 < len(outline) {
		next := outline[p.CurrentIndex+1]
		p.Next = &next
	}
	return p
}
