package curriculum

import (
	"coursecraft/internal/domain/models/course"
)

// FromCourse builds a clean, fully persisted workspace from the server's
// course record.
func FromCourse(c *course.Course) *Workspace {
	w := NewWorkspace(c.ID)
	w.CourseTitle = c.Title

	for _, ch := range c.Chapters {
		chapter := NewChapter(ch.Title, ch.Description)
		chapter.restore(ch.ID, true)
		for _, rec := range ch.Lessons {
			chapter.lessons = append(chapter.lessons, lessonFromRecord(rec))
		}
		w.Tree.chapters = append(w.Tree.chapters, chapter)
	}

	for _, rec := range c.Notes {
		n := &Note{identity: newIdentity()}
		n.title = rec.Title
		n.description = rec.Description
		n.fileName = rec.FileName
		n.fileSize = rec.FileSize
		n.fileURL = rec.FileURL
		n.uploadedAt = rec.UploadedAt
		n.restore(rec.ID, true)
		w.Notes.notes = append(w.Notes.notes, n)
	}
	return w
}

func lessonFromRecord(rec course.Lesson) *Lesson {
	kind, err := ParseVideoKind(rec.VideoType)
	if err != nil {
		kind = VideoUpload
	}
	l := &Lesson{
		identity:    newIdentity(),
		title:       rec.Title,
		description: rec.Description,
		duration:    rec.Duration,
		video:       &VideoSource{kind: kind, url: rec.VideoURL},
	}
	for _, ts := range rec.Timestamps {
		l.timestamps.Add(Timestamp{Time: TimeCode(ts.Time), Title: ts.Title, Description: ts.Description})
	}
	l.restore(rec.ID, true)
	return l
}

// Input is the createChapter / updateChapter body for c
func (c *Chapter) Input() course.ChapterInput {
	return course.ChapterInput{Title: c.title, Description: c.description}
}

// Input is the createLesson / updateLesson body for l. The video URL is
// left out while a file is pending; the upload supplies it.
func (l *Lesson) Input() course.LessonInput {
	in := course.LessonInput{
		Title:       l.title,
		Description: l.description,
		Duration:    l.duration,
		VideoType:   string(l.video.Kind()),
		Timestamps:  TimestampsToWire(l.timestamps.List()),
	}
	if l.video.PendingFile() == nil {
		in.VideoURL = l.video.URL()
	}
	return in
}

// Input is the createNote / updateNote form for n
func (n *Note) Input() course.NoteInput {
	return course.NoteInput{Title: n.title, Description: n.description}
}

// TimestampsToWire converts sorted markers to the wire form, keeping order
func TimestampsToWire(items []Timestamp) []course.Timestamp {
	out := make([]course.Timestamp, 0, len(items))
	for _, ts := range items {
		out = append(out, course.Timestamp{Time: ts.Time.Seconds(), Title: ts.Title, Description: ts.Description})
	}
	return out
}
