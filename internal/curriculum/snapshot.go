package curriculum

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"coursecraft/internal/domain"
)

const snapshotVersion = 1

// Snapshot is the JSON form of a workspace, used for drafts and for the
// editor gateway's responses. Pending files cannot be serialised: a
// restored lesson keeps its metadata but must have its file attached again,
// and notes that were never uploaded are dropped.
type Snapshot struct {
	Version     int               `json:"version"`
	CourseID    string            `json:"course_id"`
	CourseTitle string            `json:"course_title,omitempty"`
	Chapters    []ChapterSnapshot `json:"chapters"`
	Notes       []NoteSnapshot    `json:"notes"`
}

type ChapterSnapshot struct {
	LocalID     uuid.UUID        `json:"local_id"`
	CanonicalID string           `json:"canonical_id,omitempty"`
	State       SyncState        `json:"state"`
	Dirty       bool             `json:"dirty"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Lessons     []LessonSnapshot `json:"lessons"`
}

type LessonSnapshot struct {
	LocalID     uuid.UUID    `json:"local_id"`
	CanonicalID string       `json:"canonical_id,omitempty"`
	State       SyncState    `json:"state"`
	Dirty       bool         `json:"dirty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Duration    string       `json:"duration"`
	VideoKind   VideoKind    `json:"video_kind"`
	VideoURL    string       `json:"video_url,omitempty"`
	PendingFile string       `json:"pending_file,omitempty"` // display only
	PreviewURL  string       `json:"preview_url,omitempty"`  // display only
	Timestamps  TimestampSet `json:"timestamps"`
}

type NoteSnapshot struct {
	LocalID     uuid.UUID `json:"local_id"`
	CanonicalID string    `json:"canonical_id,omitempty"`
	State       SyncState `json:"state"`
	Dirty       bool      `json:"dirty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	FileURL     string    `json:"file_url,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at,omitzero"`
}

// Snapshot captures the workspace
func (w *Workspace) Snapshot() Snapshot {
	s := Snapshot{
		Version:     snapshotVersion,
		CourseID:    w.CourseID,
		CourseTitle: w.CourseTitle,
		Chapters:    make([]ChapterSnapshot, 0, len(w.Tree.chapters)),
		Notes:       make([]NoteSnapshot, 0, len(w.Notes.notes)),
	}
	for _, c := range w.Tree.chapters {
		cs := ChapterSnapshot{
			LocalID:     c.localID,
			CanonicalID: c.canonicalID,
			State:       c.State(),
			Dirty:       c.Dirty(),
			Title:       c.title,
			Description: c.description,
			Lessons:     make([]LessonSnapshot, 0, len(c.lessons)),
		}
		for _, l := range c.lessons {
			cs.Lessons = append(cs.Lessons, l.snapshot())
		}
		s.Chapters = append(s.Chapters, cs)
	}
	for _, n := range w.Notes.notes {
		s.Notes = append(s.Notes, NoteSnapshot{
			LocalID:     n.localID,
			CanonicalID: n.canonicalID,
			State:       n.State(),
			Dirty:       n.Dirty(),
			Title:       n.title,
			Description: n.description,
			FileName:    n.fileName,
			FileSize:    n.fileSize,
			FileURL:     n.fileURL,
			UploadedAt:  n.uploadedAt,
		})
	}
	return s
}

func (l *Lesson) snapshot() LessonSnapshot {
	st := l.video.State()
	ls := LessonSnapshot{
		LocalID:     l.localID,
		CanonicalID: l.canonicalID,
		State:       l.State(),
		Dirty:       l.Dirty(),
		Title:       l.title,
		Description: l.description,
		Duration:    l.duration,
		VideoKind:   st.Kind,
		VideoURL:    st.URL,
		PreviewURL:  st.PreviewURL,
		Timestamps:  NewTimestampSet(l.timestamps.List()...),
	}
	if st.PendingFile != nil {
		ls.PendingFile = st.PendingFile.Name()
	}
	return ls
}

// Restore rebuilds a workspace from a snapshot, keeping local ids and the
// dirty flags so unsaved edits are persisted again.
func (s Snapshot) Restore() (*Workspace, error) {
	if s.Version != snapshotVersion {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unsupported snapshot version %d", s.Version)}
	}
	if s.CourseID == "" {
		return nil, &domain.ValidationError{Message: "snapshot has no course id"}
	}

	w := NewWorkspace(s.CourseID)
	w.CourseTitle = s.CourseTitle
	seen := make(map[uuid.UUID]bool)

	for _, cs := range s.Chapters {
		if err := checkRestoredID(seen, cs.LocalID); err != nil {
			return nil, err
		}
		c := &Chapter{identity: restoredIdentity(cs.LocalID, cs.CanonicalID, cs.Dirty), title: cs.Title, description: cs.Description}
		for _, ls := range cs.Lessons {
			if err := checkRestoredID(seen, ls.LocalID); err != nil {
				return nil, err
			}
			kind, err := ParseVideoKind(string(ls.VideoKind))
			if err != nil {
				return nil, err
			}
			c.lessons = append(c.lessons, &Lesson{
				identity:    restoredIdentity(ls.LocalID, ls.CanonicalID, ls.Dirty),
				title:       ls.Title,
				description: ls.Description,
				duration:    ls.Duration,
				video:       &VideoSource{kind: kind, url: ls.VideoURL},
				timestamps:  NewTimestampSet(ls.Timestamps.List()...),
			})
		}
		w.Tree.chapters = append(w.Tree.chapters, c)
	}

	for _, ns := range s.Notes {
		if ns.CanonicalID == "" {
			continue // its file was never uploaded
		}
		if err := checkRestoredID(seen, ns.LocalID); err != nil {
			return nil, err
		}
		w.Notes.notes = append(w.Notes.notes, &Note{
			identity:    restoredIdentity(ns.LocalID, ns.CanonicalID, ns.Dirty),
			title:       ns.Title,
			description: ns.Description,
			fileName:    ns.FileName,
			fileSize:    ns.FileSize,
			fileURL:     ns.FileURL,
			uploadedAt:  ns.UploadedAt,
		})
	}
	return w, nil
}

func restoredIdentity(localID uuid.UUID, canonicalID string, dirty bool) identity {
	n := identity{localID: localID, revision: 1}
	n.restore(canonicalID, !dirty)
	return n
}

func checkRestoredID(seen map[uuid.UUID]bool, id uuid.UUID) error {
	if id == uuid.Nil || seen[id] {
		return &domain.ValidationError{Message: fmt.Sprintf("snapshot has missing or duplicate id %q", id)}
	}
	seen[id] = true
	return nil
}

// Dirty reports whether any captured node had unsaved edits
func (s Snapshot) Dirty() bool {
	for _, c := range s.Chapters {
		if c.Dirty {
			return true
		}
		for _, l := range c.Lessons {
			if l.Dirty {
				return true
			}
		}
	}
	for _, n := range s.Notes {
		if n.Dirty {
			return true
		}
	}
	return false
}
