package reconcile

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"coursecraft/internal/curriculum"
	"coursecraft/internal/domain"
)

// Failure is one entity PersistAll could not save
type Failure struct {
	Entity  string    `json:"entity"`
	LocalID uuid.UUID `json:"local_id"`
	Title   string    `json:"title"`
	Err     error     `json:"-"`
	Message string    `json:"message"`
}

// Report summarises a PersistAll run
type Report struct {
	Chapters int       `json:"chapters"` // saved
	Lessons  int       `json:"lessons"`  // saved
	Notes    int       `json:"notes"`    // saved
	Skipped  int       `json:"skipped"`  // already clean
	Stopped  bool      `json:"stopped"`  // a chapter failed and later chapters were not attempted
	Failures []Failure `json:"failures"`
}

// OK reports whether everything was saved
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

func (r *Report) fail(entity string, id uuid.UUID, title string, err error) {
	r.Failures = append(r.Failures, Failure{Entity: entity, LocalID: id, Title: title, Err: err, Message: err.Error()})
}

type pendingNode struct {
	id    uuid.UUID
	title string
	dirty bool
}

// PersistAll saves chapters in tree order, each followed by its lessons in
// order, then the notes. Requests are strictly sequential so a lesson is only sent after
// its chapter exists. A chapter failure stops the run; lesson failures are
// collected and the run goes on. Clean entities are skipped. The only error
// returned is domain.ErrSessionClosed.
func (c *Controller) PersistAll(ctx context.Context) (*Report, error) {
	report := &Report{Failures: []Failure{}}

	var chapters []pendingNode
	if err := c.View(func(ws *curriculum.Workspace) {
		for _, ch := range ws.Tree.Chapters() {
			chapters = append(chapters, pendingNode{id: ch.LocalID(), title: ch.Title(), dirty: ch.Dirty()})
		}
	}); err != nil {
		return report, err
	}

	for _, ch := range chapters {
		if ch.dirty {
			err := c.PersistChapter(ctx, ch.id)
			switch {
			case errors.Is(err, domain.ErrSessionClosed):
				return report, err
			case removedLocally(err):
				continue // removed since the run started
			case err != nil:
				report.fail("chapter", ch.id, ch.title, err)
				report.Stopped = true
				return report, nil
			}
			report.Chapters++
		} else {
			report.Skipped++
		}

		lessons, err := c.lessonsOf(ch.id)
		if err != nil {
			if errors.Is(err, domain.ErrSessionClosed) {
				return report, err
			}
			continue
		}
		for _, l := range lessons {
			if !l.dirty {
				report.Skipped++
				continue
			}
			err := c.PersistLesson(ctx, ch.id, l.id)
			switch {
			case errors.Is(err, domain.ErrSessionClosed):
				return report, err
			case removedLocally(err):
				continue
			case err != nil:
				report.fail("lesson", l.id, l.title, err)
			default:
				report.Lessons++
			}
		}
	}

	if err := c.persistNotes(ctx, report); err != nil {
		return report, err
	}

	c.logger.Info("persist all finished",
		"chapters", report.Chapters,
		"lessons", report.Lessons,
		"notes", report.Notes,
		"skipped", report.Skipped,
		"failures", len(report.Failures),
	)
	return report, nil
}

func (c *Controller) lessonsOf(chapterID uuid.UUID) ([]pendingNode, error) {
	var out []pendingNode
	var findErr error
	err := c.View(func(ws *curriculum.Workspace) {
		ch, err := ws.Tree.Chapter(chapterID)
		if err != nil {
			findErr = err
			return
		}
		for _, l := range ch.Lessons() {
			out = append(out, pendingNode{id: l.LocalID(), title: l.Title(), dirty: l.Dirty()})
		}
	})
	if err != nil {
		return nil, err
	}
	return out, findErr
}

func (c *Controller) persistNotes(ctx context.Context, report *Report) error {
	var notes []pendingNode
	if err := c.View(func(ws *curriculum.Workspace) {
		for _, n := range ws.Notes.List() {
			notes = append(notes, pendingNode{id: n.LocalID(), title: n.Title(), dirty: n.Dirty()})
		}
	}); err != nil {
		return err
	}

	for _, n := range notes {
		if !n.dirty {
			report.Skipped++
			continue
		}
		err := c.PersistNote(ctx, n.id)
		switch {
		case errors.Is(err, domain.ErrSessionClosed):
			return err
		case removedLocally(err):
		case err != nil:
			report.fail("note", n.id, n.title, err)
		default:
			report.Notes++
		}
	}
	return nil
}

// removedLocally tells a node deleted from the workspace mid-run apart from
// a server 404, which is a real failure.
func removedLocally(err error) bool {
	return errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrPersistenceFailed)
}
