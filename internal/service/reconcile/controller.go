package reconcile

import (
	"log/slog"
	"sync"

	"coursecraft/internal/curriculum"
	"coursecraft/internal/domain"
	"coursecraft/internal/domain/services"
)

// Controller owns one editor workspace and pushes its local edits to the
// Course API. Edits are applied immediately under the lock; persistence
// snapshots the request under the lock, releases it for network I/O and
// re-acquires it to merge only the fields the server owns.
type Controller struct {
	api      services.CourseAPI
	previews *curriculum.PreviewRegistry
	logger   *slog.Logger

	mu     sync.Mutex
	ws     *curriculum.Workspace
	closed bool
}

// NewController takes ownership of ws. previews may be nil.
func NewController(ws *curriculum.Workspace, api services.CourseAPI, previews *curriculum.PreviewRegistry, logger *slog.Logger) *Controller {
	return &Controller{
		api:      api,
		previews: previews,
		logger:   logger.With("course_id", ws.CourseID),
		ws:       ws,
	}
}

// CourseID returns the course being edited
func (c *Controller) CourseID() string {
	return c.ws.CourseID
}

// Previews returns the registry previews are opened in
func (c *Controller) Previews() *curriculum.PreviewRegistry {
	return c.previews
}

// Edit runs fn with exclusive access to the workspace
func (c *Controller) Edit(fn func(ws *curriculum.Workspace) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrSessionClosed
	}
	return fn(c.ws)
}

// View runs fn with the workspace locked. fn must not mutate it.
func (c *Controller) View(fn func(ws *curriculum.Workspace)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrSessionClosed
	}
	fn(c.ws)
	return nil
}

// Snapshot captures the workspace
func (c *Controller) Snapshot() (curriculum.Snapshot, error) {
	var s curriculum.Snapshot
	err := c.View(func(ws *curriculum.Workspace) { s = ws.Snapshot() })
	return s, err
}

// Close releases every pending file and preview. Requests still in flight
// finish, but their responses are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.ws.Release()
	c.logger.Info("editor closed")
}

// Closed reports whether Close has been called
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// relock re-acquires the lock after network I/O. It returns false, with
// the lock released, when the editor closed in the meantime.
func (c *Controller) relock(entity, id string) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("dropping response for closed editor", "entity", entity, "id", id)
		return false
	}
	return true
}
