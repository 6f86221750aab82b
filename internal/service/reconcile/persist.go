package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"coursecraft/internal/curriculum"
	"coursecraft/internal/domain"
	"coursecraft/internal/domain/models/course"
)

// PersistChapter creates or updates a chapter. On failure the chapter
// keeps its previous state and a *domain.PersistenceError is returned.
func (c *Controller) PersistChapter(ctx context.Context, chapterID uuid.UUID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	ch, err := c.ws.Tree.Chapter(chapterID)
	if err == nil {
		err = ch.Validate()
	}
	if err == nil {
		err = ch.BeginSync()
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}
	courseID := c.ws.CourseID
	canonicalID := ch.CanonicalID()
	in := ch.Input()
	rev := ch.Revision()
	c.mu.Unlock()

	id := canonicalID
	if canonicalID == "" {
		id, err = c.api.CreateChapter(ctx, courseID, in)
	} else {
		err = c.api.UpdateChapter(ctx, courseID, canonicalID, in)
	}

	if !c.relock("chapter", chapterID.String()) {
		return domain.ErrSessionClosed
	}
	defer c.mu.Unlock()

	if err != nil {
		ch.EndSync()
		c.logger.Warn("chapter persist failed", "chapter", chapterID, "error", err)
		return &domain.PersistenceError{Entity: "chapter", LocalID: chapterID.String(), Cause: err}
	}
	ch.MarkPersisted(id, rev)
	c.logger.Info("chapter persisted", "chapter", chapterID, "chapter_id", id, "created", canonicalID == "")
	return nil
}

// lessonRequest is everything a lesson persist sends, captured under the lock
type lessonRequest struct {
	courseID    string
	chapterID   string
	canonicalID string
	in          course.LessonInput
	file        curriculum.FileHandle
	rev         uint64
}

// beginLesson locates a lesson, checks its preconditions and moves it to
// Syncing. Called with the lock held.
func (c *Controller) beginLesson(chapterID, lessonID uuid.UUID) (*curriculum.Lesson, *lessonRequest, error) {
	ch, err := c.ws.Tree.Chapter(chapterID)
	if err != nil {
		return nil, nil, err
	}
	l, ok := ch.Lesson(lessonID.String())
	if !ok {
		return nil, nil, &domain.NotFoundError{Message: fmt.Sprintf("lesson %s not found in chapter %s", lessonID, chapterID)}
	}
	if !ch.IsPersisted() {
		return nil, nil, fmt.Errorf("lesson %s: %w", lessonID, domain.ErrParentNotPersisted)
	}
	if err := l.Validate(); err != nil {
		return nil, nil, err
	}
	if err := l.BeginSync(); err != nil {
		return nil, nil, err
	}
	return l, &lessonRequest{
		courseID:    c.ws.CourseID,
		chapterID:   ch.CanonicalID(),
		canonicalID: l.CanonicalID(),
		in:          l.Input(),
		file:        l.LendVideoFile(),
		rev:         l.Revision(),
	}, nil
}

// PersistLesson creates or updates a lesson. The parent chapter must be
// persisted first; otherwise domain.ErrParentNotPersisted is returned
// before any request is made. Edits made while the request is in flight
// are kept: the merge only writes the canonical id and, when the file sent
// is still the one selected, the uploaded video URL.
func (c *Controller) PersistLesson(ctx context.Context, chapterID, lessonID uuid.UUID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	l, req, err := c.beginLesson(chapterID, lessonID)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	res, err := c.sendLesson(ctx, req)

	if !c.relock("lesson", lessonID.String()) {
		releaseSent(req.file)
		return domain.ErrSessionClosed
	}
	defer c.mu.Unlock()
	defer l.ReturnVideoFile(req.file)

	if err != nil {
		l.EndSync()
		c.logger.Warn("lesson persist failed", "lesson", lessonID, "error", err)
		return &domain.PersistenceError{Entity: "lesson", LocalID: lessonID.String(), Cause: err}
	}

	l.MarkPersisted(res.LessonID, req.rev)
	if req.file != nil && res.VideoURL != "" {
		if !l.CompleteUpload(res.VideoURL, req.file) {
			c.logger.Debug("newer video selected during upload", "lesson", lessonID)
		}
	}
	c.logger.Info("lesson persisted",
		"lesson", lessonID,
		"lesson_id", res.LessonID,
		"created", req.canonicalID == "",
		"uploaded", req.file != nil,
	)
	return nil
}

// sendLesson performs the network half of PersistLesson. A create carries
// the file in the same multipart request; an update uploads it first and
// sends the returned URL.
func (c *Controller) sendLesson(ctx context.Context, req *lessonRequest) (*course.LessonResult, error) {
	if req.canonicalID == "" {
		return c.api.CreateLesson(ctx, req.courseID, req.chapterID, req.in, req.file)
	}

	uploaded := ""
	if req.file != nil {
		url, err := c.api.UploadVideo(ctx, req.file)
		if err != nil {
			return nil, fmt.Errorf("upload video: %w", err)
		}
		uploaded = url
		req.in.VideoURL = url
	}
	res, err := c.api.UpdateLesson(ctx, req.courseID, req.chapterID, req.canonicalID, req.in)
	if err != nil {
		return nil, err
	}
	if res.VideoURL == "" {
		res.VideoURL = uploaded
	}
	return res, nil
}

// UploadLessonVideo uploads a lesson's selected file on its own, before the
// lesson itself is saved. The lesson's URL is set from the response.
func (c *Controller) UploadLessonVideo(ctx context.Context, lessonID uuid.UUID) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", domain.ErrSessionClosed
	}
	_, l, err := c.ws.Tree.FindLesson(lessonID.String())
	if err == nil && l.Video().PendingFile == nil {
		err = fmt.Errorf("lesson %s has no file selected: %w", lessonID, domain.ErrInvalidFile)
	}
	if err == nil {
		err = l.BeginSync()
	}
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	file := l.LendVideoFile()
	c.mu.Unlock()

	url, err := c.api.UploadVideo(ctx, file)

	if !c.relock("lesson", lessonID.String()) {
		releaseSent(file)
		return "", domain.ErrSessionClosed
	}
	defer c.mu.Unlock()
	defer l.ReturnVideoFile(file)
	l.EndSync()

	if err != nil {
		return "", &domain.PersistenceError{Entity: "lesson video", LocalID: lessonID.String(), Cause: err}
	}
	l.CompleteUpload(url, file)
	c.logger.Info("lesson video uploaded", "lesson", lessonID, "file", file.Name())
	return url, nil
}

// DeleteLesson removes a lesson. A persisted lesson is deleted on the
// server first and only removed locally once that succeeds. A lesson with a
// request in flight is refused with domain.ErrSyncInProgress.
func (c *Controller) DeleteLesson(ctx context.Context, chapterID, lessonID uuid.UUID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	ch, err := c.ws.Tree.Chapter(chapterID)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	l, ok := ch.Lesson(lessonID.String())
	if !ok {
		c.mu.Unlock()
		return &domain.NotFoundError{Message: fmt.Sprintf("lesson %s not found in chapter %s", lessonID, chapterID)}
	}
	if l.State() == curriculum.StateSyncing {
		c.mu.Unlock()
		return fmt.Errorf("lesson %s: %w", lessonID, domain.ErrSyncInProgress)
	}
	if !l.IsPersisted() {
		err := ch.RemoveLesson(lessonID)
		c.mu.Unlock()
		return err
	}
	if err := l.BeginSync(); err != nil {
		c.mu.Unlock()
		return err
	}
	courseID, remoteChapter, remoteLesson := c.ws.CourseID, ch.CanonicalID(), l.CanonicalID()
	c.mu.Unlock()

	err = c.api.DeleteLesson(ctx, courseID, remoteChapter, remoteLesson)

	if !c.relock("lesson", lessonID.String()) {
		return domain.ErrSessionClosed
	}
	defer c.mu.Unlock()
	l.EndSync()

	if err != nil {
		return &domain.PersistenceError{Entity: "lesson", LocalID: lessonID.String(), Cause: err}
	}
	// the lesson may have moved while the request was in flight
	if owner, _, findErr := c.ws.Tree.FindLesson(lessonID.String()); findErr == nil {
		_ = owner.RemoveLesson(lessonID)
	}
	c.logger.Info("lesson deleted", "lesson", lessonID, "lesson_id", remoteLesson)
	return nil
}

// RemoveChapter removes a chapter that was never persisted. The Course API
// has no chapter delete, so persisted chapters are refused.
func (c *Controller) RemoveChapter(chapterID uuid.UUID) error {
	return c.Edit(func(ws *curriculum.Workspace) error {
		ch, err := ws.Tree.Chapter(chapterID)
		if err != nil {
			return err
		}
		if ch.IsPersisted() {
			return &domain.ValidationError{Message: fmt.Sprintf("chapter %s is saved on the server and cannot be deleted here", ch.ID())}
		}
		if ch.State() == curriculum.StateSyncing {
			return fmt.Errorf("chapter %s: %w", ch.ID(), domain.ErrSyncInProgress)
		}
		// a lesson can upload its video before the chapter is saved
		for _, l := range ch.Lessons() {
			if l.State() == curriculum.StateSyncing {
				return fmt.Errorf("chapter %s: lesson %s: %w", ch.ID(), l.ID(), domain.ErrSyncInProgress)
			}
		}
		return ws.Tree.RemoveChapter(chapterID)
	})
}

// releaseSent drops a file whose request outlived its editor. Close leaves
// lent files to the request that holds them.
func releaseSent(f curriculum.FileHandle) {
	if f != nil {
		_ = f.Release()
	}
}
