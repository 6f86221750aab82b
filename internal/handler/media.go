package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"coursecraft/internal/config"
	"coursecraft/internal/curriculum"
	"coursecraft/internal/domain"
	"coursecraft/internal/httputil"
	"coursecraft/internal/service/editor"
)

// maxFormField bounds the text fields sent next to a file
const maxFormField = 8 << 10

// multipartUpload is one file part plus the text fields around it
type multipartUpload struct {
	File   *editor.SpooledFile
	Fields map[string]string
}

// SetVideoSource switches the video kind or sets a link/embed URL
// PUT /api/sessions/{session}/chapters/{chapter}/lessons/{lesson}/video
func (h *EditorHandler) SetVideoSource(w http.ResponseWriter, r *http.Request) {
	s, chapterID, lessonID, ok := h.lessonPath(w, r)
	if !ok {
		return
	}

	var req videoRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	h.edit(w, s, func(ws *curriculum.Workspace) error {
		l, err := lessonIn(ws, chapterID, lessonID)
		if err != nil {
			return err
		}
		if v, ok := req.Kind.Get(); ok {
			kind, err := curriculum.ParseVideoKind(v)
			if err != nil {
				return err
			}
			if err := l.SetVideoKind(kind); err != nil {
				return err
			}
		}
		if v, ok := req.URL.Get(); ok {
			return l.SetVideoURL(v)
		}
		return nil
	})
}

// AttachVideo selects a local video file for an upload lesson. The file is
// checked and previewable right away but only sent on persist or upload.
// PUT /api/sessions/{session}/chapters/{chapter}/lessons/{lesson}/video/file
func (h *EditorHandler) AttachVideo(w http.ResponseWriter, r *http.Request) {
	s, chapterID, lessonID, ok := h.lessonPath(w, r)
	if !ok {
		return
	}

	upload, err := h.readUpload(w, r, "video", config.MaxVideoFileSize)
	if err != nil {
		handleError(w, err)
		return
	}

	err = s.Controller.Edit(func(ws *curriculum.Workspace) error {
		l, err := lessonIn(ws, chapterID, lessonID)
		if err != nil {
			return err
		}
		return l.AttachVideo(upload.File, s.Controller.Previews())
	})
	if err != nil {
		_ = upload.File.Release()
		handleError(w, err)
		return
	}
	h.respondWorkspace(w, http.StatusOK, s)
}

// UploadVideo sends the pending video now, without saving the lesson
// POST /api/sessions/{session}/chapters/{chapter}/lessons/{lesson}/video/upload
func (h *EditorHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	s, _, lessonID, ok := h.lessonPath(w, r)
	if !ok {
		return
	}

	url, err := s.Controller.UploadLessonVideo(r.Context(), lessonID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"video_url": url})
}

// ServePreview streams a pending file for local playback. Tokens are
// unguessable and die when the file is uploaded or discarded.
// GET /previews/{token}
func (h *EditorHandler) ServePreview(w http.ResponseWriter, r *http.Request) {
	token, ok := PathParam(w, r, "token", "Preview token")
	if !ok {
		return
	}
	f, ok := h.manager.Preview(token)
	if !ok {
		httputil.RespondError(w, http.StatusNotFound, "preview not found")
		return
	}

	rc, err := f.Open()
	if err != nil {
		h.logger.Error("failed to open preview", "token", token, "error", err)
		httputil.RespondError(w, http.StatusNotFound, "preview not found")
		return
	}
	defer rc.Close()

	if ct := f.ContentType(); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, f.Name(), time.Time{}, rs)
		return
	}
	w.Header().Set("Content-Length", fmt.Sprint(f.Size()))
	_, _ = io.Copy(w, rc)
}

// ListFormats describes the accepted video formats and size limits
// GET /api/video-formats
func (h *EditorHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, formatsResponse{
		Accept:       h.formats.AcceptAttribute(),
		Formats:      h.formats.Formats(),
		MaxVideoSize: config.MaxVideoFileSize,
		MaxNoteSize:  config.MaxNoteFileSize,
	})
}

// readUpload streams a multipart body, spooling the part named fileField
// to disk and keeping the small text fields. The body is never buffered in
// memory as a whole.
func (h *EditorHandler) readUpload(w http.ResponseWriter, r *http.Request, fileField string, limit int64) (*multipartUpload, error) {
	// Room for the text fields and part headers on top of the file
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: expected multipart/form-data", domain.ErrValidation)
	}

	upload := &multipartUpload{Fields: map[string]string{}}
	fail := func(err error) (*multipartUpload, error) {
		if upload.File != nil {
			_ = upload.File.Release()
		}
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(uploadError(err))
		}

		name := part.FormName()
		switch {
		case name == fileField && part.FileName() != "":
			if upload.File != nil {
				part.Close()
				return fail(fmt.Errorf("%w: more than one %s file", domain.ErrValidation, fileField))
			}
			f, err := editor.Spool(h.spoolDir, part.FileName(), partContentType(part), part, limit)
			part.Close()
			if err != nil {
				return fail(uploadError(err))
			}
			upload.File = f
		case name != "":
			value, err := io.ReadAll(io.LimitReader(part, maxFormField+1))
			part.Close()
			if err != nil {
				return fail(uploadError(err))
			}
			if len(value) > maxFormField {
				return fail(fmt.Errorf("%w: field %s too long", domain.ErrValidation, name))
			}
			upload.Fields[name] = string(value)
		default:
			part.Close()
		}
	}

	if upload.File == nil {
		return nil, fmt.Errorf("%w: missing %s file", domain.ErrValidation, fileField)
	}
	return upload, nil
}

// uploadError turns a body that went over MaxBytesReader into ErrFileTooLarge
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: request body over %d bytes", domain.ErrFileTooLarge, maxErr.Limit)
	}
	if errors.Is(err, domain.ErrFileTooLarge) {
		return err
	}
	return fmt.Errorf("%w: malformed upload: %v", domain.ErrValidation, err)
}

// partContentType returns the declared media type without parameters.
// Unknown types are left for the video check to sniff.
func partContentType(part *multipart.Part) string {
	ct := part.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}
