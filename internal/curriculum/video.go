package curriculum

import (
	"fmt"
	"strings"

	"coursecraft/internal/config"
	"coursecraft/internal/domain"
	"coursecraft/internal/mediatypes"
)

// VideoKind is where a lesson's video comes from
type VideoKind string

const (
	VideoUpload        VideoKind = "upload" // file uploaded through the Course API
	VideoExternalLink  VideoKind = "link"   // direct link to a hosted file
	VideoPlatformEmbed VideoKind = "embed"  // video platform page (YouTube, Vimeo...)
)

// ParseVideoKind validates a wire value
func ParseVideoKind(s string) (VideoKind, error) {
	switch k := VideoKind(strings.ToLower(strings.TrimSpace(s))); k {
	case VideoUpload, VideoExternalLink, VideoPlatformEmbed:
		return k, nil
	}
	return "", &domain.ValidationError{Message: fmt.Sprintf("unknown video type %q", s)}
}

// VideoSource binds a lesson to its video. At most one of url and the
// pending file is set, and only the one the current kind uses:
// Upload holds a pending file or, once uploaded, the server URL;
// link and embed hold only a URL.
type VideoSource struct {
	kind    VideoKind
	url     string
	pending FileHandle
	sending FileHandle // lent to an in-flight request, see Lend
	preview Preview
}

// VideoState is a read-only view of a VideoSource
type VideoState struct {
	Kind        VideoKind  `json:"kind"`
	URL         string     `json:"url,omitempty"`
	PendingFile FileHandle `json:"-"`
	PreviewURL  string     `json:"preview_url,omitempty"`
}

// NewVideoSource starts an empty binding of the given kind
func NewVideoSource(kind VideoKind) *VideoSource {
	if kind == "" {
		kind = VideoUpload
	}
	return &VideoSource{kind: kind}
}

func (v *VideoSource) Kind() VideoKind         { return v.kind }
func (v *VideoSource) URL() string             { return v.url }
func (v *VideoSource) PendingFile() FileHandle { return v.pending }

// State snapshots the binding
func (v *VideoSource) State() VideoState {
	st := VideoState{Kind: v.kind, URL: v.url, PendingFile: v.pending}
	if v.preview != nil {
		st.PreviewURL = v.preview.URL()
	}
	return st
}

// SetKind switches the source kind, discarding anything chosen for the old
// kind. Returns false when k is already the current kind.
func (v *VideoSource) SetKind(k VideoKind) (bool, error) {
	k, err := ParseVideoKind(string(k))
	if err != nil {
		return false, err
	}
	if k == v.kind {
		return false, nil
	}
	v.discard()
	v.url = ""
	v.kind = k
	return true, nil
}

// AttachFile selects a local file for upload. On error nothing changes and
// f still belongs to the caller. previews may be nil.
func (v *VideoSource) AttachFile(f FileHandle, previews *PreviewRegistry) error {
	if v.kind != VideoUpload {
		return fmt.Errorf("attach file to %s source: %w", v.kind, domain.ErrWrongSourceKind)
	}
	if f == nil {
		return fmt.Errorf("no file given: %w", domain.ErrInvalidFile)
	}
	if err := checkVideoFile(f); err != nil {
		return err
	}

	v.discard()
	v.url = ""
	v.pending = f
	if previews != nil {
		v.preview = previews.Open(f)
	}
	return nil
}

// SetURL stores a link for link and embed sources. Format checks belong to
// the caller.
func (v *VideoSource) SetURL(url string) error {
	if v.kind == VideoUpload {
		return fmt.Errorf("set url on upload source: %w", domain.ErrWrongSourceKind)
	}
	v.url = url
	return nil
}

// CompleteUpload records the server URL for an upload that finished and
// releases the local file. It only applies when sent is still the pending
// file, so a file picked while the upload was running is kept.
func (v *VideoSource) CompleteUpload(url string, sent FileHandle) bool {
	if v.kind != VideoUpload || sent == nil || v.pending != sent {
		return false
	}
	if v.preview != nil {
		v.preview.Release()
		v.preview = nil
	}
	// the server has its own copy now
	_ = v.pending.Release()
	v.pending = nil
	v.sending = nil
	v.url = url
	return true
}

// Lend marks the pending file as being sent and returns it (nil when none).
// Until FinishSend, replacing or discarding the selection only detaches the
// lent file; the request keeps reading it.
func (v *VideoSource) Lend() FileHandle {
	v.sending = v.pending
	return v.pending
}

// FinishSend ends the loan of sent once its request has returned. A file
// that was detached while it was being sent is released here.
func (v *VideoSource) FinishSend(sent FileHandle) {
	if sent == nil || v.sending != sent {
		return
	}
	v.sending = nil
	if v.pending != sent {
		_ = sent.Release()
	}
}

// Release drops the preview and any pending file. Safe to call repeatedly.
// A lent file is left to FinishSend.
func (v *VideoSource) Release() {
	v.discard()
}

func (v *VideoSource) discard() {
	if v.preview != nil {
		v.preview.Release()
		v.preview = nil
	}
	if v.pending != nil {
		if v.pending != v.sending {
			_ = v.pending.Release() // Error ignored: the file is abandoned either way
		}
		v.pending = nil
	}
}

func checkVideoFile(f FileHandle) error {
	formats := mediatypes.MustDefault()

	contentType := f.ContentType()
	if _, ok := formats.Match(f.Name(), contentType); !ok && isUnknownType(contentType) {
		// no declared type and no known extension: look at the bytes
		if rc, err := f.Open(); err == nil {
			sniffed, sniffErr := formats.Sniff(rc)
			_ = rc.Close()
			if sniffErr == nil {
				contentType = sniffed
			}
		}
	}
	if _, ok := formats.Match(f.Name(), contentType); !ok {
		return fmt.Errorf("%s (%s): %w", f.Name(), contentType, domain.ErrInvalidFile)
	}

	if f.Size() > config.MaxVideoFileSize {
		return fmt.Errorf("%s is %d bytes, limit %d: %w", f.Name(), f.Size(), config.MaxVideoFileSize, domain.ErrFileTooLarge)
	}
	return nil
}

func isUnknownType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" || strings.HasPrefix(ct, "application/octet-stream")
}
