package handler

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"coursecraft/internal/config"
	"coursecraft/internal/curriculum"
	"coursecraft/internal/httputil"
	"coursecraft/internal/mediatypes"
	"coursecraft/internal/service/editor"
	"coursecraft/internal/service/reconcile"
)

type chapterRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r *chapterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title,
			validation.Required,
			validation.Length(1, config.MaxChapterTitleLength),
		),
		validation.Field(&r.Description, validation.Length(0, config.MaxDescriptionLength)),
	)
}

// updateRequest patches a chapter, lesson or note. Duration only applies to
// lessons. titleLimit is set by the handler before decoding.
type updateRequest struct {
	Title       httputil.OptionalString `json:"title"`
	Description httputil.OptionalString `json:"description"`
	Duration    httputil.OptionalString `json:"duration"`

	titleLimit int
}

func (r *updateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, whenSent(validation.Required, validation.Length(1, r.titleLimit))),
		validation.Field(&r.Description, whenSent(validation.Length(0, config.MaxDescriptionLength))),
		validation.Field(&r.Duration, whenSent(validation.Length(0, config.MaxDurationLength))),
	)
}

type createLessonRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	VideoKind   string `json:"video_kind"` // upload (default), link or embed
}

func (r *createLessonRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title,
			validation.Required,
			validation.Length(1, config.MaxLessonTitleLength),
		),
		validation.Field(&r.Description, validation.Length(0, config.MaxDescriptionLength)),
		validation.Field(&r.Duration, validation.Length(0, config.MaxDurationLength)),
		validation.Field(&r.VideoKind, validation.By(videoKind)),
	)
}

// moveRequest places a node at Position. ChapterID moves a lesson into
// another chapter.
type moveRequest struct {
	ChapterID *uuid.UUID `json:"chapter_id,omitempty"`
	Position  *int       `json:"position"`
}

func (r *moveRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Position, validation.NotNil, validation.Min(0)),
	)
}

type videoRequest struct {
	Kind httputil.OptionalString `json:"kind"`
	URL  httputil.OptionalString `json:"url"`
}

func (r *videoRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Kind, whenSent(validation.Required, validation.By(videoKind))),
		validation.Field(&r.URL, whenSent(validation.Length(0, config.MaxURLLength))),
	)
}

// timestampRequest takes the time as typed by the author ("1:30", "01:02:03")
type timestampRequest struct {
	Time        string `json:"time"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r *timestampRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Time, validation.Required),
		validation.Field(&r.Title,
			validation.Required,
			validation.Length(1, config.MaxTimestampTitleLength),
		),
		validation.Field(&r.Description, validation.Length(0, config.MaxDescriptionLength)),
	)
}

// whenSent applies rules to an optional field that carries a value
func whenSent(rules ...validation.Rule) validation.Rule {
	return validation.By(func(value any) error {
		o, _ := value.(httputil.OptionalString)
		v, ok := o.Get()
		if !ok {
			return nil
		}
		return validation.Validate(v, rules...)
	})
}

func videoKind(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := curriculum.ParseVideoKind(s)
	return err
}

// decodeRequest parses a JSON body and checks it, answering 400 on failure
func decodeRequest(w http.ResponseWriter, r *http.Request, req validation.Validatable) bool {
	if err := httputil.ParseJSON(w, r, req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

type sessionResponse struct {
	Session   *editor.Session     `json:"session"`
	Workspace curriculum.Snapshot `json:"workspace"`
}

type createdResponse struct {
	ID        uuid.UUID           `json:"id"`
	Workspace curriculum.Snapshot `json:"workspace"`
}

type timestampResponse struct {
	Timestamp curriculum.Timestamp `json:"timestamp"`
	Workspace curriculum.Snapshot  `json:"workspace"`
}

type persistAllResponse struct {
	Report    *reconcile.Report   `json:"report"`
	Workspace curriculum.Snapshot `json:"workspace"`
}

type progressResponse struct {
	Outline  []curriculum.OutlineEntry `json:"outline"`
	Progress curriculum.Progress       `json:"progress"`
}

type formatsResponse struct {
	Accept       string              `json:"accept"`
	Formats      []mediatypes.Format `json:"formats"`
	MaxVideoSize int64               `json:"max_video_size"`
	MaxNoteSize  int64               `json:"max_note_size"`
}
