package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"coursecraft/internal/domain"
	"coursecraft/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionClosed):
		httputil.RespondError(w, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrSyncInProgress),
		errors.Is(err, domain.ErrParentNotPersisted):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrFileTooLarge):
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, domain.ErrInvalidFile):
		httputil.RespondError(w, http.StatusUnsupportedMediaType, err.Error())
	// Before NotFound: a 404 from the Course API during a save is a failed
	// save, not a missing local node
	case errors.Is(err, domain.ErrPersistenceFailed),
		errors.Is(err, domain.ErrUpstream):
		httputil.RespondError(w, http.StatusBadGateway, err.Error())
	case domain.IsEditorValidation(err):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PathParam extracts a required path parameter. Writes 400 and returns
// false when it is missing.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return v, true
}

// PathUUID extracts a local node id from the path
func PathUUID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	v, ok := PathParam(w, r, name, label)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(v)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, label+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
