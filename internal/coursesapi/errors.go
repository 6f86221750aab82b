package coursesapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"coursecraft/internal/domain"
)

// APIError is a non-2xx answer from the Course API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("course api error (status %d): %s", e.StatusCode, e.Message)
}

// Is lets callers test with errors.Is(err, domain.ErrNotFound) and friends
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case domain.ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case domain.ErrUpstream:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// newAPIError pulls a message out of the usual {"message": ...} or
// {"error": ...} bodies, falling back to the raw text.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, m := range []string{payload.Message, payload.Error, payload.Detail} {
			if m != "" {
				msg = m
				break
			}
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
