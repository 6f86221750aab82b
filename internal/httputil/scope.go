package httputil

import (
	"context"
	"net/http"
)

const scopeKey contextKey = "scope"

// RequestScope collects the ids a request resolves on its way down the
// middleware chain, so outer middleware can log them after the inner
// handlers return. Only the goroutine serving the request writes to it.
type RequestScope struct {
	UserID    string
	SessionID string
	CourseID  string
}

// WithScope attaches an empty scope to the request
func WithScope(r *http.Request) (*http.Request, *RequestScope) {
	s := &RequestScope{}
	return r.WithContext(context.WithValue(r.Context(), scopeKey, s)), s
}

func scope(r *http.Request) *RequestScope {
	s, _ := r.Context().Value(scopeKey).(*RequestScope)
	return s
}

// NoteSession records the editor session and course a request works on.
// No-op without a scope.
func NoteSession(r *http.Request, sessionID, courseID string) {
	if s := scope(r); s != nil {
		s.SessionID = sessionID
		s.CourseID = courseID
	}
}
