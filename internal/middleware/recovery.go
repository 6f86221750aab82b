package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"coursecraft/internal/httputil"
)

// Recovery turns a handler panic into a 500 problem response. It sits
// outside Auth, so the author, session and course are read from the
// request scope the inner layers fill in.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, sc := httputil.WithScope(r)
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("editor request panicked",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"user_id", sc.UserID,
						"session_id", sc.SessionID,
						"course_id", sc.CourseID,
						"stack", string(debug.Stack()),
					)

					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
