package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"coursecraft/internal/auth"
	"coursecraft/internal/httputil"
)

// Auth validates the bearer token and stores the user ID and raw token in
// the request context. Paths starting with one of publicPrefixes skip the
// check.
func Auth(verifier auth.JWTVerifier, logger *slog.Logger, publicPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range publicPrefixes {
				if strings.HasPrefix(r.URL.Path, p) {
					next.ServeHTTP(w, r)
					return
				}
			}

			token, ok := bearerToken(r)
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("unauthorized request", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			r = httputil.WithUserID(r, claims.GetUserID())
			r = r.WithContext(httputil.WithAccessToken(r.Context(), token))
			next.ServeHTTP(w, r)
		})
	}
}

// DevAuth trusts every request as userID and forwards any bearer token
// as-is. Only wired when no JWKS URL is configured outside prod.
func DevAuth(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = httputil.WithUserID(r, userID)
			if token, ok := bearerToken(r); ok {
				r = r.WithContext(httputil.WithAccessToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
