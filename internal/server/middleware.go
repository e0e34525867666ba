package server

import (
	"net/http"
	"strings"
	"time"

	"bashgate/internal/oauth"
	"bashgate/pkg/logging"
	pkgoauth "bashgate/pkg/oauth"
)

// requireToken wraps a handler with bearer token validation. Requests
// without a valid token get a uniform 401 with a WWW-Authenticate header
// pointing at the discovery document; the error code attribute is only
// included when a token was actually presented (RFC 6750 section 3.1).
// Validated tokens are stored in the request context for downstream
// handlers.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, presented := bearerToken(r)
		if !presented {
			s.writeUnauthorized(w, "")
			return
		}

		token, err := s.validator.Authenticate(bearer)
		if err != nil {
			s.writeUnauthorized(w, oauth.ErrorCodeInvalidToken)
			return
		}

		ctx := oauth.ContextWithToken(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the bearer token from the Authorization header.
// The second return reports whether any credential was presented at all;
// a malformed or non-Bearer header counts as presented so that the 401
// response can carry an error code.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// writeUnauthorized writes the uniform 401 response for the protected
// resource. Whether the token was missing, unknown, or expired is not
// distinguishable from the outside.
func (s *Server) writeUnauthorized(w http.ResponseWriter, errCode string) {
	w.Header().Set("WWW-Authenticate", pkgoauth.FormatBearerChallenge(ServerName, s.metadataURL(), errCode))
	writeError(w, oauth.ErrorCodeInvalidToken, "missing or invalid access token", http.StatusUnauthorized)
}

// withCORS sets permissive CORS headers and short-circuits preflight
// requests. Only the programmatic OAuth endpoints are wrapped with this;
// the interactive pages are not.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the underlying writer so streaming responses keep
// working behind the middleware.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests logs every request with its status and duration.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logging.Debug("Server", "%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
