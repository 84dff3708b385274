// Package auth protects the migas MCP endpoint with a bearer token.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/jamesprial/migas-go/internal/logging"
)

const bearerPrefix = "Bearer "

// NewAuthMiddleware returns an HTTP middleware that enforces bearer token
// authentication. If the configured token is empty, authentication is disabled
// and all requests pass through to the next handler unconditionally.
//
// When enabled, the request must carry
//
//	Authorization: Bearer <token>
//
// with a case-sensitive prefix and exactly one space. Anything else gets a
// 401 with a WWW-Authenticate challenge and never reaches next.
func NewAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided, ok := bearerToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				logging.Logger().Debug().Str("remote", r.RemoteAddr).Str("path", r.URL.Path).Msg("rejected unauthenticated request")
				w.Header().Set("WWW-Authenticate", `Bearer realm="migas"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts a non-empty token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", false
	}
	tok := h[len(bearerPrefix):]
	return tok, tok != ""
}
