package session

import (
	"context"
	"net/http"
	"strings"

	"Storefront/pkg/kit"
)

type ctxKey string

const sessionKey ctxKey = "session"

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}

// Auth resolves the Bearer session token and injects the live session into
// the request context. Expired or unknown sessions are rejected; the client
// starts over with POST /sessions.
func Auth(tokens *TokenMaker, sessions *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing session token", nil)
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(authz, "Bearer "))
			if err != nil || claims.SessionID == "" {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid session token", nil)
				return
			}

			s, ok := sessions.Get(claims.SessionID)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "session expired", nil)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
