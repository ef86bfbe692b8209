package auth

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/ghuser/salesledger/pkg/httpx"
	"github.com/ghuser/salesledger/pkg/logger"
)

// RequireAuth is a chi middleware that enforces a logged-in session. It
// puts the session's username into the request context as the audit actor.
// Returns 401 if the cookie is missing, invalid or carries no username.
//
// After this middleware, handlers can call auth.ActorFromCtx(r.Context()).
func RequireAuth(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := store.Get(r, sessionName)
			if err != nil {
				log.WarnContext(r.Context(), "invalid session cookie", "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			username, ok := session.Values[sessionUsernameKey].(string)
			if !ok || username == "" {
				log.DebugContext(r.Context(), "session has no username")
				httpx.JSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), username)))
		})
	}
}
