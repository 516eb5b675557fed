package middleware

import (
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-calendar/session"
	"go.uber.org/zap"
)

// Authenticate adopts the bearer token of the renderer into the session.
// Requests without an Authorization header keep the current identity. A token
// for another user fires the session identity hooks, same as an explicit
// sign-in.
func Authenticate(sess *session.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if token != sess.Current() {
				if err := sess.SignIn(token); err != nil {
					LoggerFromContext(r.Context()).Info("rejected bearer token", zap.Error(err))
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				LoggerFromContext(r.Context()).Debug("session identity replaced", zap.String("user_id", sess.UserID()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
