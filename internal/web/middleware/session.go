package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/sheetlookup/internal/searchlog"
)

// SessionCookie names the cookie that carries the visitor session.
const SessionCookie = "lookup_session"

const sessionMaxAge = 365 * 24 * time.Hour

type sessionKey struct{}

// Session ties every request to a visitor session. A missing or malformed
// cookie is replaced with a fresh session.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var session searchlog.Session
		if c, err := r.Cookie(SessionCookie); err == nil {
			session, _ = searchlog.ParseSession(c.Value)
		}
		if session == "" {
			session = searchlog.NewSession()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    string(session),
				Path:     "/",
				MaxAge:   int(sessionMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext returns the session stored by Session.
func SessionFromContext(ctx context.Context) (searchlog.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(searchlog.Session)
	return s, ok
}
