// pkg/middleware/session.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"signupgw/pkg/sessions"
)

const SessionCookie = "sgw_session"

type ctxSessionKey struct{}

// WithSession resolves the session cookie against the store, creating a
// fresh session (and setting the cookie) when none exists or the stored
// entry has expired. Health and metrics endpoints are skipped.
func WithSession(store sessions.Store, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/healthz", "/metrics", "/robots.txt":
				next.ServeHTTP(w, r)
				return
			}
			var sess *sessions.Session
			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				if s, err := store.Get(r.Context(), c.Value); err == nil {
					sess = s
				}
			}
			if sess == nil {
				sess = &sessions.Session{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
				_ = store.Put(r.Context(), sess)
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the request session, or nil outside WithSession.
func SessionFrom(ctx context.Context) *sessions.Session {
	if v := ctx.Value(ctxSessionKey{}); v != nil {
		if s, ok := v.(*sessions.Session); ok {
			return s
		}
	}
	return nil
}
