// Package session binds each browser to a conversation through a cookie.
package session

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CookieName carries the conversation identifier.
const CookieName = "geochat_session"

type contextKey struct{}

// WithID stores the session identifier in ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identifier set by Middleware, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Middleware reuses a valid session cookie or issues a new one.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(CookieName); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				id = cookie.Value
			}
		}

		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}
