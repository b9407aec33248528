// Package middleware holds the shared HTTP middleware.
package middleware

import (
	"net/http"

	"github.com/activitymap/activitymap/internal/sessions"
)

// RequireAdmin is a middleware that checks if the admin user is authenticated.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := sessions.GetSession(r, sessions.Admin)
		if err != nil {
			http.Error(w, "Failed to get session", http.StatusInternalServerError)
			return
		}

		if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
			http.Redirect(w, r, "/admin/login", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}
