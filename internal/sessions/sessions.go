// Package sessions wraps the cookie session store.
package sessions

import (
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/sessions"
)

// Session names used across the handlers.
const (
	Athlete = "athlete-session"
	Admin   = "admin-session"
)

var (
	store     *sessions.CookieStore
	storeOnce sync.Once
)

func cookieStore() *sessions.CookieStore {
	storeOnce.Do(func() {
		key := os.Getenv("SESSION_KEY")
		if key == "" {
			panic("SESSION_KEY environment variable not set")
		}
		store = sessions.NewCookieStore([]byte(key))
		store.Options = &sessions.Options{
			Path:     "/",
			MaxAge:   3600 * 8, // 8 hours
			HttpOnly: true,
			Secure:   os.Getenv("ENV") != "dev" && os.Getenv("ENV") != "test",
			SameSite: http.SameSiteLaxMode,
		}
	})
	return store
}

// GetSession retrieves the named session from the request.
func GetSession(r *http.Request, name string) (*sessions.Session, error) {
	return cookieStore().Get(r, name)
}

// SaveSession saves the session.
func SaveSession(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	return cookieStore().Save(r, w, session)
}
