package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/activitymap/activitymap/internal/sessions"
)

func TestRequireAdmin(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SESSION_KEY", "test-session-key")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAdmin(next)

	t.Run("unauthenticated redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusFound {
			t.Fatalf("got status %d, want %d", rr.Code, http.StatusFound)
		}
		if loc := rr.Header().Get("Location"); loc != "/admin/login" {
			t.Errorf("redirected to %q, want /admin/login", loc)
		}
	})

	t.Run("authenticated session passes through", func(t *testing.T) {
		seed := httptest.NewRequest(http.MethodGet, "/admin", nil)
		seedRec := httptest.NewRecorder()
		session, err := sessions.GetSession(seed, sessions.Admin)
		if err != nil {
			t.Fatal(err)
		}
		session.Values["authenticated"] = true
		if err := sessions.SaveSession(seed, seedRec, session); err != nil {
			t.Fatal(err)
		}

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		for _, c := range seedRec.Result().Cookies() {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("got status %d, want %d", rr.Code, http.StatusNoContent)
		}
	})
}
