// Package admin implements a small password-protected dashboard listing
// every athlete and how much history is stored for them.
package admin

import (
	"html/template"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/activitymap/activitymap/internal/sessions"
	"github.com/activitymap/activitymap/internal/store"
	"github.com/activitymap/activitymap/internal/strava"
)

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Admin login</title></head>
<body>
<form method="POST" action="/admin/login">
  <input type="password" name="password" placeholder="Password" autofocus>
  <button type="submit">Log in</button>
  {{if .Failed}}<p>Wrong password.</p>{{end}}
</form>
</body>
</html>`))

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><title>Athletes</title></head>
<body>
<h1>Athletes</h1>
<table>
  <tr><th>Strava ID</th><th>Name</th><th>Public</th><th>Activities</th></tr>
  {{range .}}
  <tr><td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Public}}</td><td>{{.Activities}}</td></tr>
  {{end}}
</table>
<form method="POST" action="/admin/unsubscribe"><button type="submit">Remove webhook subscription</button></form>
<form method="POST" action="/admin/logout"><button type="submit">Log out</button></form>
</body>
</html>`))

// LoginHandler serves the login form and checks submitted passwords against
// the bcrypt hash in ADMIN_PASSWORD_HASH.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		loginTmpl.Execute(w, nil) //nolint:errcheck
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hash := os.Getenv("ADMIN_PASSWORD_HASH")
	password := r.FormValue("password")
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		w.WriteHeader(http.StatusUnauthorized)
		loginTmpl.Execute(w, struct{ Failed bool }{true}) //nolint:errcheck
		return
	}

	session, _ := sessions.GetSession(r, sessions.Admin)
	session.Values["authenticated"] = true
	if err := sessions.SaveSession(r, w, session); err != nil {
		logrus.WithError(err).Error("saving admin session")
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// LogoutHandler expires the admin session.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := sessions.GetSession(r, sessions.Admin)
	session.Values["authenticated"] = false
	session.Options.MaxAge = -1
	sessions.SaveSession(r, w, session) //nolint:errcheck
	http.Redirect(w, r, "/admin/login", http.StatusFound)
}

// UnsubscribeHandler removes the Strava webhook subscription. Wrap it with
// middleware.RequireAdmin.
func UnsubscribeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := strava.Unsubscribe(r.Context()); err != nil {
		logrus.WithError(err).Error("removing webhook subscription")
		http.Error(w, "failed to remove subscription", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
}

type athleteRow struct {
	ID         int64
	Name       string
	Public     bool
	Activities int64
}

// DashboardHandler lists every athlete with their stored activity count.
// Wrap it with middleware.RequireAdmin.
func DashboardHandler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		athletes, err := s.AllAthletes(r.Context())
		if err != nil {
			logrus.WithError(err).Error("listing athletes")
			http.Error(w, "failed to list athletes", http.StatusInternalServerError)
			return
		}

		rows := make([]athleteRow, 0, len(athletes))
		for _, a := range athletes {
			count, err := s.CountActivities(r.Context(), a.StravaAthleteID)
			if err != nil {
				logrus.WithError(err).WithField("athlete_id", a.StravaAthleteID).Warn("counting activities")
			}
			rows = append(rows, athleteRow{
				ID:         a.StravaAthleteID,
				Name:       a.Forename + " " + a.Surname,
				Public:     a.Public,
				Activities: count,
			})
		}

		dashboardTmpl.Execute(w, rows) //nolint:errcheck
	}
}
