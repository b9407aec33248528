// Package auth implements the Strava OAuth flow: authorize redirect, code
// exchange callback, token refresh and logout.
package auth

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/jackc/pgtype"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/activitymap/activitymap/internal/model"
	"github.com/activitymap/activitymap/internal/sessions"
	"github.com/activitymap/activitymap/internal/store"
	"github.com/activitymap/activitymap/internal/strava"
)

// LoginHandler sends the browser to Strava's authorize page.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	u := strava.OauthConfig.AuthCodeURL(os.Getenv("STATE_TOKEN"))
	logrus.WithField("url", u).Info("redirecting to strava auth")
	http.Redirect(w, r, u, http.StatusFound)
}

// CallbackHandler exchanges the authorization code for tokens, stores them
// and records the athlete.
func CallbackHandler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			logrus.WithError(err).Error("unable to parse form")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if state := r.Form.Get("state"); state != os.Getenv("STATE_TOKEN") {
			http.Error(w, "state invalid", http.StatusBadRequest)
			return
		}
		code := r.Form.Get("code")
		if code == "" {
			http.Error(w, "code not found", http.StatusBadRequest)
			return
		}

		token, err := strava.OauthConfig.Exchange(r.Context(), code)
		if err != nil {
			logrus.WithError(err).Error("token exchange failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		athlete, ok := token.Extra("athlete").(map[string]any)
		if !ok {
			logrus.Error("unable to get athlete info")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		athleteID, ok := athlete["id"].(float64)
		if !ok {
			logrus.Error("athlete info has no id")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		row := &model.Athlete{StravaAthleteID: int64(athleteID)}
		if username, ok := athlete["username"].(string); ok {
			row.Username = username
		}
		if raw, err := json.Marshal(token); err == nil {
			row.StravaAuthToken = pgtype.JSONB{Bytes: raw, Status: pgtype.Present}
		}
		if err := s.UpsertAthlete(r.Context(), row); err != nil {
			logrus.WithError(err).Error("unable to store athlete")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err := s.SaveAuthToken(r.Context(), int64(athleteID), token); err != nil {
			logrus.WithError(err).Error("unable to store token")
		}

		setTokenCookies(w, token)

		session, err := sessions.GetSession(r, sessions.Athlete)
		if err == nil {
			session.Values["athlete_id"] = int64(athleteID)
			if err := sessions.SaveSession(r, w, session); err != nil {
				logrus.WithError(err).Error("unable to save session")
			}
		}

		logrus.WithField("athlete", int64(athleteID)).Info("successfully authenticated")

		// Keep the map fresh without manual refreshes.
		if ok, err := strava.Subscribe(r.Context()); !ok {
			logrus.WithError(err).Warn("failed to subscribe to strava webhook")
		}

		http.Redirect(w, r, "/", http.StatusFound)
	}
}

// CheckHandler reports whether the browser holds a usable access token.
func CheckHandler(w http.ResponseWriter, r *http.Request) {
	_, err := r.Cookie(accessTokenCookie)
	authenticated := err == nil

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"authenticated": authenticated}) //nolint:errcheck
}

// LogoutHandler clears the token cookies and the athlete session.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	clearTokenCookies(w)

	session, err := sessions.GetSession(r, sessions.Athlete)
	if err == nil {
		delete(session.Values, "athlete_id")
		session.Options.MaxAge = -1
		sessions.SaveSession(r, w, session) //nolint:errcheck
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true}) //nolint:errcheck
}

// Client builds an authenticated Strava API client from the request's
// access token cookie. The second return is false when no token is present.
func Client(r *http.Request) (*http.Client, bool) {
	token, err := AccessToken(r)
	if err != nil {
		return nil, false
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return oauth2.NewClient(r.Context(), ts), true
}
