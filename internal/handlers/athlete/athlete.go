// Package athlete serves athlete profiles: the authenticated athlete's own
// profile refreshed from Strava, or another athlete's when their map is
// public.
package athlete

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/activitymap/activitymap/internal/handlers/auth"
	"github.com/activitymap/activitymap/internal/model"
	"github.com/activitymap/activitymap/internal/store"
	"github.com/activitymap/activitymap/internal/strava"
)

type request struct {
	// User selects another athlete's public profile. Zero means "me".
	User int64 `json:"user"`
}

type profile struct {
	ID            int64   `json:"id"`
	Username      string  `json:"username"`
	Firstname     string  `json:"firstname"`
	Lastname      string  `json:"lastname"`
	Bio           string  `json:"bio"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	Country       string  `json:"country"`
	Sex           string  `json:"sex"`
	Weight        float64 `json:"weight"`
	Profile       string  `json:"profile"`
	ProfileMedium string  `json:"profile_medium"`
	Public        bool    `json:"public"`
}

type response struct {
	Athlete            profile `json:"athlete"`
	TotalActivityCount int64   `json:"totalActivityCount"`
}

// Handler returns the POST /api/athlete handler.
func Handler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.User != 0 {
			publicProfile(s, w, r, req.User)
			return
		}
		ownProfile(s, w, r)
	}
}

// publicProfile serves a stored athlete, but only when they have opted in
// to a public map.
func publicProfile(s *store.Store, w http.ResponseWriter, r *http.Request, stravaAthleteID int64) {
	stored, err := s.Athlete(r.Context(), stravaAthleteID)
	if err != nil {
		logrus.WithError(err).Error("athlete lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to load athlete")
		return
	}
	if stored == nil {
		writeError(w, http.StatusNotFound, "Athlete not found")
		return
	}
	if !stored.Public {
		writeError(w, http.StatusForbidden, "This athlete's map is not public")
		return
	}

	count, err := s.CountActivities(r.Context(), stravaAthleteID)
	if err != nil {
		logrus.WithError(err).Error("activity count failed")
		writeError(w, http.StatusInternalServerError, "Failed to load athlete")
		return
	}

	writeJSON(w, response{Athlete: profileFromModel(stored), TotalActivityCount: count})
}

// ownProfile refreshes the authenticated athlete from Strava and stores the
// result.
func ownProfile(s *store.Store, w http.ResponseWriter, r *http.Request) {
	hc, ok := auth.Client(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	sc, err := strava.NewClient(hc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client")
		return
	}

	me, err := strava.GetAthlete(r.Context(), sc)
	if err != nil {
		logrus.WithError(err).Error("athlete fetch failed")
		writeError(w, http.StatusInternalServerError, "Failed to load athlete")
		return
	}
	stats, err := strava.GetAthleteStats(r.Context(), sc, me.ID)
	if err != nil {
		logrus.WithError(err).Error("athlete stats fetch failed")
		writeError(w, http.StatusInternalServerError, "Failed to load athlete stats")
		return
	}

	row := modelFromStrava(me)
	if err := s.UpsertAthlete(r.Context(), row); err != nil {
		logrus.WithError(err).Error("athlete upsert failed")
	}

	// Publicity lives only in the database, so read it back after the upsert.
	if stored, err := s.Athlete(r.Context(), me.ID); err == nil && stored != nil {
		row.Public = stored.Public
	}

	writeJSON(w, response{
		Athlete:            profileFromModel(row),
		TotalActivityCount: stats.TotalActivityCount(),
	})
}

func modelFromStrava(a *strava.Athlete) *model.Athlete {
	return &model.Athlete{
		StravaAthleteID: a.ID,
		Username:        a.Username,
		Forename:        a.Firstname,
		Surname:         a.Lastname,
		Bio:             a.Bio,
		City:            a.City,
		State:           a.State,
		Country:         a.Country,
		Sex:             a.Sex,
		Weight:          a.Weight,
		Profile:         a.Profile,
		ProfileMedium:   a.ProfileMedium,
	}
}

func profileFromModel(m *model.Athlete) profile {
	return profile{
		ID:            m.StravaAthleteID,
		Username:      m.Username,
		Firstname:     m.Forename,
		Lastname:      m.Surname,
		Bio:           m.Bio,
		City:          m.City,
		State:         m.State,
		Country:       m.Country,
		Sex:           m.Sex,
		Weight:        m.Weight,
		Profile:       m.Profile,
		ProfileMedium: m.ProfileMedium,
		Public:        m.Public,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
