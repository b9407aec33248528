// Package activities serves the athlete's full activity history, syncing
// anything the database does not already hold from Strava first.
package activities

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/activitymap/activitymap/internal/handlers/auth"
	"github.com/activitymap/activitymap/internal/strava"
	"github.com/activitymap/activitymap/internal/syncer"
)

type request struct {
	AthleteID          int64 `json:"athleteId"`
	TotalActivityCount int64 `json:"totalActivityCount"`
}

// Handler returns the POST /api/activities handler.
func Handler(sync *syncer.Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AthleteID == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

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

		rows, err := sync.Sync(r.Context(), sc, req.AthleteID, req.TotalActivityCount)
		if err != nil {
			logrus.WithError(err).WithField("athlete_id", req.AthleteID).Error("activity sync failed")
			writeError(w, http.StatusInternalServerError, "Failed to load activities")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(syncer.DomainFromModels(rows)) //nolint:errcheck
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
