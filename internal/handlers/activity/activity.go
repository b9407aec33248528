// Package activity upgrades a single activity to its full-resolution
// polyline on demand.
package activity

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/activitymap/activitymap/internal/handlers/auth"
	"github.com/activitymap/activitymap/internal/store"
	"github.com/activitymap/activitymap/internal/strava"
	"github.com/activitymap/activitymap/internal/syncer"
)

type request struct {
	ActivityID int64 `json:"activityId"`
}

// Handler returns the POST /api/activity handler. It fetches the activity
// detail from Strava, stores the full polyline, and responds with the
// upgraded activity.
func Handler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ActivityID == 0 {
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

		detail, err := strava.GetActivity(r.Context(), sc, req.ActivityID)
		if err != nil {
			logrus.WithError(err).WithField("activity_id", req.ActivityID).Error("activity detail fetch failed")
			writeError(w, http.StatusInternalServerError, "Failed to load activity")
			return
		}

		if detail.Map.Polyline != "" {
			if err := s.UpdatePolyline(r.Context(), req.ActivityID, detail.Map.Polyline); err != nil {
				logrus.WithError(err).WithField("activity_id", req.ActivityID).Error("polyline update failed")
			}
		}

		row := syncer.ModelFromStrava(*detail)
		if detail.Map.Polyline != "" {
			p := detail.Map.Polyline
			row.Polyline = &p
		}
		out, err := syncer.DomainFromModel(row)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Activity has no route")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out) //nolint:errcheck
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
