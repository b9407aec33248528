// Package publicity lets an athlete toggle whether their map is public.
package publicity

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/activitymap/activitymap/internal/handlers/auth"
	"github.com/activitymap/activitymap/internal/store"
)

type request struct {
	AthleteID int64 `json:"athleteId"`
	Publicity bool  `json:"publicity"`
}

// Handler returns the POST /api/publicity handler.
func Handler(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if _, err := auth.AccessToken(r); err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AthleteID == 0 {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := s.SetPublicity(r.Context(), req.AthleteID, req.Publicity); err != nil {
			logrus.WithError(err).WithField("athlete_id", req.AthleteID).Error("publicity update failed")
			writeError(w, http.StatusInternalServerError, "Failed to update publicity")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"publicity": req.Publicity}) //nolint:errcheck
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
