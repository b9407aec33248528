// Package geocoding serves reverse-geocoded locations for a batch of
// activities.
package geocoding

import (
	"encoding/json"
	"net/http"

	"github.com/activitymap/activitymap/internal/activity"
	"github.com/activitymap/activitymap/internal/geocode"
)

// Handler returns the POST /api/geocoding handler. The request body is the
// list of activities to resolve; the response maps activity id to its
// location, null where none could be determined.
func Handler(resolver *geocode.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var activities []activity.Activity
		if err := json.NewDecoder(r.Body).Decode(&activities); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"}) //nolint:errcheck
			return
		}

		locations := resolver.Resolve(r.Context(), activities)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(locations) //nolint:errcheck
	}
}
