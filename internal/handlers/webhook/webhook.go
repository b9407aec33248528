// Package webhook receives Strava push events and folds newly created
// activities into the stored history.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/activitymap/activitymap/internal/activity"
	"github.com/activitymap/activitymap/internal/geocode"
	"github.com/activitymap/activitymap/internal/model"
	"github.com/activitymap/activitymap/internal/store"
	"github.com/activitymap/activitymap/internal/strava"
	"github.com/activitymap/activitymap/internal/syncer"
)

// Handler returns the /webhook handler. GET answers Strava's subscription
// validation challenge; POST receives events.
func Handler(s *store.Store, resolver *geocode.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			validate(w, r)
		case http.MethodPost:
			receive(s, resolver, w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func validate(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("hub.verify_token") != os.Getenv("STRAVA_VERIFY_TOKEN") {
		http.Error(w, "verification token mismatch", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
		"hub.challenge": r.URL.Query().Get("hub.challenge"),
	})
}

// receive acknowledges the event immediately; Strava retries deliveries that
// do not get a 2xx within a couple of seconds.
func receive(s *store.Store, resolver *geocode.Resolver, w http.ResponseWriter, r *http.Request) {
	var payload strava.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	if payload.ObjectType != "activity" || payload.AspectType != "create" {
		return
	}

	go func() {
		if err := ingest(context.Background(), s, resolver, payload); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"activity_id": payload.ObjectID,
				"owner_id":    payload.OwnerID,
			}).Error("webhook ingest failed")
		}
	}()
}

// ingest fetches the new activity with the athlete's stored token, persists
// it and kicks off reverse geocoding.
func ingest(ctx context.Context, s *store.Store, resolver *geocode.Resolver, payload strava.WebhookPayload) error {
	token, err := storedToken(ctx, s, payload.OwnerID)
	if err != nil {
		return err
	}

	sc, err := strava.NewClient(oauth2.NewClient(ctx, strava.OauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return err
	}

	detail, err := strava.GetActivity(ctx, sc, payload.ObjectID)
	if err != nil {
		return err
	}

	row := syncer.ModelFromStrava(*detail)
	if detail.Map.Polyline != "" {
		p := detail.Map.Polyline
		row.Polyline = &p
	}
	if err := s.UpsertActivities(ctx, []model.Activity{row}); err != nil {
		return err
	}

	if a, err := syncer.DomainFromModel(row); err == nil {
		resolver.Resolve(ctx, []activity.Activity{a})
	}
	return nil
}

func storedToken(ctx context.Context, s *store.Store, stravaAthleteID int64) (*oauth2.Token, error) {
	stored, err := s.Athlete(ctx, stravaAthleteID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("no stored athlete %d", stravaAthleteID)
	}

	var token oauth2.Token
	if err := json.Unmarshal(stored.StravaAuthToken.Bytes, &token); err != nil {
		return nil, err
	}
	return &token, nil
}
