package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/activitymap/activitymap/internal/cache"
	"github.com/activitymap/activitymap/internal/geocode"
	"github.com/activitymap/activitymap/internal/model"
	"github.com/activitymap/activitymap/internal/store"
	"github.com/activitymap/activitymap/internal/strava"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&model.Athlete{}, &model.Activity{}); err != nil {
		t.Fatal(err)
	}
	return store.New(db)
}

type noopBatcher struct{}

func (noopBatcher) ReverseBatch(context.Context, []geocode.Query) ([]*geocode.Geocode, error) {
	return nil, nil
}

func testResolver(s *store.Store) *geocode.Resolver {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return geocode.NewResolver(s, cache.NewMemoryCache(), noopBatcher{}, log)
}

func TestValidate(t *testing.T) {
	t.Setenv("STRAVA_VERIFY_TOKEN", "secret")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"valid token", "?hub.verify_token=secret&hub.challenge=abc123", http.StatusOK},
		{"invalid token", "?hub.verify_token=wrong&hub.challenge=abc123", http.StatusBadRequest},
	}

	handler := Handler(testStore(t), testResolver(testStore(t)))
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/webhook"+tc.query, nil)
			rr := httptest.NewRecorder()
			handler(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("got status %d, want %d", rr.Code, tc.want)
			}
			if tc.want != http.StatusOK {
				return
			}

			var body map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["hub.challenge"] != "abc123" {
				t.Errorf(`hub.challenge = %q, want "abc123"`, body["hub.challenge"])
			}
		})
	}
}

func TestReceiveAcksBadPayload(t *testing.T) {
	s := testStore(t)
	handler := Handler(s, testResolver(s))

	req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestIngestStoresNewActivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/activities/555" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{
			"id": 555,
			"athlete": {"id": 42},
			"name": "Morning Run",
			"distance": 5000,
			"moving_time": 1500,
			"sport_type": "Run",
			"start_date": "2024-06-01T07:00:00Z",
			"map": {"summary_polyline": %q}
		}`, "_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	}))
	defer server.Close()

	base := strava.BaseURL
	strava.BaseURL = server.URL
	defer func() { strava.BaseURL = base }()

	s := testStore(t)
	ctx := context.Background()

	athlete := &model.Athlete{StravaAthleteID: 42, Username: "runner"}
	if err := s.UpsertAthlete(ctx, athlete); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAuthToken(ctx, 42, &oauth2.Token{AccessToken: "abc"}); err != nil {
		t.Fatal(err)
	}

	resolver := testResolver(s)
	err := ingest(ctx, s, resolver, strava.WebhookPayload{
		AspectType: "create",
		ObjectType: "activity",
		ObjectID:   555,
		OwnerID:    42,
	})
	if err != nil {
		t.Fatal(err)
	}
	resolver.Wait()

	stored, _, err := s.Activities(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d stored activities, want 1", len(stored))
	}
	if stored[0].ID != 555 || stored[0].Name != "Morning Run" {
		t.Errorf("stored unexpected activity %+v", stored[0])
	}
}

func TestIngestUnknownAthlete(t *testing.T) {
	s := testStore(t)
	err := ingest(context.Background(), s, testResolver(s), strava.WebhookPayload{
		AspectType: "create",
		ObjectType: "activity",
		ObjectID:   1,
		OwnerID:    99,
	})
	if err == nil {
		t.Error("expected an error for an unknown athlete")
	}
}
