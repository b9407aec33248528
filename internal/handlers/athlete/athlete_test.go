package athlete

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

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

func TestPublicProfile(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	public := &model.Athlete{StravaAthleteID: 1, Username: "visible", Forename: "Ada", Public: true}
	private := &model.Athlete{StravaAthleteID: 2, Username: "hidden"}
	for _, a := range []*model.Athlete{public, private} {
		if err := s.UpsertAthlete(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SetPublicity(ctx, 1, true); err != nil {
		t.Fatal(err)
	}
	polyline := "abc"
	if err := s.UpsertActivities(ctx, []model.Activity{
		{ID: 10, AthleteID: 1, SummaryPolyline: &polyline},
		{ID: 11, AthleteID: 1, SummaryPolyline: &polyline},
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"public athlete", `{"user":1}`, http.StatusOK},
		{"private athlete", `{"user":2}`, http.StatusForbidden},
		{"unknown athlete", `{"user":3}`, http.StatusNotFound},
	}

	handler := Handler(s)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/athlete", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			handler(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("got status %d, want %d", rr.Code, tc.want)
			}
			if tc.want != http.StatusOK {
				return
			}

			var got response
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Athlete.Username != "visible" {
				t.Errorf("username = %q, want %q", got.Athlete.Username, "visible")
			}
			if got.TotalActivityCount != 2 {
				t.Errorf("totalActivityCount = %d, want 2", got.TotalActivityCount)
			}
		})
	}
}

func TestOwnProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/athlete":
			fmt.Fprint(w, `{"id":42,"username":"runner","firstname":"Ada","lastname":"Lovelace"}`)
		case "/api/v3/athletes/42/stats":
			fmt.Fprint(w, `{"all_run_totals":{"count":100},"all_ride_totals":{"count":50},"all_swim_totals":{"count":5}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	base := strava.BaseURL
	strava.BaseURL = server.URL
	defer func() { strava.BaseURL = base }()

	s := testStore(t)
	req := httptest.NewRequest(http.MethodPost, "/api/athlete", strings.NewReader(`{}`))
	req.AddCookie(&http.Cookie{Name: "strava_access_token", Value: "abc"})
	rr := httptest.NewRecorder()
	Handler(s)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d: %s", rr.Code, http.StatusOK, rr.Body)
	}

	var got response
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Athlete.ID != 42 || got.Athlete.Username != "runner" {
		t.Errorf("unexpected athlete %+v", got.Athlete)
	}
	if got.TotalActivityCount != 155 {
		t.Errorf("totalActivityCount = %d, want 155", got.TotalActivityCount)
	}

	stored, err := s.Athlete(context.Background(), 42)
	if err != nil {
		t.Fatal(err)
	}
	if stored == nil || stored.Forename != "Ada" {
		t.Errorf("athlete not stored after profile fetch: %+v", stored)
	}
}

func TestOwnProfileRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/athlete", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	Handler(testStore(t))(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
