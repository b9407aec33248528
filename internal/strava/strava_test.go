package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"reflect"
	"testing"

	"github.com/activitymap/activitymap/internal/client"
)

func setup() (*client.Client, *http.ServeMux, func()) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	u, _ := url.Parse(server.URL)
	rc := client.NewClient(u, nil)
	return rc, mux, server.Close
}

func TestGetAthlete(t *testing.T) {
	rc, mux, teardown := setup()
	defer teardown()

	resp, _ := os.ReadFile("testdata/athlete.json")
	mux.HandleFunc("/api/v3/athlete", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, string(resp))
	})

	want := &Athlete{}
	json.Unmarshal(resp, want) //nolint:errcheck

	got, err := GetAthlete(context.Background(), rc)
	if err != nil {
		t.Errorf("expected nil error, got %q", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGetAthleteStats(t *testing.T) {
	rc, mux, teardown := setup()
	defer teardown()

	resp, _ := os.ReadFile("testdata/athlete_stats.json")
	mux.HandleFunc("/api/v3/athletes/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, string(resp))
	})

	got, err := GetAthleteStats(context.Background(), rc, 1234)
	if err != nil {
		t.Errorf("expected nil error, got %q", err)
	}
	if got.TotalActivityCount() != 431 {
		t.Errorf("expected total activity count 431, got %d", got.TotalActivityCount())
	}
}

func TestGetActivity(t *testing.T) {
	rc, mux, teardown := setup()
	defer teardown()

	resp, _ := os.ReadFile("testdata/activity.json")
	mux.HandleFunc("/api/v3/activities/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, string(resp))
	})

	want := &Activity{}
	json.Unmarshal(resp, want) //nolint:errcheck

	got, err := GetActivity(context.Background(), rc, 12345678987654321)
	if err != nil {
		t.Errorf("expected nil error, got %q", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGetActivityError(t *testing.T) {
	rc, mux, teardown := setup()
	defer teardown()

	mux.HandleFunc("/api/v3/activities/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := GetActivity(context.Background(), rc, 12345678987654321)
	if err == nil {
		t.Error("expected error, got nil")
	}
}

func TestListActivities(t *testing.T) {
	rc, mux, teardown := setup()
	defer teardown()

	resp, _ := os.ReadFile("testdata/activities_page.json")
	var gotQuery url.Values
	mux.HandleFunc("/api/v3/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprintln(w, string(resp))
	})

	got, err := ListActivities(context.Background(), rc, 2, 1700000000)
	if err != nil {
		t.Errorf("expected nil error, got %q", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 activities, got %d", len(got))
	}
	if gotQuery.Get("per_page") != "200" || gotQuery.Get("page") != "2" || gotQuery.Get("after") != "1700000000" {
		t.Errorf("unexpected query parameters: %v", gotQuery)
	}
}

func TestListActivitiesOmitsZeroParams(t *testing.T) {
	rc, mux, teardown := setup()
	defer teardown()

	var gotQuery url.Values
	mux.HandleFunc("/api/v3/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		fmt.Fprintln(w, "[]")
	})

	if _, err := ListActivities(context.Background(), rc, 0, 0); err != nil {
		t.Errorf("expected nil error, got %q", err)
	}
	if gotQuery.Has("page") || gotQuery.Has("after") {
		t.Errorf("expected page and after to be omitted, got %v", gotQuery)
	}
}
