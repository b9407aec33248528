// Package strava implements the Strava API operations the activity map needs:
// OAuth, athlete lookup, paginated activity listing and activity detail.
package strava

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/activitymap/activitymap/internal/client"
	"golang.org/x/oauth2"
)

// PerPage is the maximum page size the Strava API allows. Pagination
// terminates when a page comes back shorter than this.
const PerPage = 200

var (
	BaseURL     = "https://www.strava.com/api/v3"
	OauthConfig = &oauth2.Config{
		ClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		ClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://www.strava.com/oauth/authorize",
			TokenURL: "https://www.strava.com/oauth/token",
		},
		RedirectURL: os.Getenv("STRAVA_REDIRECT_URI"),
		Scopes:      []string{"activity:read_all,profile:read_all"},
	}
)

// NewClient returns a REST client for the Strava API backed by hc, which
// should carry the athlete's OAuth credentials.
func NewClient(hc *http.Client) (*client.Client, error) {
	u, err := url.Parse(BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing strava base url: %w", err)
	}
	return client.NewClient(u, hc), nil
}

// Activity holds only the data we want from the Strava API for an activity.
// Map.Polyline is only present on the activity detail endpoint.
type Activity struct {
	ID                 int64     `json:"id"`
	Athlete            Ref       `json:"athlete"`
	Name               string    `json:"name"`
	Distance           float64   `json:"distance"`
	MovingTime         int64     `json:"moving_time"`
	ElapsedTime        int64     `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	AverageSpeed       float64   `json:"average_speed"`
	SportType          string    `json:"sport_type"`
	StartDate          time.Time `json:"start_date"`
	Timezone           string    `json:"timezone"`
	StartLatlng        []float64 `json:"start_latlng"`
	Map                Map       `json:"map"`
}

type Ref struct {
	ID int64 `json:"id"`
}

type Map struct {
	SummaryPolyline string `json:"summary_polyline"`
	Polyline        string `json:"polyline,omitempty"`
}

// Athlete is the authenticated athlete as returned by /athlete.
type Athlete struct {
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
}

// AthleteStats carries the all-time totals used to estimate how many pages a
// full backfill needs.
type AthleteStats struct {
	AllRunTotals  Totals `json:"all_run_totals"`
	AllRideTotals Totals `json:"all_ride_totals"`
	AllSwimTotals Totals `json:"all_swim_totals"`
}

type Totals struct {
	Count int64 `json:"count"`
}

// TotalActivityCount approximates the athlete's lifetime activity count.
func (s *AthleteStats) TotalActivityCount() int64 {
	return s.AllRunTotals.Count + s.AllRideTotals.Count + s.AllSwimTotals.Count
}

type WebhookPayload struct {
	AspectType     string `json:"aspect_type"`
	EventTime      int64  `json:"event_time"`
	ObjectID       int64  `json:"object_id"`
	ObjectType     string `json:"object_type"`
	OwnerID        int64  `json:"owner_id"`
	SubscriptionID int64  `json:"subscription_id"`
}

func GetAthlete(ctx context.Context, c *client.Client) (*Athlete, error) {
	var a Athlete
	req, err := c.NewRequest(ctx, http.MethodGet, "/api/v3/athlete", nil)
	if err != nil {
		return nil, fmt.Errorf("creating get athlete request: %w", err)
	}

	resp, err := c.Do(req, &a)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("getting athlete: %w", err)
	}

	return &a, nil
}

func GetAthleteStats(ctx context.Context, c *client.Client, athleteID int64) (*AthleteStats, error) {
	var s AthleteStats
	req, err := c.NewRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v3/athletes/%d/stats", athleteID), nil)
	if err != nil {
		return nil, fmt.Errorf("creating athlete stats request: %w", err)
	}

	resp, err := c.Do(req, &s)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("getting athlete stats for %d: %w", athleteID, err)
	}

	return &s, nil
}

func GetActivity(ctx context.Context, c *client.Client, id int64) (*Activity, error) {
	var a Activity
	req, err := c.NewRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v3/activities/%d", id), nil)
	if err != nil {
		return nil, fmt.Errorf("creating get activity request: %w", err)
	}

	resp, err := c.Do(req, &a)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("getting activity %d: %w", id, err)
	}

	return &a, nil
}

// ListActivities fetches one page of the athlete's activities. A non-zero
// after restricts results to activities started after that unix time.
func ListActivities(ctx context.Context, c *client.Client, page int, after int64) ([]Activity, error) {
	q := url.Values{}
	q.Set("per_page", fmt.Sprint(PerPage))
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if after > 0 {
		q.Set("after", fmt.Sprint(after))
	}

	var activities []Activity
	req, err := c.NewRequest(ctx, http.MethodGet, "/api/v3/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating list activities request: %w", err)
	}

	resp, err := c.Do(req, &activities)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("listing activities page %d: %w", page, err)
	}

	return activities, nil
}
