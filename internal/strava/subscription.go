package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// existingSubscription reports whether our webhook callback is already
// registered with Strava.
func existingSubscription(ctx context.Context) bool {
	u := fmt.Sprintf("%s/push_subscriptions?client_id=%s&client_secret=%s",
		BaseURL,
		os.Getenv("STRAVA_CLIENT_ID"),
		os.Getenv("STRAVA_CLIENT_SECRET"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logrus.WithError(err).Info("GET strava /push_subscriptions")
		return false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logrus.WithError(err).Error("Failed to read push_subscriptions body")
		return false
	}
	var subs []map[string]interface{}
	if err := json.Unmarshal(body, &subs); err != nil {
		logrus.WithError(err).Error("Failed to unmarshal push_subscriptions body")
		return false
	}
	if len(subs) == 0 {
		return false
	}
	return subs[0]["callback_url"] == os.Getenv("STRAVA_CALLBACK_URI")
}

// Subscribe registers the webhook callback so new activities land on the map
// without a manual refresh.
func Subscribe(ctx context.Context) (bool, error) {
	if existingSubscription(ctx) {
		return true, nil
	}

	form := url.Values{
		"client_id":     {os.Getenv("STRAVA_CLIENT_ID")},
		"client_secret": {os.Getenv("STRAVA_CLIENT_SECRET")},
		"callback_url":  {os.Getenv("STRAVA_CALLBACK_URI")},
		"verify_token":  {os.Getenv("STRAVA_VERIFY_TOKEN")},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, BaseURL+"/push_subscriptions",
		strings.NewReader(form.Encode()))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("push subscription returned %d: %s", resp.StatusCode, body)
	}

	return true, nil
}

// Unsubscribe removes our webhook subscription. A no-op when none exists.
func Unsubscribe(ctx context.Context) error {
	u := fmt.Sprintf("%s/push_subscriptions?client_id=%s&client_secret=%s",
		BaseURL,
		os.Getenv("STRAVA_CLIENT_ID"),
		os.Getenv("STRAVA_CLIENT_SECRET"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var subs []struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&subs); err != nil {
		return fmt.Errorf("decoding push_subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	du := fmt.Sprintf("%s/push_subscriptions/%d?client_id=%s&client_secret=%s",
		BaseURL,
		subs[0].ID,
		os.Getenv("STRAVA_CLIENT_ID"),
		os.Getenv("STRAVA_CLIENT_SECRET"))
	dreq, err := http.NewRequestWithContext(ctx, http.MethodDelete, du, http.NoBody)
	if err != nil {
		return err
	}
	dresp, err := http.DefaultClient.Do(dreq)
	if err != nil {
		return err
	}
	defer dresp.Body.Close()

	if dresp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("push subscription delete returned %d", dresp.StatusCode)
	}
	return nil
}
