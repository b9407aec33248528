package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/activitymap/activitymap/internal/strava"
)

const (
	accessTokenCookie  = "strava_access_token"
	refreshTokenCookie = "strava_refresh_token"

	refreshTokenMaxAge = 60 * 60 * 24 * 30 // 30 days
	refreshAttempts    = 3
)

// AccessToken returns the access token held by the request, or an error
// when the cookie is missing.
func AccessToken(r *http.Request) (string, error) {
	c, err := r.Cookie(accessTokenCookie)
	if err != nil {
		return "", errors.New("no access token")
	}
	return c.Value, nil
}

func setTokenCookies(w http.ResponseWriter, token *oauth2.Token) {
	secure := os.Getenv("ENV") != "dev" && os.Getenv("ENV") != "test"
	maxAge := int(time.Until(token.Expiry).Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    token.RefreshToken,
		Path:     "/",
		MaxAge:   refreshTokenMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
}

// RefreshHandler exchanges the refresh token cookie for a fresh token pair.
// The token endpoint is retried with doubling backoff before giving up.
func RefreshHandler(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(refreshTokenCookie)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "No refresh token found")
		return
	}

	token, err := refreshToken(r.Context(), c.Value)
	if err != nil {
		logrus.WithError(err).Error("token refresh failed")
		writeError(w, http.StatusInternalServerError, "Token refresh failed")
		return
	}

	setTokenCookies(w, token)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true}) //nolint:errcheck
}

func refreshToken(ctx context.Context, refresh string) (*oauth2.Token, error) {
	body, err := json.Marshal(map[string]string{
		"client_id":     strava.OauthConfig.ClientID,
		"client_secret": strava.OauthConfig.ClientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": refresh,
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	delay := time.Second
	for attempt := 0; attempt < refreshAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}

		token, err := postRefresh(ctx, body)
		if err == nil {
			return token, nil
		}
		lastErr = err
		logrus.WithError(err).WithField("attempt", attempt+1).Warn("token refresh attempt failed")
	}
	return nil, lastErr
}

func postRefresh(ctx context.Context, body []byte) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strava.OauthConfig.Endpoint.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		Expiry:       time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
