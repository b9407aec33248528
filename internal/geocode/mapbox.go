package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/activitymap/activitymap/internal/client"
)

// BatchLimit is the maximum number of queries Mapbox accepts per batch call.
const BatchLimit = 1000

var queryTypes = []string{"country", "region", "district"}

// Query is one coordinate to reverse geocode. ID carries the activity id
// through the call; results correspond positionally to queries.
type Query struct {
	ID        int64    `json:"id"`
	Types     []string `json:"types"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
}

// NewQuery builds a reverse-geocoding query for an activity start coordinate.
func NewQuery(id int64, lat, lng float64) Query {
	return Query{ID: id, Types: queryTypes, Latitude: lat, Longitude: lng}
}

type mapboxFeature struct {
	Type       string `json:"type"`
	Properties struct {
		FeatureType string `json:"feature_type"`
		Name        string `json:"name"`
		FullAddress string `json:"full_address"`
	} `json:"properties"`
}

type mapboxResponse struct {
	Batch []struct {
		Features []mapboxFeature `json:"features"`
	} `json:"batch"`
}

// Mapbox calls the Mapbox v6 batch geocoding endpoint.
type Mapbox struct {
	client *client.Client
	token  string
}

var MapboxBaseURL = "https://api.mapbox.com"

// NewMapbox returns a Mapbox batch geocoder. A nil httpClient falls back to
// http.DefaultClient.
func NewMapbox(cc *http.Client, token string) (*Mapbox, error) {
	u, err := url.Parse(MapboxBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing mapbox base URL: %w", err)
	}
	return &Mapbox{client: client.NewClient(u, cc), token: token}, nil
}

// ReverseBatch resolves up to BatchLimit coordinates in one call. The
// returned slice matches the queries positionally; a query whose response
// lacks a country or address feature yields a nil entry.
func (m *Mapbox) ReverseBatch(ctx context.Context, queries []Query) ([]*Geocode, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	if len(queries) > BatchLimit {
		return nil, fmt.Errorf("batch of %d exceeds the %d query limit", len(queries), BatchLimit)
	}

	urlStr := "/search/geocode/v6/batch?access_token=" + url.QueryEscape(m.token)
	req, err := m.client.NewRequest(ctx, http.MethodPost, urlStr, queries)
	if err != nil {
		return nil, fmt.Errorf("creating batch geocode request: %w", err)
	}

	var response mapboxResponse
	resp, err := m.client.Do(req, &response)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("batch geocoding %d queries: %w", len(queries), err)
	}

	results := make([]*Geocode, len(queries))
	for i, location := range response.Batch {
		if i >= len(queries) {
			break
		}
		results[i] = geocodeFromFeatures(location.Features)
	}
	return results, nil
}

// geocodeFromFeatures picks the country feature for the country component
// and the most specific administrative feature (district over region) for
// the address. Either component missing means no geocode.
func geocodeFromFeatures(features []mapboxFeature) *Geocode {
	var country, district, region string
	for _, f := range features {
		switch f.Properties.FeatureType {
		case "country":
			if country == "" {
				country = f.Properties.Name
			}
		case "district":
			if district == "" {
				district = f.Properties.FullAddress
			}
		case "region":
			if region == "" {
				region = f.Properties.FullAddress
			}
		}
	}

	address := district
	if address == "" {
		address = region
	}
	if country == "" || address == "" {
		return nil
	}

	return &Geocode{Country: country, Address: dedupeAddress(address)}
}
