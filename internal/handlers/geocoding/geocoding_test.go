package geocoding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/activitymap/activitymap/internal/cache"
	"github.com/activitymap/activitymap/internal/geocode"
)

type fakeStore struct{}

func (fakeStore) Locations(context.Context, []int64) (map[int64]geocode.Geocode, error) {
	return map[int64]geocode.Geocode{}, nil
}
func (fakeStore) SaveLocation(context.Context, int64, geocode.Geocode) error { return nil }

type fakeBatcher struct {
	results map[string]*geocode.Geocode
}

func (f fakeBatcher) ReverseBatch(_ context.Context, queries []geocode.Query) ([]*geocode.Geocode, error) {
	out := make([]*geocode.Geocode, len(queries))
	for i, q := range queries {
		out[i] = f.results[geocode.CacheKey(q.Latitude, q.Longitude)]
	}
	return out, nil
}

func TestHandler(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	batcher := fakeBatcher{results: map[string]*geocode.Geocode{
		geocode.CacheKey(51.45, -2.59): {Country: "United Kingdom", Address: "Bristol, England"},
	}}
	resolver := geocode.NewResolver(fakeStore{}, cache.NewMemoryCache(), batcher, log)
	handler := Handler(resolver)

	body := `[
		{"id": 1, "positions": [[-2.59, 51.45]]},
		{"id": 2, "positions": []}
	]`
	req := httptest.NewRequest(http.MethodPost, "/api/geocoding", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var got map[string]*geocode.Geocode
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got["1"] == nil || got["1"].Country != "United Kingdom" {
		t.Errorf(`entry "1" = %+v, want United Kingdom`, got["1"])
	}
	if got["2"] != nil {
		t.Errorf(`entry "2" = %+v, want nil`, got["2"])
	}
}

func TestHandlerRejectsBadBody(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	resolver := geocode.NewResolver(fakeStore{}, cache.NewMemoryCache(), fakeBatcher{}, log)

	req := httptest.NewRequest(http.MethodPost, "/api/geocoding", strings.NewReader("nope"))
	rr := httptest.NewRecorder()
	Handler(resolver)(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
