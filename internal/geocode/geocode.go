// Package geocode resolves activity start coordinates to {country, address}
// pairs through a layered cache backed by the Mapbox batch geocoding API.
package geocode

import (
	"strconv"
	"strings"

	"github.com/activitymap/activitymap/internal/activity"
)

// Geocode is a resolved location for a geographic coordinate.
type Geocode = activity.Location

// CacheKey renders a coordinate pair as "<lat>,<lng>" using the shortest
// exact decimal form of each value. No rounding: two activities share a
// cache entry only when their recorded start coordinates are numerically
// identical.
func CacheKey(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

// dedupeAddress collapses repeated comma-separated components, preserving
// first-occurrence order, e.g. "Bristol, Bristol, England" -> "Bristol, England".
func dedupeAddress(address string) string {
	parts := strings.Split(address, ", ")
	seen := make(map[string]struct{}, len(parts))
	unique := parts[:0]
	for _, p := range parts {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return strings.Join(unique, ", ")
}
