// Package activity holds the domain model for recorded activities and the
// filtering logic the map view is driven by.
package activity

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	polyline "github.com/twpayne/go-polyline"
)

// Location is a reverse-geocoded {country, address} pair for an activity's
// start coordinate. Immutable once produced.
type Location struct {
	Country string `json:"country"`
	Address string `json:"address"`
}

// Activity is a single recorded exercise session with a GPS path and
// summary metrics.
type Activity struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Distance           float64     `json:"distance"`   // metres
	MovingTime         int64       `json:"movingTime"` // seconds
	TotalElevationGain *float64    `json:"totalElevationGain"`
	AverageSpeed       float64     `json:"averageSpeed"` // metres/second
	Type               Type        `json:"type"`
	StartDate          time.Time   `json:"startDate"`
	Positions          []orb.Point `json:"positions"` // (lng, lat) pairs
	Bounds             orb.Bound   `json:"bounds"`
	Location           *Location   `json:"location,omitempty"`
}

// Type is a raw Strava sport type.
type Type string

// SetPositions replaces the recorded path and recomputes the bounding box.
// Bounds must always be the tight bounding box of Positions, so this is the
// only way positions should ever be assigned.
func (a *Activity) SetPositions(positions []orb.Point) {
	a.Positions = positions
	a.Bounds = BoundsOf(positions)
}

// BoundsOf returns the tight axis-aligned bounding box of the given path.
func BoundsOf(positions []orb.Point) orb.Bound {
	return orb.MultiPoint(positions).Bound()
}

// DecodePolyline decodes a Google-encoded polyline into (lng, lat) points.
func DecodePolyline(encoded string) ([]orb.Point, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decoding polyline: %w", err)
	}

	// The codec yields (lat, lng); the map wants (lng, lat).
	positions := make([]orb.Point, len(coords))
	for i, c := range coords {
		positions[i] = orb.Point{c[1], c[0]}
	}
	return positions, nil
}
