package syncer

import (
	"fmt"

	"github.com/activitymap/activitymap/internal/activity"
	"github.com/activitymap/activitymap/internal/model"
)

// DomainFromModel decodes a stored row into the domain activity the map
// consumes, preferring the full-resolution polyline when one is stored.
func DomainFromModel(m model.Activity) (activity.Activity, error) {
	encoded := ""
	switch {
	case m.Polyline != nil && *m.Polyline != "":
		encoded = *m.Polyline
	case m.SummaryPolyline != nil:
		encoded = *m.SummaryPolyline
	}
	if encoded == "" {
		return activity.Activity{}, fmt.Errorf("activity %d has no polyline", m.ID)
	}

	positions, err := activity.DecodePolyline(encoded)
	if err != nil {
		return activity.Activity{}, fmt.Errorf("activity %d: %w", m.ID, err)
	}

	a := activity.Activity{
		ID:                 m.ID,
		Name:               m.Name,
		Distance:           m.Distance,
		MovingTime:         m.MovingTime,
		TotalElevationGain: m.ElevationGain,
		AverageSpeed:       m.AverageSpeed,
		Type:               activity.Type(m.Type),
		StartDate:          m.ActivityTime,
	}
	a.SetPositions(positions)

	if m.Country != nil && m.Address != nil {
		a.Location = &activity.Location{Country: *m.Country, Address: *m.Address}
	}
	return a, nil
}

// DomainFromModels converts every row that decodes cleanly, skipping the
// rest. A corrupt polyline hides one activity, never the whole map.
func DomainFromModels(rows []model.Activity) []activity.Activity {
	out := make([]activity.Activity, 0, len(rows))
	for _, row := range rows {
		a, err := DomainFromModel(row)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}
