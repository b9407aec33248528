// Package syncer keeps the stored activity history in step with Strava:
// database-first reads, a single incremental fetch when history exists, and
// a concurrent paginated backfill when it does not.
package syncer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/activitymap/activitymap/internal/client"
	"github.com/activitymap/activitymap/internal/model"
	"github.com/activitymap/activitymap/internal/store"
	"github.com/activitymap/activitymap/internal/strava"
)

type Syncer struct {
	store *store.Store
	log   logrus.FieldLogger
}

func New(s *store.Store, log logrus.FieldLogger) *Syncer {
	return &Syncer{store: s, log: log}
}

// Sync returns the athlete's full activity history, fetching whatever the
// database does not already hold. totalCount is the athlete's approximate
// lifetime activity count, used to size the initial backfill.
func (s *Syncer) Sync(ctx context.Context, sc *client.Client, athleteID, totalCount int64) ([]model.Activity, error) {
	stored, mostRecent, err := s.store.Activities(ctx, athleteID)
	if err != nil {
		return nil, err
	}

	if !mostRecent.IsZero() {
		fresh, err := strava.ListActivities(ctx, sc, 0, mostRecent.Unix())
		if err != nil {
			return nil, fmt.Errorf("incremental fetch: %w", err)
		}
		if len(fresh) == 0 {
			return stored, nil
		}

		rows := modelsFromStrava(fresh)
		if err := s.store.UpsertActivities(ctx, rows); err != nil {
			return nil, err
		}
		s.log.WithField("count", len(rows)).Info("fetched new activities")
		return append(stored, withPolyline(rows)...), nil
	}

	rows, err := s.backfill(ctx, sc, totalCount)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpsertActivities(ctx, rows); err != nil {
		return nil, err
	}
	return withPolyline(rows), nil
}

// backfill pulls the whole history: the estimated page count concurrently,
// then further sequential pages while every page so far has come back full.
func (s *Syncer) backfill(ctx context.Context, sc *client.Client, totalCount int64) ([]model.Activity, error) {
	pages := int(totalCount/strava.PerPage) + 1

	pageResults := make([][]strava.Activity, pages)
	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < pages; i++ {
		i := i
		group.Go(func() error {
			result, err := strava.ListActivities(gctx, sc, i+1, 0)
			if err != nil {
				return err
			}
			mu.Lock()
			pageResults[i] = result
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("backfill: %w", err)
	}

	var fetched []strava.Activity
	for _, page := range pageResults {
		fetched = append(fetched, page...)
	}

	// A total that is a multiple of the page size may mean more pages exist
	// beyond the estimate; keep going until a short or empty page.
	for next := pages + 1; len(fetched)%strava.PerPage == 0 && len(fetched) > 0; next++ {
		result, err := strava.ListActivities(ctx, sc, next, 0)
		if err != nil {
			return nil, fmt.Errorf("backfill page %d: %w", next, err)
		}
		if len(result) == 0 {
			break
		}
		fetched = append(fetched, result...)
	}

	s.log.WithField("count", len(fetched)).Info("backfilled activity history")

	rows := modelsFromStrava(fetched)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ActivityTime.Before(rows[j].ActivityTime) })
	return rows, nil
}

func modelsFromStrava(activities []strava.Activity) []model.Activity {
	rows := make([]model.Activity, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, ModelFromStrava(a))
	}
	return rows
}

// ModelFromStrava maps an API activity onto its database row. An empty
// summary polyline is stored as NULL so the map query can skip it.
func ModelFromStrava(a strava.Activity) model.Activity {
	row := model.Activity{
		ID:           a.ID,
		AthleteID:    a.Athlete.ID,
		ActivityTime: a.StartDate,
		Timezone:     a.Timezone,
		Type:         a.SportType,
		Name:         a.Name,
		Distance:     a.Distance,
		MovingTime:   a.MovingTime,
		AverageSpeed: a.AverageSpeed,
	}
	if a.TotalElevationGain != 0 {
		gain := a.TotalElevationGain
		row.ElevationGain = &gain
	}
	if a.Map.SummaryPolyline != "" {
		p := a.Map.SummaryPolyline
		row.SummaryPolyline = &p
	}
	return row
}

func withPolyline(rows []model.Activity) []model.Activity {
	out := rows[:0:0]
	for _, r := range rows {
		if r.SummaryPolyline != nil && *r.SummaryPolyline != "" {
			out = append(out, r)
		}
	}
	return out
}
