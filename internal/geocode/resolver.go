package geocode

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/activitymap/activitymap/internal/activity"
	"github.com/activitymap/activitymap/internal/cache"
)

// Store is the system-of-record view the resolver needs: previously
// persisted locations looked up by activity id, and best-effort writes of
// newly resolved ones.
type Store interface {
	Locations(ctx context.Context, ids []int64) (map[int64]Geocode, error)
	SaveLocation(ctx context.Context, activityID int64, geocode Geocode) error
}

// Batcher issues one bulk reverse-geocoding call.
type Batcher interface {
	ReverseBatch(ctx context.Context, queries []Query) ([]*Geocode, error)
}

// Resolver resolves activity start coordinates through, in order: the
// system-of-record by activity id, the layered coordinate cache, and the
// external batch geocoder. Successes are written back through every layer.
type Resolver struct {
	store    Store
	tiers    cache.Cache
	geocoder Batcher
	log      logrus.FieldLogger

	// Coordinates the geocoder answered but could not resolve are
	// remembered for the life of the process so a session never retries
	// them, without poisoning the shared tiers across sessions.
	mu       sync.Mutex
	noResult map[string]struct{}

	wg sync.WaitGroup
}

func NewResolver(store Store, tiers cache.Cache, geocoder Batcher, log logrus.FieldLogger) *Resolver {
	return &Resolver{
		store:    store,
		tiers:    tiers,
		geocoder: geocoder,
		log:      log,
		noResult: make(map[string]struct{}),
	}
}

// Resolve maps every input activity id to its geocode, or nil where no
// location could be determined. It never fails: upstream errors degrade the
// affected activities to nil and persistence problems are logged, not
// surfaced. Writes to the system-of-record may still be in flight when
// Resolve returns.
func (r *Resolver) Resolve(ctx context.Context, activities []activity.Activity) map[int64]*Geocode {
	result := make(map[int64]*Geocode, len(activities))
	for _, a := range activities {
		result[a.ID] = nil
	}

	ids := make([]int64, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}

	persisted, err := r.store.Locations(ctx, ids)
	if err != nil {
		r.log.WithError(err).Error("loading persisted locations")
		persisted = map[int64]Geocode{}
	}

	type pending struct {
		id  int64
		key string
		lat float64
		lng float64
	}
	var unresolved []pending

	for _, a := range activities {
		if g, ok := persisted[a.ID]; ok {
			g := g
			result[a.ID] = &g
			continue
		}
		if len(a.Positions) == 0 {
			continue
		}

		// orb.Point is (lng, lat); the cache key leads with latitude.
		lat, lng := a.Positions[0][1], a.Positions[0][0]
		key := CacheKey(lat, lng)

		r.mu.Lock()
		_, failed := r.noResult[key]
		r.mu.Unlock()
		if failed {
			continue
		}

		var cached Geocode
		if err := r.tiers.GetJSON(ctx, key, &cached); err == nil && cached.Country != "" {
			cached := cached
			result[a.ID] = &cached
			continue
		} else if err != nil {
			r.log.WithError(err).WithField("key", key).Warn("cache lookup failed")
		}

		unresolved = append(unresolved, pending{id: a.ID, key: key, lat: lat, lng: lng})
	}

	if len(unresolved) == 0 {
		return result
	}

	queries := make([]Query, len(unresolved))
	for i, p := range unresolved {
		queries[i] = NewQuery(p.id, p.lat, p.lng)
	}

	// Fixed-size chunks in original order, fetched concurrently, joined in
	// chunk order. A failed chunk degrades only its own activities to nil.
	var chunks [][]Query
	for start := 0; start < len(queries); start += BatchLimit {
		end := start + BatchLimit
		if end > len(queries) {
			end = len(queries)
		}
		chunks = append(chunks, queries[start:end])
	}

	geocoded := make([][]*Geocode, len(chunks))
	group, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		group.Go(func() error {
			resolved, err := r.geocoder.ReverseBatch(gctx, chunk)
			if err != nil {
				r.log.WithError(err).WithField("queries", len(chunk)).Error("batch geocode failed")
				return nil
			}
			geocoded[i] = resolved
			return nil
		})
	}
	group.Wait() //nolint:errcheck // goroutines log and swallow their errors

	index := 0
	for ci, resolved := range geocoded {
		if resolved == nil {
			// The whole chunk failed; skip its queries.
			index += len(chunks[ci])
			continue
		}
		for _, g := range resolved {
			p := unresolved[index]
			index++

			if g == nil {
				r.mu.Lock()
				r.noResult[p.key] = struct{}{}
				r.mu.Unlock()
				continue
			}

			result[p.id] = g
			if err := r.tiers.SetJSON(ctx, p.key, g); err != nil {
				r.log.WithError(err).WithField("key", p.key).Warn("cache write failed")
			}

			r.wg.Add(1)
			go func(id int64, g Geocode) {
				defer r.wg.Done()
				if err := r.store.SaveLocation(context.Background(), id, g); err != nil {
					r.log.WithError(err).WithField("activity", id).Warn("persisting location failed")
				}
			}(p.id, *g)
		}
	}

	return result
}

// Wait blocks until in-flight system-of-record writes finish. Resolution
// results never depend on it; it exists for shutdown and tests.
func (r *Resolver) Wait() {
	r.wg.Wait()
}
