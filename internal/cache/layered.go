package cache

import (
	"context"
	"fmt"
)

// Layered chains cache tiers in lookup order: fastest first. A hit in a
// later tier backfills every earlier tier so subsequent lookups stop
// sooner. Writes go to every tier.
type Layered struct {
	tiers []Cache
}

func NewLayered(tiers ...Cache) *Layered {
	return &Layered{tiers: tiers}
}

// Get consults each tier in order and returns the first non-empty value.
// Tier errors are skipped, not surfaced: a broken tier behaves like a miss.
func (l *Layered) Get(ctx context.Context, key string) (any, error) {
	for i, tier := range l.tiers {
		value, err := tier.Get(ctx, key)
		if err != nil {
			continue
		}
		s, ok := value.(string)
		if !ok || s == "" {
			continue
		}

		for _, earlier := range l.tiers[:i] {
			earlier.Set(ctx, key, s) //nolint:errcheck // backfill is best effort
		}
		return s, nil
	}

	return "", nil
}

// Set writes the value to every tier. The first tier error is returned but
// later tiers are still attempted.
func (l *Layered) Set(ctx context.Context, key string, value any) error {
	var firstErr error
	for _, tier := range l.tiers {
		if err := tier.Set(ctx, key, value); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetJSON retrieves a JSON string and unmarshals it into the given value.
func (l *Layered) GetJSON(ctx context.Context, key string, value any) error {
	v, err := l.Get(ctx, key)
	if err != nil {
		return err
	}

	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("cache value for %q is not a string: %T", key, v)
	}
	if s == "" {
		return nil
	}

	return unmarshalJSON(key, s, value)
}

// SetJSON stores a struct as a JSON string in every tier.
func (l *Layered) SetJSON(ctx context.Context, key string, value any) error {
	s, err := marshalJSON(key, value)
	if err != nil {
		return err
	}
	return l.Set(ctx, key, s)
}
