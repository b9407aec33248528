package cache

import (
	"encoding/json"
	"fmt"
)

func marshalJSON(key string, value any) (string, error) {
	t, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshaling JSON for cache key %q: %w", key, err)
	}
	return string(t), nil
}

func unmarshalJSON(key, s string, value any) error {
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return fmt.Errorf("unmarshaling cached JSON for %q: %w", key, err)
	}
	return nil
}
