package fieldmap

import (
	"encoding/json"
	"fmt"
)

// Apply overlays an app-named partial update on current and decodes the result
// back into T, so the patched copy goes through the same typing as a full update.
// current is never modified.
func Apply[T any](entity Entity, current T, patch map[string]any) (T, error) {
	var zero T
	if _, err := ToStorage(entity, patch); err != nil {
		return zero, err
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return zero, err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return zero, err
	}
	for key, value := range patch {
		merged[key] = value
	}

	raw, err = json.Marshal(merged)
	if err != nil {
		return zero, err
	}
	var next T
	if err := json.Unmarshal(raw, &next); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return next, nil
}

// Select keeps only the columns written by an app-named patch.
func Select(entity Entity, columns map[string]any, patch map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(patch))
	for key := range patch {
		column, err := StorageColumn(entity, key)
		if err != nil {
			return nil, err
		}
		value, ok := columns[column]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrReadOnlyField, entity, key)
		}
		out[column] = value
	}
	return out, nil
}
