package crud

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// ChangedFields compares the JSON object forms of before and after and
// returns the top-level members of after whose values differ. Members removed
// in after are reported with a nil value.
func ChangedFields[T any](before, after T) (map[string]any, error) {
	left, err := toObject(before)
	if err != nil {
		return nil, err
	}
	right, err := toObject(after)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	for key, value := range right {
		if prev, ok := left[key]; !ok || !reflect.DeepEqual(prev, value) {
			changes[key] = value
		}
	}
	for key := range left {
		if _, ok := right[key]; !ok {
			changes[key] = nil
		}
	}
	return changes, nil
}

func toObject(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("crud: encode item: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("crud: item is not an object: %w", err)
	}
	return out, nil
}
