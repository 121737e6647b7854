package model

import "encoding/json"

// mergeSlice decodes a JSON array element by element, each over a fresh
// default. A null array decodes to an empty slice.
func mergeSlice[T any](def []T, raw []byte, newDefault func() T, normalize func(*T)) ([]T, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return def, err
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		v := newDefault()
		if err := json.Unmarshal(e, &v); err != nil {
			return def, err
		}
		if normalize != nil {
			normalize(&v)
		}
		out = append(out, v)
	}
	return out, nil
}
