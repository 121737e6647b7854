// Package persist bridges in-memory state to durable storage.
//
// Sync keeps small values in the synchronous prefs store and writes on every
// change. Debounced keeps large values in the durable store, loads them once
// and coalesces writes behind a quiescence window.
package persist

import "encoding/json"

// Decoder turns a stored value into T, filling anything the stored value
// lacks from def. Implementations must not modify def.
type Decoder[T any] func(def T, raw []byte) (T, error)

// DecodeOver decodes raw on top of a copy of def, so struct fields missing
// from raw keep their default. The copy is made through def's JSON
// encoding, which leaves def untouched: maps in raw add to or replace
// entries of the copied map, slices in raw replace the copied slice.
// Shapes that need element-wise merging supply their own Decoder.
func DecodeOver[T any](def T, raw []byte) (T, error) {
	base, err := json.Marshal(def)
	if err != nil {
		return def, err
	}
	var v T
	if err := json.Unmarshal(base, &v); err != nil {
		return def, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, err
	}
	return v, nil
}
