// Package content holds the editable per-section content store and the rules
// for seeding, hydrating, and editing it.
//
// A [Store] maps a section type to a payload that is either a record
// (map[string]any) or a list ([]any). The store is a plain value: every
// operation in this package takes a store and returns a new one, never
// mutating its input. Whoever owns the live store (normally a session
// controller) swaps references under its own lock.
//
// The lifecycle of a store within one generation:
//
//	store := content.SeedDefaults(p.Sections)       // on plan success
//	store = content.MergeHydration(store, patch)    // when copy arrives
//	store, err = content.ApplyEdit(store, "hero", content.Field("heading"), "Hi")
//
// Hydration is a shallow, per-key merge. Records merge field-by-field with
// incoming fields winning; any other pairing is a wholesale replacement.
// Keys absent from the incoming patch are left untouched, which is what keeps
// edits made while copy generation was in flight.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"sort"
)

// Record is a structured section payload.
type Record = map[string]any

// List is an ordered section payload.
type List = []any

// Store maps section type to its content payload.
type Store map[string]any

// Shape classifies a payload.
type Shape int

// Payload shapes.
const (
	ShapeNone Shape = iota
	ShapeRecord
	ShapeList
	ShapeScalar
)

func (s Shape) String() string {
	switch s {
	case ShapeRecord:
		return "record"
	case ShapeList:
		return "list"
	case ShapeScalar:
		return "scalar"
	default:
		return "none"
	}
}

// ShapeOf returns the shape class of v.
func ShapeOf(v any) Shape {
	switch v.(type) {
	case nil:
		return ShapeNone
	case map[string]any:
		return ShapeRecord
	case []any:
		return ShapeList
	default:
		return ShapeScalar
	}
}

// Get returns the payload for typ. A missing payload is an empty record so
// renderers always receive a usable value.
func (s Store) Get(typ string) any {
	if v, ok := s[typ]; ok && v != nil {
		return v
	}
	return Record{}
}

// Has reports whether typ has an entry.
func (s Store) Has(typ string) bool {
	_, ok := s[typ]
	return ok
}

// Keys returns the section types in sorted order.
func (s Store) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the store.
func (s Store) Clone() Store {
	if s == nil {
		return nil
	}
	out := make(Store, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

// MarshalJSON encodes the store. A nil store encodes as an empty object.
func (s Store) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(s))
}

// Normalize converts arbitrary decoded values into the JSON value space the
// store works with (string-keyed maps, []any, float64 numbers).
func Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize content: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize content: %w", err)
	}
	return out, nil
}

// FromMap builds a store from a decoded JSON or YAML object.
func FromMap(m map[string]any) (Store, error) {
	if len(m) == 0 {
		return Store{}, nil
	}
	v, err := Normalize(m)
	if err != nil {
		return nil, err
	}
	rec, _ := v.(map[string]any)
	return Store(rec), nil
}

// Decode parses a JSON object into a store.
func Decode(data []byte) (Store, error) {
	var m map[string]any
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if m == nil {
		return Store{}, nil
	}
	return Store(m), nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

func copyStore(s Store) Store {
	out := make(Store, len(s)+1)
	maps.Copy(out, s)
	return out
}
