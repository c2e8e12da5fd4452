package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ErrorKey marks a copy-generation response that failed upstream.
const ErrorKey = "error"

// Patch is a copy-generation response: section type to incoming payload.
type Patch map[string]any

// Failed reports whether the patch carries the upstream error marker.
func (p Patch) Failed() bool {
	_, ok := p[ErrorKey]
	return ok
}

// ErrorMessage returns the upstream error message, if any.
func (p Patch) ErrorMessage() string {
	if v, ok := p[ErrorKey]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

// Applicable reports whether merging p can change a store.
func (p Patch) Applicable() bool {
	return len(p) > 0 && !p.Failed()
}

// DecodePatch parses a copy-generation response body. A JSON null decodes to
// an empty patch; any other non-object is an error.
func DecodePatch(data []byte) (Patch, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Patch{}, nil
	}
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode copy patch: %w", err)
	}
	if p == nil {
		return Patch{}, nil
	}
	return p, nil
}

// MergeHydration returns current with incoming merged in.
//
// For each incoming key: a record merging into a record combines fields with
// incoming values winning; any other combination replaces the payload. Keys
// not mentioned are untouched, and nil incoming payloads are skipped. A patch
// that is empty or carries the error marker leaves the store unchanged, even
// if it also carries section keys.
func MergeHydration(current Store, incoming Patch) Store {
	out := copyStore(current)
	if !incoming.Applicable() {
		return out
	}
	for key, v := range incoming {
		if v == nil {
			continue
		}
		next, isRecord := v.(map[string]any)
		prev, wasRecord := out[key].(map[string]any)
		if isRecord && wasRecord {
			merged := make(Record, len(prev)+len(next))
			for f, val := range prev {
				merged[f] = val
			}
			for f, val := range next {
				merged[f] = cloneValue(val)
			}
			out[key] = merged
			continue
		}
		out[key] = cloneValue(v)
	}
	return out
}
