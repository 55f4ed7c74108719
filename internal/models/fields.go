package models

import "sort"

// Fields is a partial field map keyed by column name. Keys that are absent are
// left untouched by an update; present keys are applied even when empty.
type Fields map[string]any

// Has reports whether key is present in the map.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot is a flat mapping from field name to value captured before or
// after a mutation. Non-primitive values (timestamps) are normalized to
// strings before a snapshot is stored.
type Snapshot map[string]any

// Changed returns the keys whose values differ between before and after, including
// keys present on only one side.
func Changed(before, after Snapshot) []string {
	var keys []string
	for k, ov := range before {
		nv, ok := after[k]
		if !ok || !sameValue(ov, nv) {
			keys = append(keys, k)
		}
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func sameValue(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k := range av {
			if !sameValue(av[k], bv[k]) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !sameValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
