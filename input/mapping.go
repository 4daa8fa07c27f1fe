package input

import (
	"encoding/json"
	"math"
	"strconv"
)

// Mapping maps a physical key code to a key id.
type Mapping map[string]int

// Resolver turns a key label (numeric or compound, e.g. "61a") into a key id.
type Resolver func(label string) (int, bool)

// ParseMapping builds a Mapping from loosely typed values such as decoded JSON.
// Numbers are taken as key ids and strings are passed to resolve; any other
// value, and any string resolve rejects, is ignored.
func ParseMapping(raw map[string]any, resolve Resolver) Mapping {
	m := make(Mapping, len(raw))
	for code, v := range raw {
		if id, ok := ResolveID(v, resolve); ok {
			m[code] = id
		}
	}
	return m
}

// ResolveID turns one loosely typed mapping value into a key id, following
// the rules of ParseMapping.
func ResolveID(v any, resolve Resolver) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		id, err := strconv.Atoi(v.String())
		return id, err == nil
	case string:
		if resolve == nil {
			id, err := strconv.Atoi(v)
			return id, err == nil
		}
		return resolve(v)
	}
	return 0, false
}
