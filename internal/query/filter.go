package query

import (
	"encoding/json"
	"math"
	"strings"
)

// Predicate reports whether an element should be kept by a filter.
type Predicate[T any] func(T) bool

// Lookuper is implemented by records whose properties can be addressed by a
// dotted path (for example "weather.precipProbability").
type Lookuper interface {
	Lookup(path string) (any, bool)
}

// Record is a raw decoded JSON object.
type Record map[string]any

// Lookup resolves a dotted property path through nested objects.
func (r Record) Lookup(path string) (any, bool) {
	return Lookup(r, path)
}

// Lookup resolves a dotted property path through nested map[string]any values.
// It returns false when any segment is missing or is not an object.
func Lookup(m map[string]any, path string) (any, bool) {
	if m == nil || path == "" {
		return nil, false
	}

	var cur any = m
	for _, key := range strings.Split(path, ".") {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case Record:
		return obj, true
	default:
		return nil, false
	}
}

// Filter returns a function keeping the elements for which pred is true.
//
// A nil predicate yields the identity filter: the input slice is returned as
// is and never iterated. Otherwise a new slice is returned and the input is
// left untouched.
func Filter[T any](pred Predicate[T]) func([]T) []T {
	if pred == nil {
		return func(in []T) []T { return in }
	}
	return func(in []T) []T {
		out := make([]T, 0, len(in))
		for _, v := range in {
			if pred(v) {
				out = append(out, v)
			}
		}
		return out
	}
}

// PropertyBetween returns a predicate that holds when the numeric property at
// path satisfies lower <= value < upper. A missing or non-numeric property
// compares as 0.
func PropertyBetween[T Lookuper](path string, lower, upper float64) Predicate[T] {
	return func(rec T) bool {
		val := 0.0
		if raw, ok := rec.Lookup(path); ok {
			val, _ = ToFloat(raw)
		}
		return val >= lower && val < upper
	}
}

// FilterPropertyBetween filters records whose property at path lies in
// [lower, upper). Pass math.Inf(-1) or math.Inf(1) for an open bound; with both
// bounds open the identity filter is returned.
func FilterPropertyBetween[T Lookuper](path string, lower, upper float64) func([]T) []T {
	if math.IsInf(lower, -1) && math.IsInf(upper, 1) {
		return Filter[T](nil)
	}
	return Filter(PropertyBetween[T](path, lower, upper))
}

// AtLeast filters records whose property at path is >= lower.
func AtLeast[T Lookuper](path string, lower float64) func([]T) []T {
	return FilterPropertyBetween[T](path, lower, math.Inf(1))
}

// Below filters records whose property at path is < upper.
func Below[T Lookuper](path string, upper float64) func([]T) []T {
	return FilterPropertyBetween[T](path, math.Inf(-1), upper)
}

// ToFloat converts a decoded JSON value to float64. Booleans map to 0/1;
// anything else non-numeric reports false with a 0 result.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
