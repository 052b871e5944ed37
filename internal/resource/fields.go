package resource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-irrigation/internal/query"
)

// Fields is the read-only scalar state of a resource as returned by the
// remote service. Accessors return the zero value for absent or mistyped
// keys and never panic.
type Fields map[string]any

var (
	_ query.Lookuper = Fields(nil)
	_ query.Lookuper = Event{}
	_ query.Lookuper = Forecast{}
)

// DecodeFields decodes a JSON object. Numbers are kept as json.Number.
func DecodeFields(raw json.RawMessage) (Fields, error) {
	var f Fields
	if err := decodeJSON(raw, &f); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: expected object, got null", ErrMalformedResponse)
	}
	return f, nil
}

// decodeFieldsList decodes either a JSON array of objects or an object
// holding such an array under key.
func decodeFieldsList(raw json.RawMessage, key string) ([]Fields, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '{' {
		obj, err := DecodeFields(trimmed)
		if err != nil {
			return nil, err
		}
		return obj.list(key)
	}

	var list []Fields
	if err := decodeJSON(trimmed, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func decodeJSON(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// Get returns the raw value at key.
func (f Fields) Get(key string) any {
	return f[key]
}

// Has reports whether key is present.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// String returns the value at key if it is a string.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Float returns the numeric value at key.
func (f Fields) Float(key string) float64 {
	v, _ := query.ToFloat(f[key])
	return v
}

// Int returns the numeric value at key truncated to an int.
func (f Fields) Int(key string) int {
	if n, ok := f[key].(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return int(f.Float(key))
}

// Bool returns the value at key if it is a boolean.
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Time interprets the value at key as epoch milliseconds, or as an RFC 3339
// string.
func (f Fields) Time(key string) time.Time {
	switch v := f[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
		return time.Time{}
	case nil, bool:
		return time.Time{}
	}

	if n, ok := f[key].(json.Number); ok {
		if ms, err := n.Int64(); err == nil {
			return time.UnixMilli(ms)
		}
	}
	if ms, ok := query.ToFloat(f[key]); ok && ms != 0 {
		return time.UnixMilli(int64(ms))
	}
	return time.Time{}
}

// Seconds interprets the value at key as a whole number of seconds.
func (f Fields) Seconds(key string) time.Duration {
	return time.Duration(f.Float(key) * float64(time.Second))
}

// Lookup resolves a dotted path through nested objects.
func (f Fields) Lookup(path string) (any, bool) {
	return query.Lookup(f, path)
}

// Without returns a copy of f with keys removed.
func (f Fields) Without(keys ...string) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// object returns the nested object at key.
func (f Fields) object(key string) (Fields, bool, error) {
	raw, ok := f[key]
	if !ok || raw == nil {
		return nil, false, nil
	}
	switch obj := raw.(type) {
	case map[string]any:
		return Fields(obj), true, nil
	case Fields:
		return obj, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %q is %T, want object", ErrMalformedResponse, key, raw)
	}
}

// list returns the nested array of objects at key.
func (f Fields) list(key string) ([]Fields, error) {
	raw, ok := f[key]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, want array", ErrMalformedResponse, key, raw)
	}

	out := make([]Fields, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] is %T, want object", ErrMalformedResponse, key, i, item)
		}
		out = append(out, Fields(obj))
	}
	return out, nil
}
