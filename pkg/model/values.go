package model

import (
	"net/url"
	"sort"
	"strings"
)

// Values holds submitted or preset input keyed by input name. Multi-valued
// inputs (multiselect) keep every selection in order.
type Values map[string][]string

// ValuesFromURL copies url.Values (HTML form posts, query strings).
func ValuesFromURL(in url.Values) Values {
	if len(in) == 0 {
		return Values{}
	}
	out := make(Values, len(in))
	for key, values := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = append([]string(nil), values...)
	}
	return out
}

// ValuesFromMap converts a flat map (presets, decoded JSON) into Values.
// Slices of strings or []any are kept as multiple values; everything else is
// stringified by the caller beforehand.
func ValuesFromMap(in map[string]any) Values {
	out := make(Values, len(in))
	for key, raw := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		switch v := raw.(type) {
		case nil:
			continue
		case string:
			out[key] = []string{v}
		case []string:
			out[key] = append([]string(nil), v...)
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok {
					out[key] = append(out[key], s)
				}
			}
		}
	}
	return out
}

// Get returns the first value for key.
func (v Values) Get(key string) string {
	if v == nil {
		return ""
	}
	values := v[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// All returns every value stored for key.
func (v Values) All(key string) []string {
	if v == nil {
		return nil
	}
	return v[key]
}

// Set replaces the values stored for key.
func (v Values) Set(key string, values ...string) {
	v[key] = append([]string(nil), values...)
}

// Add appends a value for key.
func (v Values) Add(key, value string) {
	v[key] = append(v[key], value)
}

// Has reports whether any non-blank value exists for key.
func (v Values) Has(key string) bool {
	for _, value := range v.All(key) {
		if strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}

// HasPrefix reports whether any key starting with prefix holds a non-blank
// value. Checkbox sub-inputs are looked up this way.
func (v Values) HasPrefix(prefix string) bool {
	for key := range v {
		if strings.HasPrefix(key, prefix) && v.Has(key) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}

// Merge returns a copy of v with other applied on top. Keys present in other
// win, blank entries included.
func (v Values) Merge(other Values) Values {
	out := v.Clone()
	if out == nil {
		out = Values{}
	}
	for key, values := range other {
		out[key] = append([]string(nil), values...)
	}
	return out
}

// Keys returns the sorted key set.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Payload flattens values into the JSON payload shape the endpoint expects:
// single values become strings, multiple values stay arrays.
func (v Values) Payload() map[string]any {
	out := make(map[string]any, len(v))
	for key, values := range v {
		switch len(values) {
		case 0:
			out[key] = ""
		case 1:
			out[key] = values[0]
		default:
			out[key] = append([]string(nil), values...)
		}
	}
	return out
}
