package gotemplate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// toContext turns render data into a pongo2.Context. Anything that is not
// already a map goes through JSON so templates address struct fields by
// their json names.
func toContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	normalized, err := normalize(data)
	if err != nil {
		return nil, err
	}
	m, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("gotemplate: data must be an object, got %T", data)
	}

	ctx := make(pongo2.Context, len(m))
	for key, value := range m {
		if key = strings.TrimSpace(key); key != "" {
			ctx[key] = value
		}
	}
	return ctx, nil
}

// normalize keeps scalars, string slices and funcs as they are so integers
// still print as integers, and walks maps and slices. Other values are
// replaced by their JSON decoding.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, int, int64, float64, []string:
		return v, nil
	case pongo2.Context:
		return normalizeMap(v)
	case map[string]any:
		return normalizeMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			n, err := normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	if isFunc(value) {
		return value, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return normalize(decoded)
}

func normalizeMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		n, err := normalize(value)
		if err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, nil
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
