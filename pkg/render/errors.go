package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-gravityforms/pkg/model"
)

// ErrorMapping is the projection of server validation messages onto a form.
type ErrorMapping struct {
	// Fields is keyed by the owning field's input name ("input_3"). Messages
	// reported against sub-inputs ("input_3_2") are folded onto the field.
	Fields map[string][]string
	// Form holds messages that do not belong to any field of the form.
	Form []string
}

// Empty reports whether no message was mapped.
func (m ErrorMapping) Empty() bool {
	return len(m.Fields) == 0 && len(m.Form) == 0
}

// MapValidationMessages attaches each server message to the field it names.
// Keys may be "input_N", "input_N_M", "input_N.M" or a bare "N". Keys that do
// not resolve to a field of form become form-level errors. Output is
// deterministic: keys are visited in sorted order.
func MapValidationMessages(form model.Form, messages map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	if len(messages) == 0 {
		return mapping
	}

	keys := make([]string, 0, len(messages))
	for key := range messages {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		msgs := compactMessages(messages[key])
		if len(msgs) == 0 {
			continue
		}
		field, ok := form.FieldByInput(strings.TrimSpace(key))
		if !ok {
			mapping.Form = appendUnique(mapping.Form, msgs...)
			continue
		}
		if mapping.Fields == nil {
			mapping.Fields = make(map[string][]string)
		}
		name := field.InputName()
		mapping.Fields[name] = appendUnique(mapping.Fields[name], msgs...)
	}
	return mapping
}

// NormalizeMessages flattens the loosely typed message values found in JSON
// payloads (string, []string, []any, nested maps) into a string slice.
func NormalizeMessages(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return compactMessages([]string{v})
	case []string:
		return compactMessages(v)
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, NormalizeMessages(item)...)
		}
		return out
	case map[string]any:
		if msg, ok := v["message"]; ok {
			return NormalizeMessages(msg)
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var out []string
		for _, key := range keys {
			out = append(out, NormalizeMessages(v[key])...)
		}
		return out
	default:
		return compactMessages([]string{fmt.Sprint(v)})
	}
}

// MergeFieldErrors combines error maps. Later maps append to earlier ones and
// duplicate messages are dropped.
func MergeFieldErrors(sets ...map[string][]string) map[string][]string {
	var out map[string][]string
	for _, set := range sets {
		for key, msgs := range set {
			msgs = compactMessages(msgs)
			if len(msgs) == 0 {
				continue
			}
			if out == nil {
				out = make(map[string][]string)
			}
			out[key] = appendUnique(out[key], msgs...)
		}
	}
	return out
}

func compactMessages(msgs []string) []string {
	var out []string
	for _, msg := range msgs {
		if trimmed := strings.TrimSpace(msg); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func appendUnique(dst []string, msgs ...string) []string {
	for _, msg := range msgs {
		dup := false
		for _, existing := range dst {
			if existing == msg {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, msg)
		}
	}
	return dst
}
