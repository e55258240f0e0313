package render

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// HiddenField is one <input type="hidden"> written before the fields.
type HiddenField struct {
	Name  string
	Value string
}

func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// CSRFToken is a hidden field for a CSRF token under the given name.
func CSRFToken(name, token string) HiddenField { return Hidden(name, token) }

// FormIDField is the gform_submit marker Gravity Forms posts with every
// submission.
func FormIDField(formID int) HiddenField {
	return Hidden("gform_submit", formID)
}

// MergeHiddenFields copies base and sets fields on top. Blank names are
// dropped; the last field with a given name wins.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := map[string]string{}
	for name, value := range base {
		out[strings.TrimSpace(name)] = value
	}
	for _, field := range fields {
		out[field.Name] = field.Value
	}
	delete(out, "")
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields lists fields by name so the markup is stable.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	var out []HiddenField
	for name, value := range fields {
		if key := strings.TrimSpace(name); key != "" {
			out = append(out, HiddenField{Name: key, Value: value})
		}
	}
	slices.SortFunc(out, func(a, b HiddenField) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
