package validation

import (
	"strings"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
)

// FieldErrors maps input names to their messages.
type FieldErrors map[string][]string

// Empty reports whether no field failed.
func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// FieldValues collects the submitted values of a field. Checkbox values are
// spread over sub-inputs ("input_3_1", "input_3_2", ...) and are gathered
// together with any value posted under the field's own name.
func FieldValues(field model.Field, values model.Values) []string {
	name := field.InputName()
	out := append([]string(nil), values.All(name)...)
	if field.Type != model.FieldTypeCheckbox {
		return out
	}
	for _, key := range values.Keys() {
		if strings.HasPrefix(key, name+"_") || strings.HasPrefix(key, name+".") {
			out = append(out, values.All(key)...)
		}
	}
	return out
}

// ValidateField returns the messages for a single field. Validation stops at
// the first failing rule; empty optional fields only fail "required".
func ValidateField(field model.Field, values model.Values, catalog render.Catalog) []string {
	collected := FieldValues(field, values)
	for _, rule := range Rules(field) {
		key, args, ok := rule.check(collected)
		if ok {
			continue
		}
		return []string{catalog.Message(key, args...)}
	}
	return nil
}

// ValidateForm validates every field of form in order.
func ValidateForm(form model.Form, values model.Values, catalog render.Catalog) FieldErrors {
	var errs FieldErrors
	for _, field := range form.Fields {
		msgs := ValidateField(field, values, catalog)
		if len(msgs) == 0 {
			continue
		}
		if errs == nil {
			errs = make(FieldErrors)
		}
		errs[field.InputName()] = msgs
	}
	return errs
}

// HasEntry reports whether at least one visible data field carries a value.
// Hidden fields, html blocks and captchas do not count.
func HasEntry(form model.Form, values model.Values) bool {
	for _, field := range form.Fields {
		if !field.CollectsInput() || field.Type == model.FieldTypeHidden {
			continue
		}
		if anyFilled(FieldValues(field, values)) {
			return true
		}
	}
	return false
}
