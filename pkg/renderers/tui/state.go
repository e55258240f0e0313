package tui

import (
	"slices"
	"strings"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/validation"
)

// State tracks collected values and the errors reported for a previous
// attempt, both keyed by input name.
type State struct {
	prefill model.Values
	values  model.Values
	errors  map[string][]string
}

// NewState seeds the state from render options: resubmitted values win over
// presets.
func NewState(opts render.RenderOptions) *State {
	prefill := opts.Presets.Merge(opts.Values)
	errs := make(map[string][]string, len(opts.Errors))
	for key, messages := range opts.Errors {
		errs[key] = slices.Clone(messages)
	}
	return &State{
		prefill: prefill,
		values:  model.Values{},
		errors:  errs,
	}
}

// Values returns the collected values.
func (s *State) Values() model.Values {
	return s.values
}

// ErrorsFor returns the errors attached to an input name.
func (s *State) ErrorsFor(name string) []string {
	return s.errors[name]
}

// Defaults resolves the values a prompt starts from: prefilled input, then the
// descriptor default, then selected choices.
func (s *State) Defaults(field model.Field) []string {
	if values := validation.FieldValues(field, s.prefill); len(values) > 0 {
		return values
	}
	if strings.TrimSpace(field.DefaultValue) != "" {
		return []string{field.DefaultValue}
	}
	var selected []string
	for _, choice := range field.Choices {
		if choice.IsSelected {
			selected = append(selected, choice.SubmitValue())
		}
	}
	return selected
}

// Set stores the answer for a single-valued or multiselect field.
func (s *State) Set(field model.Field, values ...string) {
	s.values.Set(field.InputName(), values...)
}

// SetChoices stores checkbox answers under their sub-input names.
func (s *State) SetChoices(field model.Field, indices []int) {
	for _, idx := range indices {
		if idx < 0 || idx >= len(field.Choices) {
			continue
		}
		s.values.Set(field.SubInputName(idx+1), field.Choices[idx].SubmitValue())
	}
}
