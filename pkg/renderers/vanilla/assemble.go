package vanilla

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-gravityforms/pkg/validation"
	"github.com/goliatone/go-gravityforms/pkg/widgets"
)

// fieldView is a field ready for markup: the component view plus the chrome
// rendered around it.
type fieldView struct {
	components.Field

	Widget      string
	Classes     []string
	Description string
	Placement   string
	HiddenLabel bool
	Errors      []string
}

func (v fieldView) descriptionID() string { return v.ControlID + "_description" }
func (v fieldView) errorID() string       { return v.ControlID + "_error" }
func (v fieldView) labelID() string       { return v.ControlID + "_label" }

// assemble resolves every supported field of form into a fieldView. Fields
// whose widget has no component in available are dropped.
func assemble(form model.Form, opts render.RenderOptions, reg *widgets.Registry, available func(string) bool, catalog render.Catalog) ([]fieldView, error) {
	views := make([]fieldView, 0, len(form.Fields))
	for _, field := range form.Fields {
		widget, ok := reg.ResolveAvailable(field, available)
		if !ok {
			continue
		}
		view, err := buildView(form, field, widget, opts, catalog)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func buildView(form model.Form, field model.Field, widget string, opts render.RenderOptions, catalog render.Catalog) (fieldView, error) {
	if field.ID <= 0 {
		return fieldView{}, fmt.Errorf("field %q has no id", field.Label)
	}

	name := field.InputName()
	controlID := fmt.Sprintf("input_%d_%d", form.ID, field.ID)
	values := resolveValues(field, opts)
	errs := opts.FieldErrors(name)

	view := fieldView{
		Field: components.Field{
			ID:          field.ID,
			FormID:      form.ID,
			Type:        field.Type,
			Name:        name,
			ControlID:   controlID,
			Label:       strings.TrimSpace(field.Label),
			Placeholder: field.Placeholder,
			Required:    field.IsRequired,
			MaxLength:   field.MaxLength,
			Values:      values,
			Content:     field.Content,
			Invalid:     len(errs) > 0,
		},
		Widget:      widget,
		Description: strings.TrimSpace(field.Description),
		Placement:   descriptionPlacement(form, field),
		HiddenLabel: field.LabelPlacement == model.LabelPlacementHidden,
		Errors:      errs,
	}
	if len(values) > 0 {
		view.Value = values[0]
	}
	if field.Type == model.FieldTypeTextarea && field.MaxLength > 0 && view.Label != "" {
		view.Label += " " + catalog.Message(render.MessageMaxLengthHint, field.MaxLength)
	}

	if field.IsChoiceBased() {
		view.Choices = resolveChoices(field, controlID, values)
	}

	var describedBy []string
	if view.Description != "" {
		describedBy = append(describedBy, view.descriptionID())
	}
	if view.Invalid {
		describedBy = append(describedBy, view.errorID())
	}
	view.DescribedBy = strings.Join(describedBy, " ")
	view.Classes = wrapperClasses(field, view.HiddenLabel, view.Invalid)
	return view, nil
}

// resolveValues picks the values shown in a control: submitted input when the
// form is being re-rendered, then presets, then the descriptor default.
func resolveValues(field model.Field, opts render.RenderOptions) []string {
	if len(opts.Values) > 0 {
		values := validation.FieldValues(field, opts.Values)
		if len(values) > 0 {
			return values
		}
		if field.Type != model.FieldTypeHidden {
			// Submitted but left empty; unchecked boxes post nothing.
			return []string{}
		}
	}
	if values := validation.FieldValues(field, opts.Presets); len(values) > 0 {
		return values
	}
	if def := strings.TrimSpace(field.DefaultValue); def != "" {
		return []string{field.DefaultValue}
	}
	return nil
}

func resolveChoices(field model.Field, controlID string, values []string) []components.Choice {
	choices := make([]components.Choice, 0, len(field.Choices))
	for idx, choice := range field.Choices {
		n := idx + 1
		value := choice.SubmitValue()
		selected := choice.IsSelected
		if values != nil {
			selected = slices.Contains(values, value)
		}
		name := field.InputName()
		if field.Type == model.FieldTypeCheckbox {
			name = field.SubInputName(n)
		}
		choices = append(choices, components.Choice{
			ID:       fmt.Sprintf("choice_%s_%d", strings.TrimPrefix(controlID, "input_"), n),
			Name:     name,
			Text:     choice.Text,
			Value:    value,
			Selected: selected,
		})
	}
	return choices
}

func descriptionPlacement(form model.Form, field model.Field) string {
	for _, candidate := range []string{field.DescriptionPlacement, form.DescriptionPlacement} {
		switch candidate {
		case model.PlacementAbove, model.PlacementBelow:
			return candidate
		}
	}
	return model.PlacementBelow
}

func wrapperClasses(field model.Field, hiddenLabel, invalid bool) []string {
	classes := []string{
		"gravityform__field",
		"gravityform__field__" + string(field.Type),
	}
	if size := strings.TrimSpace(field.Size); size != "" {
		classes = append(classes, "gravityform__field--"+size)
	}
	if css := sanitizeClassList(field.CSSClass); css != "" {
		classes = append(classes, css)
	}
	if field.IsRequired {
		classes = append(classes, "field-required")
	}
	if hiddenLabel {
		classes = append(classes, "hidden-label")
	}
	if invalid {
		classes = append(classes, "gravityform__field--error")
	}
	return classes
}

func formClasses(form model.Form, loading bool) []any {
	classes := []any{"gravityform"}
	if loading {
		classes = append(classes, "gravityform--loading")
	}
	classes = append(classes, fmt.Sprintf("gravityform--id-%d", form.ID))
	if css := sanitizeClassList(form.CSSClass); css != "" {
		classes = append(classes, css)
	}
	return classes
}

func sanitizeClassList(value string) string {
	tokens := strings.Fields(value)
	keep := tokens[:0]
	for _, token := range tokens {
		if strings.ContainsAny(token, `"'<>`) {
			continue
		}
		keep = append(keep, token)
	}
	return strings.Join(keep, " ")
}
