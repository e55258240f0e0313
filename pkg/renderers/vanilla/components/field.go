package components

import (
	"strconv"

	"github.com/goliatone/go-gravityforms/pkg/model"
)

// Field is the render-ready view of a descriptor field: values are resolved,
// choices carry their selection state and sub-input names are computed.
type Field struct {
	ID          int
	FormID      int
	Type        model.FieldType
	Name        string
	ControlID   string
	Label       string
	Placeholder string
	Required    bool
	MaxLength   int
	Value       string
	Values      []string
	Choices     []Choice
	Content     string
	CSSClass    string
	Invalid     bool
	DescribedBy string
}

// Choice is a render-ready option.
type Choice struct {
	ID       string
	Name     string
	Text     string
	Value    string
	Selected bool
}

// InputType maps descriptor types to the HTML input type attribute.
func (f Field) InputType() string {
	switch f.Type {
	case model.FieldTypeEmail:
		return "email"
	case model.FieldTypePhone:
		return "tel"
	case model.FieldTypeNumber:
		return "number"
	case model.FieldTypeHidden:
		return "hidden"
	default:
		return "text"
	}
}

// TemplateData flattens the view into the map handed to templates. Numbers
// are passed as strings so they print verbatim.
func (f Field) TemplateData() map[string]any {
	choices := make([]any, 0, len(f.Choices))
	for _, choice := range f.Choices {
		choices = append(choices, map[string]any{
			"id":       choice.ID,
			"name":     choice.Name,
			"text":     choice.Text,
			"value":    choice.Value,
			"selected": choice.Selected,
		})
	}
	maxLength := ""
	if f.MaxLength > 0 {
		maxLength = strconv.Itoa(f.MaxLength)
	}
	return map[string]any{
		"id":           strconv.Itoa(f.ID),
		"name":         f.Name,
		"control_id":   f.ControlID,
		"type":         string(f.Type),
		"input_type":   f.InputType(),
		"label":        f.Label,
		"placeholder":  f.Placeholder,
		"required":     f.Required,
		"maxlength":    maxLength,
		"value":        f.Value,
		"values":       f.Values,
		"choices":      choices,
		"multiple":     f.Type == model.FieldTypeMultiselect,
		"css_class":    f.CSSClass,
		"invalid":      f.Invalid,
		"described_by": f.DescribedBy,
	}
}
