package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldType is the descriptor type tag emitted by the form builder.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeEmail       FieldType = "email"
	FieldTypePhone       FieldType = "phone"
	FieldTypeNumber      FieldType = "number"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiselect FieldType = "multiselect"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeRadio       FieldType = "radio"
	FieldTypeHidden      FieldType = "hidden"
	FieldTypeHTML        FieldType = "html"
	FieldTypeCaptcha     FieldType = "captcha"
)

// Description placements understood by renderers.
const (
	PlacementAbove = "above"
	PlacementBelow = "below"
)

// Label placement that hides the visible label.
const LabelPlacementHidden = "hidden_label"

const inputPrefix = "input_"

// Choice is a single option of a choice based field.
type Choice struct {
	Text       string `json:"text"`
	Value      string `json:"value"`
	IsSelected bool   `json:"isSelected,omitempty"`
}

// SubmitValue returns the value posted for the choice, falling back to its
// text when no explicit value is set.
func (c Choice) SubmitValue() string {
	if c.Value != "" {
		return c.Value
	}
	return c.Text
}

// Choices decodes either a JSON array or a JSON-encoded string holding an
// array, which is how the GraphQL schema ships choices.
type Choices []Choice

// UnmarshalJSON implements json.Unmarshaler.
func (c *Choices) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = nil
		return nil
	}
	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return fmt.Errorf("model: decode choices string: %w", err)
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			*c = nil
			return nil
		}
		trimmed = []byte(encoded)
	}
	var out []Choice
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return fmt.Errorf("model: decode choices: %w", err)
	}
	*c = out
	return nil
}

// Field describes one form field. Struct tags follow the GraphQL schema so
// descriptors can be decoded without an intermediate representation.
type Field struct {
	ID                   int               `json:"id" validate:"gt=0"`
	Type                 FieldType         `json:"type" validate:"required"`
	Label                string            `json:"label,omitempty"`
	IsRequired           bool              `json:"isRequired,omitempty"`
	MaxLength            int               `json:"maxLength,omitempty" validate:"gte=0"`
	Placeholder          string            `json:"placeholder,omitempty"`
	CSSClass             string            `json:"cssClass,omitempty"`
	Choices              Choices           `json:"choices,omitempty"`
	Description          string            `json:"description,omitempty"`
	DescriptionPlacement string            `json:"descriptionPlacement,omitempty" validate:"omitempty,oneof=above below"`
	LabelPlacement       string            `json:"labelPlacement,omitempty"`
	Size                 string            `json:"size,omitempty"`
	DefaultValue         string            `json:"defaultValue,omitempty"`
	InputMaskValue       string            `json:"inputMaskValue,omitempty"`
	Content              string            `json:"content,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
}

// InputName returns the wire name of the field, e.g. "input_3".
func (f Field) InputName() string {
	return inputPrefix + strconv.Itoa(f.ID)
}

// SubInputName returns the name of the n-th (1-based) sub-input, used by
// checkbox choices, e.g. "input_3_2".
func (f Field) SubInputName(n int) string {
	return f.InputName() + "_" + strconv.Itoa(n)
}

// IsChoiceBased reports whether the field renders its Choices.
func (f Field) IsChoiceBased() bool {
	switch f.Type {
	case FieldTypeSelect, FieldTypeMultiselect, FieldTypeCheckbox, FieldTypeRadio:
		return true
	default:
		return false
	}
}

// CollectsInput reports whether the field contributes a value to submissions.
func (f Field) CollectsInput() bool {
	switch f.Type {
	case FieldTypeHTML, FieldTypeCaptcha:
		return false
	default:
		return true
	}
}

// Button holds submit button settings.
type Button struct {
	Text string `json:"text,omitempty"`
}

// Form is the top-level descriptor renderers consume.
type Form struct {
	ID                   int               `json:"formId" validate:"gt=0"`
	Title                string            `json:"title,omitempty"`
	Description          string            `json:"description,omitempty"`
	APIURL               string            `json:"apiURL,omitempty" validate:"omitempty,url"`
	DescriptionPlacement string            `json:"descriptionPlacement,omitempty" validate:"omitempty,oneof=above below"`
	Button               Button            `json:"button,omitempty"`
	CSSClass             string            `json:"cssClass,omitempty"`
	Fields               []Field           `json:"formFields" validate:"dive"`
	Metadata             map[string]string `json:"metadata,omitempty"`
}

// Field returns the field with the provided id.
func (f Form) Field(id int) (Field, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return Field{}, false
}

// FieldByInput resolves an input name back to its field. It accepts the
// canonical "input_3", sub-input forms "input_3_2" / "input_3.2", and bare
// ids such as "3".
func (f Form) FieldByInput(name string) (Field, bool) {
	id, ok := ParseInputID(name)
	if !ok {
		return Field{}, false
	}
	return f.Field(id)
}

// ParseInputID extracts the field id from an input name.
func ParseInputID(name string) (int, bool) {
	trimmed := strings.TrimSpace(name)
	trimmed = strings.TrimPrefix(trimmed, inputPrefix)
	if trimmed == "" {
		return 0, false
	}
	if idx := strings.IndexAny(trimmed, "_."); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	id, err := strconv.Atoi(trimmed)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ButtonText returns the configured button label or fallback.
func (f Form) ButtonText(fallback string) string {
	if text := strings.TrimSpace(f.Button.Text); text != "" {
		return text
	}
	return fallback
}
