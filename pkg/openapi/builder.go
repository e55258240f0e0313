package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-gravityforms/pkg/model"
)

// ErrOperationNotFound is returned when no operation carries the id.
var ErrOperationNotFound = errors.New("openapi: operation not found")

// MetadataProperty records the originating property name on each field.
const MetadataProperty = "property"

// textareaThreshold promotes long strings to textareas.
const textareaThreshold = 255

// Options tweak form construction.
type Options struct {
	// FormID is assigned to the resulting form; defaults to 1.
	FormID int
	// ButtonText overrides the submit label.
	ButtonText string
}

// FromOperation loads raw (JSON or YAML) and converts the request body of
// operationID into a form.
func FromOperation(ctx context.Context, raw []byte, operationID string, opts Options) (model.Form, error) {
	if len(raw) == 0 {
		return model.Form{}, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return model.Form{}, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return model.Form{}, fmt.Errorf("openapi: validate: %w", err)
	}

	op := findOperation(doc, operationID)
	if op == nil {
		return model.Form{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}

	schema := requestSchema(op.RequestBody)
	if schema == nil {
		return model.Form{}, fmt.Errorf("openapi: operation %q has no request body schema", operationID)
	}

	form := model.Form{
		ID:          opts.FormID,
		Title:       firstNonEmpty(op.Summary, schema.Title, operationID),
		Description: firstNonEmpty(op.Description, schema.Description),
		Button:      model.Button{Text: opts.ButtonText},
		Metadata:    map[string]string{"operationId": operationID},
	}
	if form.ID <= 0 {
		form.ID = 1
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		field := fieldFromSchema(i+1, name, ref.Value)
		field.IsRequired = required[name]
		form.Fields = append(form.Fields, field)
	}

	if err := form.Validate(); err != nil {
		return model.Form{}, fmt.Errorf("openapi: %w", err)
	}
	return form, nil
}

// Operations lists operation ids in the document, sorted.
func Operations(ctx context.Context, raw []byte) ([]string, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	var ids []string
	if doc.Paths == nil {
		return ids, nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID != "" {
				ids = append(ids, op.OperationID)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc.Paths == nil {
		return nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, op := range item.Operations() {
			if op != nil && op.OperationID == operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt != nil && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func fieldFromSchema(id int, name string, s *openapi3.Schema) model.Field {
	field := model.Field{
		ID:          id,
		Type:        model.FieldTypeText,
		Label:       firstNonEmpty(s.Title, humanize(name)),
		Description: s.Description,
		Metadata:    map[string]string{MetadataProperty: name},
	}
	if s.Default != nil {
		field.DefaultValue = fmt.Sprint(s.Default)
	}
	if s.MaxLength != nil {
		field.MaxLength = int(*s.MaxLength)
	}
	if s.Pattern != "" {
		field.InputMaskValue = s.Pattern
	}
	if placeholder, ok := s.Extensions["x-placeholder"].(string); ok {
		field.Placeholder = placeholder
	}

	switch typ := firstSchemaType(s.Type); {
	case len(s.Enum) > 0:
		field.Type = model.FieldTypeSelect
		field.Choices = enumChoices(s.Enum, s.Default)
	case typ == openapi3.TypeArray && s.Items != nil && s.Items.Value != nil && len(s.Items.Value.Enum) > 0:
		field.Type = model.FieldTypeMultiselect
		field.Choices = enumChoices(s.Items.Value.Enum, nil)
		field.DefaultValue = ""
	case typ == openapi3.TypeInteger || typ == openapi3.TypeNumber:
		field.Type = model.FieldTypeNumber
	case typ == openapi3.TypeBoolean:
		field.Type = model.FieldTypeCheckbox
		field.Choices = model.Choices{{Text: field.Label, Value: "true", IsSelected: s.Default == true}}
		field.DefaultValue = ""
	case s.Format == "email":
		field.Type = model.FieldTypeEmail
	case widgetHint(s) == "textarea" || field.MaxLength > textareaThreshold:
		field.Type = model.FieldTypeTextarea
	case widgetHint(s) == "hidden":
		field.Type = model.FieldTypeHidden
	}
	return field
}

func widgetHint(s *openapi3.Schema) string {
	if hint, ok := s.Extensions["x-widget"].(string); ok {
		return strings.ToLower(strings.TrimSpace(hint))
	}
	return ""
}

func enumChoices(values []any, selected any) model.Choices {
	choices := make(model.Choices, 0, len(values))
	for _, value := range values {
		text := fmt.Sprint(value)
		choices = append(choices, model.Choice{
			Text:       text,
			Value:      text,
			IsSelected: selected != nil && fmt.Sprint(selected) == text,
		})
	}
	return choices
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	for _, value := range values {
		if value != openapi3.TypeNull {
			return value
		}
	}
	return ""
}

func humanize(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
