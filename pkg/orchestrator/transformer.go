package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-gravityforms/pkg/model"
)

// Transformer mutates a form after loading and before decorators run.
type Transformer interface {
	Transform(ctx context.Context, form *model.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *model.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *model.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// PresetTransformer applies declarative overrides loaded from a YAML or JSON
// document. Field patches are keyed by field id or input name:
//
//	title: Get in touch
//	button: Send
//	fields:
//	  "1": {label: Full name, placeholder: Jane Doe}
//	  input_3: {isRequired: true, metadata: {widget: radio}}
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Title       string                `yaml:"title"`
	Description string                `yaml:"description"`
	Button      string                `yaml:"button"`
	CSSClass    string                `yaml:"cssClass"`
	APIURL      string                `yaml:"apiURL"`
	Metadata    map[string]string     `yaml:"metadata"`
	Fields      map[string]fieldPatch `yaml:"fields"`
}

type fieldPatch struct {
	Label        string            `yaml:"label"`
	Description  string            `yaml:"description"`
	Placeholder  string            `yaml:"placeholder"`
	CSSClass     string            `yaml:"cssClass"`
	DefaultValue string            `yaml:"defaultValue"`
	IsRequired   *bool             `yaml:"isRequired"`
	MaxLength    *int              `yaml:"maxLength"`
	Metadata     map[string]string `yaml:"metadata"`
}

// NewPresetTransformer parses a preset document. JSON input is accepted since
// it is valid YAML.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the patches onto form. Unknown field keys are an error.
func (t *PresetTransformer) Transform(ctx context.Context, form *model.Form) error {
	if form == nil {
		return errors.New("preset transformer: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := t.document
	setIfPresent(&form.Title, doc.Title)
	setIfPresent(&form.Description, doc.Description)
	setIfPresent(&form.Button.Text, doc.Button)
	setIfPresent(&form.CSSClass, doc.CSSClass)
	setIfPresent(&form.APIURL, doc.APIURL)
	if len(doc.Metadata) > 0 {
		form.Metadata = mergeStringMap(form.Metadata, doc.Metadata)
	}

	keys := make([]string, 0, len(doc.Fields))
	for key := range doc.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		id, ok := model.ParseInputID(key)
		if !ok {
			return fmt.Errorf("preset transformer: invalid field key %q", key)
		}
		idx := fieldIndex(form.Fields, id)
		if idx < 0 {
			return fmt.Errorf("preset transformer: field %q not found", key)
		}
		applyFieldPatch(&form.Fields[idx], doc.Fields[key])
	}
	return nil
}

func applyFieldPatch(field *model.Field, patch fieldPatch) {
	setIfPresent(&field.Label, patch.Label)
	setIfPresent(&field.Description, patch.Description)
	setIfPresent(&field.Placeholder, patch.Placeholder)
	setIfPresent(&field.CSSClass, patch.CSSClass)
	setIfPresent(&field.DefaultValue, patch.DefaultValue)
	if patch.IsRequired != nil {
		field.IsRequired = *patch.IsRequired
	}
	if patch.MaxLength != nil && *patch.MaxLength >= 0 {
		field.MaxLength = *patch.MaxLength
	}
	if len(patch.Metadata) > 0 {
		field.Metadata = mergeStringMap(field.Metadata, patch.Metadata)
	}
}

func fieldIndex(fields []model.Field, id int) int {
	for idx := range fields {
		if fields[idx].ID == id {
			return idx
		}
	}
	return -1
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	out := make(map[string]string, len(dst)+len(src))
	for key, value := range dst {
		out[key] = value
	}
	for key, value := range src {
		out[key] = value
	}
	return out
}
