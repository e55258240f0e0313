package descriptor

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-gravityforms/pkg/model"
)

// ErrFormNotFound is returned by Find when no form carries the requested id.
var ErrFormNotFound = errors.New("descriptor: form not found")

//go:embed schema/form.schema.json
var schemaFS embed.FS

const schemaURL = "https://gravityforms.goliatone.dev/schema/form.json"

var (
	schemaOnce sync.Once
	formSchema *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := schemaFS.ReadFile("schema/form.schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("descriptor: read schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("descriptor: add schema: %w", err)
			return
		}
		formSchema, schemaErr = c.Compile(schemaURL)
	})
	return formSchema, schemaErr
}

// Decode parses every form contained in doc. Each form is checked against
// the descriptor JSON Schema and model validation before being returned.
func Decode(doc Document) ([]model.Form, error) {
	raw := doc.Raw()
	if doc.Format() == FormatYAML {
		converted, err := yamlToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("descriptor: %s: %w", doc.Location(), err)
		}
		raw = converted
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("descriptor: %s: decode: %w", doc.Location(), err)
	}

	nodes, err := formNodes(generic)
	if err != nil {
		return nil, fmt.Errorf("descriptor: %s: %w", doc.Location(), err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	forms := make([]model.Form, 0, len(nodes))
	seen := make(map[int]struct{}, len(nodes))
	for i, node := range nodes {
		if err := schema.Validate(node); err != nil {
			return nil, fmt.Errorf("descriptor: %s: form #%d: %w", doc.Location(), i, err)
		}
		form, err := decodeForm(node)
		if err != nil {
			return nil, fmt.Errorf("descriptor: %s: form #%d: %w", doc.Location(), i, err)
		}
		if err := form.Validate(); err != nil {
			return nil, fmt.Errorf("descriptor: %s: %w", doc.Location(), err)
		}
		if _, dup := seen[form.ID]; dup {
			return nil, fmt.Errorf("descriptor: %s: duplicate form id %d", doc.Location(), form.ID)
		}
		seen[form.ID] = struct{}{}
		forms = append(forms, form)
	}
	return forms, nil
}

// Load fetches src through loader and decodes it.
func Load(ctx context.Context, loader Loader, src Source) ([]model.Form, error) {
	if loader == nil {
		return nil, errors.New("descriptor: loader is required")
	}
	doc, err := loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return Decode(doc)
}

// Find returns the form with the provided id.
func Find(forms []model.Form, id int) (model.Form, error) {
	for _, form := range forms {
		if form.ID == id {
			return form, nil
		}
	}
	return model.Form{}, fmt.Errorf("%w: %d", ErrFormNotFound, id)
}

// formNodes unwraps the supported document shapes into raw form objects.
func formNodes(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if data, ok := v["data"].(map[string]any); ok {
			return formNodes(data)
		}
		if all, ok := v["allGfForm"]; ok {
			return graphQLEdges(all)
		}
		if forms, ok := v["forms"]; ok {
			list, ok := forms.([]any)
			if !ok {
				return nil, errors.New(`"forms" must be an array`)
			}
			return list, nil
		}
		return []any{v}, nil
	default:
		return nil, fmt.Errorf("unsupported document root %T", value)
	}
}

func graphQLEdges(value any) ([]any, error) {
	conn, ok := value.(map[string]any)
	if !ok {
		return nil, errors.New(`"allGfForm" must be an object`)
	}
	if nodes, ok := conn["nodes"].([]any); ok {
		return nodes, nil
	}
	edges, ok := conn["edges"].([]any)
	if !ok {
		return nil, errors.New(`"allGfForm.edges" must be an array`)
	}
	out := make([]any, 0, len(edges))
	for i, edge := range edges {
		m, ok := edge.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("edge #%d must be an object", i)
		}
		node, ok := m["node"]
		if !ok {
			return nil, fmt.Errorf("edge #%d has no node", i)
		}
		out = append(out, node)
	}
	return out, nil
}

func decodeForm(node any) (model.Form, error) {
	raw, err := json.Marshal(node)
	if err != nil {
		return model.Form{}, err
	}
	var form model.Form
	if err := json.Unmarshal(raw, &form); err != nil {
		return model.Form{}, err
	}
	return form, nil
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var value any
	if err := yaml.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	normalized, err := normalizeYAML(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// normalizeYAML rewrites map[any]any nodes (non string keys) so the value can
// be marshalled as JSON.
func normalizeYAML(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			converted, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			converted, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(key)] = converted
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			converted, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return v, nil
	}
}
