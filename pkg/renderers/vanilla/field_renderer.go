package vanilla

import (
	"bytes"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render/template"
	"github.com/goliatone/go-gravityforms/pkg/renderers/vanilla/components"
)

type fieldRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	data      components.ComponentData

	usedComponents map[string]struct{}
}

func newFieldRenderer(templates template.TemplateRenderer, registry *components.Registry, data components.ComponentData) *fieldRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	data.Template = templates
	return &fieldRenderer{
		templates:      templates,
		registry:       registry,
		data:           data,
		usedComponents: make(map[string]struct{}),
	}
}

func (r *fieldRenderer) render(view fieldView) (string, error) {
	descriptor, ok := r.registry.Descriptor(view.Widget)
	if !ok {
		return "", fmt.Errorf("component %q not registered for field %d", view.Widget, view.ID)
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, view.Field, r.data); err != nil {
		return "", fmt.Errorf("render component %q for field %d: %w", view.Widget, view.ID, err)
	}
	if control.Len() == 0 && view.Widget == components.NameCaptcha {
		return "", nil
	}
	r.usedComponents[descriptor.Name] = struct{}{}

	switch {
	case view.Type == model.FieldTypeHidden:
		return "  " + control.String() + "\n", nil
	case view.Widget == components.NameCaptcha:
		return "  " + control.String() + "\n", nil
	}
	return buildFieldMarkup(view, control.String()), nil
}

func (r *fieldRenderer) assets() (stylesheets []string, scripts []components.Script) {
	if r.registry == nil || len(r.usedComponents) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(r.usedComponents))
	for name := range r.usedComponents {
		names = append(names, name)
	}
	slices.Sort(names)
	return r.registry.Assets(names)
}

func buildFieldMarkup(view fieldView, control string) string {
	var b strings.Builder
	b.Grow(len(control) + 256)

	b.WriteString(`  <div class="`)
	b.WriteString(html.EscapeString(strings.Join(view.Classes, " ")))
	b.WriteString(`" data-component="`)
	b.WriteString(html.EscapeString(view.Widget))
	b.WriteString("\">\n")

	if view.Label != "" && view.Widget != components.NameHTML {
		if labelSupportsFor(view.Widget) {
			b.WriteString(`    <label for="`)
			b.WriteString(html.EscapeString(view.ControlID))
			b.WriteString(`" class="gravityform__label">`)
			b.WriteString(html.EscapeString(view.Label))
			b.WriteString("</label>\n")
		} else {
			b.WriteString(`    <span id="`)
			b.WriteString(html.EscapeString(view.labelID()))
			b.WriteString(`" class="gravityform__label">`)
			b.WriteString(html.EscapeString(view.Label))
			b.WriteString("</span>\n")
		}
	}

	if view.Placement == model.PlacementAbove {
		writeDescription(&b, view)
	}
	for _, line := range strings.Split(control, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if view.Placement != model.PlacementAbove {
		writeDescription(&b, view)
	}

	if len(view.Errors) > 0 {
		b.WriteString(`    <div id="`)
		b.WriteString(html.EscapeString(view.errorID()))
		b.WriteString(`" class="gravityform__error_message" role="alert">`)
		b.WriteString(html.EscapeString(strings.Join(view.Errors, " ")))
		b.WriteString("</div>\n")
	}

	b.WriteString("  </div>\n")
	return b.String()
}

func writeDescription(b *strings.Builder, view fieldView) {
	if view.Description == "" {
		return
	}
	b.WriteString(`    <div id="`)
	b.WriteString(html.EscapeString(view.descriptionID()))
	b.WriteString(`" class="gravityform__description">`)
	b.WriteString(html.EscapeString(view.Description))
	b.WriteString("</div>\n")
}

func labelSupportsFor(widget string) bool {
	switch widget {
	case components.NameCheckbox, components.NameRadio:
		return false
	default:
		return true
	}
}
