package components

import (
	"bytes"
	"fmt"
	"html"
	"strings"
)

const templatePrefix = "templates/components/"

// NewDefaultRegistry constructs a registry pre-populated with the built-in
// widgets.
func NewDefaultRegistry() *Registry {
	registry := New()

	registry.MustRegister(NameInput, Descriptor{
		Renderer: templateComponentRenderer("forms.input", templatePrefix+"input.tmpl"),
	})
	registry.MustRegister(NameTextarea, Descriptor{
		Renderer: templateComponentRenderer("forms.textarea", templatePrefix+"textarea.tmpl"),
	})
	registry.MustRegister(NameSelect, Descriptor{
		Renderer: templateComponentRenderer("forms.select", templatePrefix+"select.tmpl"),
	})
	registry.MustRegister(NameMultiselect, Descriptor{
		Renderer: templateComponentRenderer("forms.multiselect", templatePrefix+"select.tmpl"),
	})
	registry.MustRegister(NameCheckbox, Descriptor{
		Renderer: templateComponentRenderer("forms.checkbox", templatePrefix+"checkbox.tmpl"),
	})
	registry.MustRegister(NameRadio, Descriptor{
		Renderer: templateComponentRenderer("forms.radio", templatePrefix+"radio.tmpl"),
	})
	registry.MustRegister(NameHTML, Descriptor{
		Renderer: htmlRenderer,
	})
	registry.MustRegister(NameCaptcha, Descriptor{
		Renderer: captchaRenderer,
		Scripts: []Script{
			{Src: RecaptchaScript, Async: true, Defer: true},
		},
	})

	return registry
}

func templateComponentRenderer(partialKey, templateName string) Renderer {
	return func(buf *bytes.Buffer, field Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}

		resolved := templateName
		if candidate := strings.TrimSpace(data.ThemePartials[partialKey]); candidate != "" {
			resolved = candidate
		}

		rendered, err := data.Template.RenderTemplate(resolved, map[string]any{
			"field":  field.TemplateData(),
			"config": data.Config,
		})
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", resolved, err)
		}
		buf.WriteString(strings.TrimSpace(rendered))
		return nil
	}
}

func htmlRenderer(buf *bytes.Buffer, field Field, _ ComponentData) error {
	content := SanitizeHTML(field.Content)
	if content == "" {
		return nil
	}
	buf.WriteString(`<div class="gravityform__html">`)
	buf.WriteString(content)
	buf.WriteString(`</div>`)
	return nil
}

// captchaRenderer emits the reCAPTCHA mount point. The widget itself is
// loaded by the script declared on the descriptor.
func captchaRenderer(buf *bytes.Buffer, field Field, data ComponentData) error {
	key := strings.TrimSpace(data.RecaptchaSiteKey)
	if key == "" {
		return nil
	}
	buf.WriteString(`<div id="`)
	buf.WriteString(html.EscapeString(field.ControlID))
	buf.WriteString(`" class="g-recaptcha" data-sitekey="`)
	buf.WriteString(html.EscapeString(key))
	buf.WriteString(`"></div>`)
	return nil
}
