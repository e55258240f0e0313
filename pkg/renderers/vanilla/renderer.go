package vanilla

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
	rendertemplate "github.com/goliatone/go-gravityforms/pkg/render/template"
	"github.com/goliatone/go-gravityforms/pkg/render/template/gotemplate"
	"github.com/goliatone/go-gravityforms/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-gravityforms/pkg/widgets"
)

const (
	formTemplate         = "templates/form.tmpl"
	confirmationTemplate = "templates/confirmation.tmpl"

	partialForm         = "forms.form"
	partialConfirmation = "forms.confirmation"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	components       *components.Registry
	widgets          *widgets.Registry
	stylesheets      []string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the default widget components.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithWidgetRegistry replaces the type tag to widget resolver.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.widgets = registry
		}
	}
}

// WithStylesheets links extra stylesheets before the form markup.
func WithStylesheets(hrefs ...string) Option {
	return func(cfg *config) {
		for _, href := range hrefs {
			if trimmed := strings.TrimSpace(href); trimmed != "" {
				cfg.stylesheets = append(cfg.stylesheets, trimmed)
			}
		}
	}
}

// Renderer emits Gravity Forms compatible HTML markup.
type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	components  *components.Registry
	widgets     *widgets.Registry
	stylesheets []string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		templates = engine
	}
	if cfg.components == nil {
		cfg.components = components.NewDefaultRegistry()
	}
	if cfg.widgets == nil {
		cfg.widgets = widgets.NewRegistry()
	}

	return &Renderer{
		templates:   templates,
		components:  cfg.components,
		widgets:     cfg.widgets,
		stylesheets: cfg.stylesheets,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the form, or the confirmation message when one is set.
func (r *Renderer) Render(ctx context.Context, form model.Form, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Confirmation) != "" {
		return r.renderConfirmation(form, opts)
	}

	catalog := opts.Catalog()
	assembled, err := assemble(form, opts, r.widgets, r.hasComponent, catalog)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: %w", err)
	}

	fr := newFieldRenderer(r.templates, r.components, componentData(opts))
	fields := make([]any, 0, len(assembled))
	for _, view := range assembled {
		markup, err := fr.render(view)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: %w", err)
		}
		if markup != "" {
			fields = append(fields, markup)
		}
	}

	stylesheets, scripts := fr.assets()
	stylesheets = append(r.themeStylesheets(opts), stylesheets...)

	formErrors := make([]any, 0, len(opts.FormErrors))
	for _, msg := range opts.FormErrors {
		if trimmed := strings.TrimSpace(msg); trimmed != "" {
			formErrors = append(formErrors, trimmed)
		}
	}

	hidden := make([]any, 0, len(opts.Hidden))
	for _, field := range render.SortedHiddenFields(opts.Hidden) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	method := strings.ToLower(strings.TrimSpace(opts.Method))
	if method == "" {
		method = "post"
	}

	payload := map[string]any{
		"form": map[string]any{
			"id":          fmt.Sprint(form.ID),
			"title":       form.Title,
			"description": form.Description,
			"classes":     formClasses(form, opts.Loading),
			"method":      method,
			"action":      opts.Action,
			"style":       cssVarsStyle(opts),
		},
		"fields":        fields,
		"form_errors":   formErrors,
		"hidden_fields": hidden,
		"loading":       opts.Loading,
		"button_text":   form.ButtonText(catalog.Message(render.MessageSubmit)),
		"loading_text":  catalog.Message(render.MessageLoading),
		"stylesheets":   toAnySlice(stylesheets),
		"scripts":       scriptData(scripts),
	}

	result, err := r.templates.RenderTemplate(themePartial(opts, partialForm, formTemplate), payload)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) renderConfirmation(form model.Form, opts render.RenderOptions) ([]byte, error) {
	result, err := r.templates.RenderTemplate(themePartial(opts, partialConfirmation, confirmationTemplate), map[string]any{
		"form":    map[string]any{"id": fmt.Sprint(form.ID)},
		"message": components.SanitizeHTML(opts.Confirmation),
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render confirmation: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) themeStylesheets(opts render.RenderOptions) []string {
	out := append([]string(nil), r.stylesheets...)
	if opts.Theme != nil && opts.Theme.AssetURL != nil {
		if href := strings.TrimSpace(opts.Theme.AssetURL(StylesheetAssetKey)); href != "" {
			out = append(out, href)
		}
	}
	return out
}

func (r *Renderer) hasComponent(name string) bool {
	_, ok := r.components.Descriptor(name)
	return ok
}

func componentData(opts render.RenderOptions) components.ComponentData {
	data := components.ComponentData{RecaptchaSiteKey: opts.RecaptchaSiteKey}
	if opts.Theme != nil {
		data.ThemePartials = opts.Theme.Partials
	}
	return data
}

func themePartial(opts render.RenderOptions, key, fallback string) string {
	if opts.Theme == nil {
		return fallback
	}
	if candidate := strings.TrimSpace(opts.Theme.Partials[key]); candidate != "" {
		return candidate
	}
	return fallback
}

// cssVarsStyle turns theme CSS variables into a deterministic inline style.
func cssVarsStyle(opts render.RenderOptions) string {
	if opts.Theme == nil || len(opts.Theme.CSSVars) == 0 {
		return ""
	}
	names := make([]string, 0, len(opts.Theme.CSSVars))
	for name := range opts.Theme.CSSVars {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		value := strings.TrimSpace(opts.Theme.CSSVars[name])
		if value == "" {
			continue
		}
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%s: %s;", name, value)
	}
	return buf.String()
}

func scriptData(scripts []components.Script) []any {
	out := make([]any, 0, len(scripts))
	for _, script := range scripts {
		out = append(out, map[string]any{
			"src":    script.Src,
			"inline": script.Inline,
			"async":  script.Async,
			"defer":  script.Defer,
		})
	}
	return out
}

func toAnySlice(values []string) []any {
	out := make([]any, 0, len(values))
	for _, value := range values {
		out = append(out, value)
	}
	return out
}
