package orchestrator

import (
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ThemeSelector resolves a theme and variant into a selection. It matches the
// selector shape exposed by go-theme.
type ThemeSelector interface {
	Select(name, variant string, opts ...theme.QueryOption) (*theme.Selection, error)
}

// WithThemeSelector resolves request theme names through selector.
func WithThemeSelector(selector ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.themeSelector = selector
	}
}

// WithThemeManifests serves themes from in-memory manifests. Requests that
// name no theme use defaultTheme/defaultVariant.
func WithThemeManifests(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) Option {
	return func(o *Orchestrator) {
		o.themeSelector = NewManifestSelector(defaultTheme, defaultVariant, manifests...)
	}
}

// WithThemeFallbacks replaces the partials used when a theme does not
// override a template key.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.themeFallbacks = copyStringMap(fallbacks)
	}
}

// defaultThemeFallbacks maps partial keys to the built-in vanilla templates.
func defaultThemeFallbacks() map[string]string {
	return map[string]string{
		"forms.form":         "templates/form.tmpl",
		"forms.confirmation": "templates/confirmation.tmpl",
		"forms.input":        "templates/components/input.tmpl",
		"forms.textarea":     "templates/components/textarea.tmpl",
		"forms.select":       "templates/components/select.tmpl",
		"forms.multiselect":  "templates/components/select.tmpl",
		"forms.checkbox":     "templates/components/checkbox.tmpl",
		"forms.radio":        "templates/components/radio.tmpl",
	}
}

func (o *Orchestrator) resolveTheme(name, variant string) (*theme.RendererConfig, error) {
	if o.themeSelector == nil {
		return nil, nil
	}
	selection, err := o.themeSelector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: select theme %q: %w", name, err)
	}
	if selection == nil {
		return nil, nil
	}
	fallbacks := o.themeFallbacks
	if fallbacks == nil {
		fallbacks = defaultThemeFallbacks()
	}
	return RendererConfig(selection, fallbacks), nil
}

// RendererConfig flattens a selection into the configuration renderers read:
// variant templates, tokens and asset files override the base manifest, and
// fallbacks fill the partial keys neither overrides.
func RendererConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: copyStringMap(fallbacks),
		Tokens:   map[string]string{},
	}
	if cfg.Partials == nil {
		cfg.Partials = map[string]string{}
	}

	manifest := selection.Manifest
	if manifest == nil {
		return cfg
	}
	var variant theme.Variant
	if manifest.Variants != nil {
		variant = manifest.Variants[selection.Variant]
	}

	for _, templates := range []map[string]string{manifest.Templates, variant.Templates} {
		for key, value := range templates {
			if strings.TrimSpace(value) != "" {
				cfg.Partials[key] = value
			}
		}
	}
	for _, tokens := range []map[string]string{manifest.Tokens, variant.Tokens} {
		for key, value := range tokens {
			cfg.Tokens[key] = value
		}
	}
	cfg.CSSVars = make(map[string]string, len(cfg.Tokens))
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	prefix := strings.TrimSpace(variant.Assets.Prefix)
	if prefix == "" {
		prefix = manifest.Assets.Prefix
	}
	files := copyStringMap(manifest.Assets.Files)
	if files == nil {
		files = map[string]string{}
	}
	for key, value := range variant.Assets.Files {
		files[key] = value
	}
	cfg.AssetURL = func(key string) string {
		file := strings.TrimSpace(files[key])
		if file == "" {
			return ""
		}
		if strings.Contains(file, "://") || strings.HasPrefix(file, "/") {
			return file
		}
		if prefix == "" {
			return file
		}
		return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
	}
	return cfg
}

// ManifestSelector selects among registered manifests.
type ManifestSelector struct {
	defaultTheme   string
	defaultVariant string
	manifests      map[string]*theme.Manifest
}

// NewManifestSelector indexes manifests by name.
func NewManifestSelector(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) *ManifestSelector {
	s := &ManifestSelector{
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
	}
	for _, manifest := range manifests {
		if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
			continue
		}
		s.manifests[strings.TrimSpace(manifest.Name)] = manifest
	}
	return s
}

// Select implements ThemeSelector. Unknown variants are rejected so typos do
// not silently render the base theme.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
		if strings.TrimSpace(variant) == "" {
			variant = s.defaultVariant
		}
	}
	if name == "" {
		return nil, nil
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("theme %q is not registered", name)
	}
	variant = strings.TrimSpace(variant)
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
