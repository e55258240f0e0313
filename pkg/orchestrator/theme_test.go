package orchestrator

import (
	"context"
	"errors"
	"testing"

	theme "github.com/goliatone/go-theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
)

// spyRenderer records the options of its last Render call.
type spyRenderer struct{ last render.RenderOptions }

func (*spyRenderer) Name() string        { return "spy" }
func (*spyRenderer) ContentType() string { return "text/plain" }
func (s *spyRenderer) Render(_ context.Context, form model.Form, opts render.RenderOptions) ([]byte, error) {
	s.last = opts
	return []byte(form.Title), nil
}

type fakeSelector struct {
	selection *theme.Selection
	err       error
	asked     [][2]string
}

func (f *fakeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	f.asked = append(f.asked, [2]string{name, variant})
	return f.selection, f.err
}

func generateWithSpy(t *testing.T, req Request, opts ...Option) *spyRenderer {
	t.Helper()
	spy := &spyRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(spy)

	orch := New(append([]Option{WithRegistry(registry)}, opts...)...)
	if len(req.Forms) == 0 {
		req.Forms = []model.Form{{ID: 1, Title: "Contact"}}
	}
	_, err := orch.Generate(context.Background(), req)
	require.NoError(t, err)
	return spy
}

func TestTheme_SelectorDrivesRendererConfig(t *testing.T) {
	selector := &fakeSelector{selection: &theme.Selection{
		Theme:    "harbor",
		Variant:  "night",
		Manifest: &theme.Manifest{Name: "harbor", Tokens: map[string]string{"accent": "#0a7"}},
	}}

	spy := generateWithSpy(t, Request{ThemeName: "harbor", ThemeVariant: "night"}, WithThemeSelector(selector))

	assert.Equal(t, [][2]string{{"harbor", "night"}}, selector.asked)
	cfg := spy.last.Theme
	require.NotNil(t, cfg)
	assert.Equal(t, "harbor", cfg.Theme)
	assert.Equal(t, "night", cfg.Variant)
	assert.Equal(t, "templates/components/input.tmpl", cfg.Partials["forms.input"])
	assert.Equal(t, "#0a7", cfg.Tokens["accent"])
	assert.Equal(t, "#0a7", cfg.CSSVars["--accent"])
}

func TestTheme_ManifestVariantOverridesBase(t *testing.T) {
	harbor := &theme.Manifest{
		Name:      "harbor",
		Tokens:    map[string]string{"accent": "#0a7", "radius": "4px"},
		Templates: map[string]string{"forms.input": "harbor/input.tmpl"},
		Assets: theme.Assets{
			Prefix: "/static/harbor/",
			Files: map[string]string{
				"vanilla.stylesheet": "harbor.css",
				"font":               "https://fonts.example.com/inter.css",
			},
		},
		Variants: map[string]theme.Variant{
			"night": {
				Tokens:    map[string]string{"accent": "#fb0"},
				Templates: map[string]string{"forms.radio": "harbor/night/radio.tmpl"},
				Assets:    theme.Assets{Files: map[string]string{"vanilla.stylesheet": "harbor-night.css"}},
			},
		},
	}

	cfg := generateWithSpy(t, Request{}, WithThemeManifests("harbor", "night", harbor)).last.Theme
	require.NotNil(t, cfg)

	assert.Equal(t, "harbor/input.tmpl", cfg.Partials["forms.input"])
	assert.Equal(t, "harbor/night/radio.tmpl", cfg.Partials["forms.radio"])
	assert.Equal(t, "templates/components/select.tmpl", cfg.Partials["forms.select"])
	assert.Equal(t, map[string]string{"accent": "#fb0", "radius": "4px"}, cfg.Tokens)
	assert.Equal(t, "#fb0", cfg.CSSVars["--accent"])

	assets := map[string]string{
		"vanilla.stylesheet": "/static/harbor/harbor-night.css",
		"font":               "https://fonts.example.com/inter.css",
		"unknown":            "",
	}
	for key, want := range assets {
		assert.Equal(t, want, cfg.AssetURL(key), key)
	}
}

func TestTheme_CustomFallbacks(t *testing.T) {
	cfg := generateWithSpy(t, Request{},
		WithThemeManifests("plain", "", &theme.Manifest{Name: "plain"}),
		WithThemeFallbacks(map[string]string{"forms.form": "custom/form.tmpl"}),
	).last.Theme
	require.NotNil(t, cfg)
	assert.Equal(t, map[string]string{"forms.form": "custom/form.tmpl"}, cfg.Partials)
}

func TestTheme_RequestThemeSkipsSelector(t *testing.T) {
	selector := &fakeSelector{selection: &theme.Selection{Theme: "harbor"}}
	inline := &theme.RendererConfig{Theme: "inline"}

	spy := generateWithSpy(t, Request{RenderOptions: render.RenderOptions{Theme: inline}}, WithThemeSelector(selector))

	assert.Empty(t, selector.asked)
	assert.Same(t, inline, spy.last.Theme)
}

func TestTheme_SelectionFailures(t *testing.T) {
	orch := New(WithThemeSelector(&fakeSelector{err: errors.New("theme store offline")}))
	_, err := orch.Generate(context.Background(), Request{Forms: []model.Form{{ID: 1}}, ThemeName: "harbor"})
	require.ErrorContains(t, err, "theme store offline")

	selector := NewManifestSelector("", "", &theme.Manifest{Name: "harbor"})
	sel, err := selector.Select("", "")
	require.NoError(t, err)
	assert.Nil(t, sel)

	_, err = selector.Select("lighthouse", "")
	assert.ErrorContains(t, err, "not registered")
	_, err = selector.Select("harbor", "dusk")
	assert.ErrorContains(t, err, "no variant")
}
