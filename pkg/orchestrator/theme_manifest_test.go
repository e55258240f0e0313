package orchestrator

import (
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestLoadThemeManifest(t *testing.T) {
	fsys := fstest.MapFS{
		"themes/acme.yaml": {Data: []byte(`
name: acme
version: 1.2.0
tokens:
  brand: "#123456"
templates:
  forms.input: themes/acme/input.tmpl
assets:
  prefix: /static/acme
  files:
    vanilla.stylesheet: acme.css
variants:
  dark:
    tokens:
      brand: "#000000"
`)},
	}

	manifest, err := LoadThemeManifest(fsys, "themes/acme.yaml")
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}

	type summary struct {
		Name         string
		Version      string
		Tokens       map[string]string
		Templates    map[string]string
		AssetPrefix  string
		AssetFiles   map[string]string
		DarkTokens   map[string]string
		VariantCount int
	}
	got := summary{
		Name:         manifest.Name,
		Version:      manifest.Version,
		Tokens:       manifest.Tokens,
		Templates:    manifest.Templates,
		AssetPrefix:  manifest.Assets.Prefix,
		AssetFiles:   manifest.Assets.Files,
		DarkTokens:   manifest.Variants["dark"].Tokens,
		VariantCount: len(manifest.Variants),
	}
	want := summary{
		Name:         "acme",
		Version:      "1.2.0",
		Tokens:       map[string]string{"brand": "#123456"},
		Templates:    map[string]string{"forms.input": "themes/acme/input.tmpl"},
		AssetPrefix:  "/static/acme",
		AssetFiles:   map[string]string{"vanilla.stylesheet": "acme.css"},
		DarkTokens:   map[string]string{"brand": "#000000"},
		VariantCount: 1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}

	selection, err := NewManifestSelector("acme", "dark", manifest).Select("", "")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	cfg := RendererConfig(selection, nil)
	if got := cfg.Tokens["brand"]; got != "#000000" {
		t.Fatalf("expected variant token, got %q", got)
	}
}

func TestParseThemeManifest_Errors(t *testing.T) {
	if _, err := ParseThemeManifest([]byte("version: 1\n")); err == nil {
		t.Fatal("expected error for manifest without name")
	}
	if _, err := ParseThemeManifest([]byte("name: [")); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := LoadThemeManifest(fstest.MapFS{}, "missing.yaml"); err == nil {
		t.Fatal("expected read error")
	}
}
