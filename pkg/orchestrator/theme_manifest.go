package orchestrator

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

type manifestFile struct {
	Name      string                 `yaml:"name"`
	Version   string                 `yaml:"version"`
	Tokens    map[string]string      `yaml:"tokens"`
	Templates map[string]string      `yaml:"templates"`
	Assets    assetsFile             `yaml:"assets"`
	Variants  map[string]variantFile `yaml:"variants"`
}

type assetsFile struct {
	Prefix string            `yaml:"prefix"`
	Files  map[string]string `yaml:"files"`
}

type variantFile struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
	Assets    assetsFile        `yaml:"assets"`
}

// ParseThemeManifest decodes a YAML theme manifest.
func ParseThemeManifest(data []byte) (*theme.Manifest, error) {
	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("orchestrator: parse theme manifest: %w", err)
	}
	if strings.TrimSpace(file.Name) == "" {
		return nil, errors.New("orchestrator: theme manifest has no name")
	}

	manifest := &theme.Manifest{
		Name:      strings.TrimSpace(file.Name),
		Version:   file.Version,
		Tokens:    copyStringMap(file.Tokens),
		Templates: copyStringMap(file.Templates),
		Assets:    theme.Assets{Prefix: file.Assets.Prefix, Files: copyStringMap(file.Assets.Files)},
	}
	if len(file.Variants) > 0 {
		manifest.Variants = make(map[string]theme.Variant, len(file.Variants))
		for name, v := range file.Variants {
			manifest.Variants[name] = theme.Variant{
				Tokens:    copyStringMap(v.Tokens),
				Templates: copyStringMap(v.Templates),
				Assets:    theme.Assets{Prefix: v.Assets.Prefix, Files: copyStringMap(v.Assets.Files)},
			}
		}
	}
	return manifest, nil
}

// LoadThemeManifest reads and decodes a manifest from fsys.
func LoadThemeManifest(fsys fs.FS, path string) (*theme.Manifest, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read theme manifest: %w", err)
	}
	return ParseThemeManifest(data)
}
