package vanilla

import (
	"embed"
	"io/fs"
)

const (
	// StylesheetName is the bundled stylesheet under AssetsFS.
	StylesheetName = "gravityforms.css"
	// StylesheetAssetKey is looked up through RendererConfig.AssetURL so a
	// theme can point the form at its own stylesheet.
	StylesheetAssetKey = "vanilla.stylesheet"
)

var (
	//go:embed templates/*.tmpl templates/components/*.tmpl
	templateFiles embed.FS

	//go:embed assets/*
	assetFiles embed.FS

	assets = mustSub(assetFiles, "assets")
)

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// TemplatesFS returns the bundled pongo2 templates, rooted so that names
// read "templates/form.tmpl".
func TemplatesFS() fs.FS { return templateFiles }

// AssetsFS returns the static files the server mounts under /assets.
func AssetsFS() fs.FS { return assets }
