// Package gravityforms renders Gravity Forms descriptors and submits their
// values. The subpackages hold the pieces; this package re-exports the
// common entry points.
package gravityforms

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-gravityforms/internal/loader"
	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/orchestrator"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/renderers/vanilla"
)

// RenderOptions carries per-request values, errors and theme settings.
type RenderOptions = render.RenderOptions

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// NewLoader constructs the built-in descriptor loader while keeping the
// concrete type hidden from consumers.
func NewLoader(options ...descriptor.LoaderOption) descriptor.Loader {
	return loader.New(descriptor.NewLoaderOptions(options...))
}

// GenerateHTML loads source and renders form formID with the HTML renderer.
// A zero formID selects the only form of a single-form document.
func GenerateHTML(ctx context.Context, source descriptor.Source, formID int, opts RenderOptions, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source:        source,
		FormID:        formID,
		RenderOptions: opts,
	})
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsFS exposes the default stylesheet for serving over HTTP.
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
