package render

import (
	"context"

	"github.com/goliatone/go-gravityforms/pkg/model"
)

// Renderer converts a form descriptor into a byte representation (HTML,
// collected JSON values, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.Form, options RenderOptions) ([]byte, error)
}
