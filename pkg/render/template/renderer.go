// Package template is the seam between the HTML renderer and a template
// engine; gotemplate holds the pongo2 implementation.
package template

import "io"

// TemplateRenderer executes templates by name or from inline source. Every
// render method returns the output and also copies it to each non-nil out.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(content string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
