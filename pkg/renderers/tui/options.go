package tui

import (
	"errors"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/widgets"
	"go.uber.org/zap"
)

var (
	// ErrAborted is returned when the user interrupts a prompt.
	ErrAborted = errors.New("tui: aborted")
	// ErrUnknownFormat is returned by Render for an OutputFormat it cannot write.
	ErrUnknownFormat = errors.New("tui: unknown output format")
)

// OutputFormat selects how Render writes the collected values.
type OutputFormat string

const (
	OutputFormatJSON           OutputFormat = "json"   // {"input_1": "..."}
	OutputFormatFormURLEncoded OutputFormat = "form"   // input_1=...&input_2.1=...
	OutputFormatPrettyText     OutputFormat = "pretty" // one "Label: value" line per field
)

// Theme holds the prefixes put in front of info and error lines.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// SubmitTransformer rewrites collected values before they are written.
type SubmitTransformer func(model.Values) (model.Values, error)

type Option func(*Renderer)

func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithWidgetRegistry decides which field types are prompted and how.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(r *Renderer) {
		if registry != nil {
			r.widgets = registry
		}
	}
}

func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(r *Renderer) { r.submitTransformer = fn }
}

func WithTheme(theme Theme) Option {
	return func(r *Renderer) { r.theme = theme }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
