package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-gravityforms/pkg/model"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the form descriptor.
type RenderOptions struct {
	// Values carries previously submitted input keyed by input name
	// ("input_3"). It wins over presets so a re-rendered form keeps what the
	// user typed.
	Values model.Values
	// Presets pre-populate controls and override descriptor defaults.
	Presets model.Values
	// Errors surfaces field-level validation feedback keyed by input name.
	Errors map[string][]string
	// FormErrors carries general, non field specific messages such as the
	// "fill at least one field" notice.
	FormErrors []string
	// Loading marks a submission in flight; renderers add loading chrome.
	Loading bool
	// Confirmation, when non-empty, replaces the form with the confirmation
	// message returned by the endpoint.
	Confirmation string
	// Hidden lists extra hidden inputs (CSRF tokens, request ids).
	Hidden map[string]string
	// Action and Method override the form element attributes.
	Action string
	Method string
	// RecaptchaSiteKey enables the captcha widget mount point.
	RecaptchaSiteKey string
	// Theme carries resolved theme partials, tokens and asset resolvers.
	Theme *theme.RendererConfig
	// Locale and Translator drive Catalog lookups.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}

// Catalog returns the message catalog bound to the options' locale settings.
func (o RenderOptions) Catalog() Catalog {
	return NewCatalog(o.Translator, o.Locale, o.OnMissing)
}

// FieldErrors returns the messages recorded for an input name.
func (o RenderOptions) FieldErrors(name string) []string {
	if len(o.Errors) == 0 {
		return nil
	}
	return o.Errors[name]
}
