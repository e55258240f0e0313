package components

import "github.com/goliatone/go-gravityforms/pkg/widgets"

// Canonical component names; they match the widget names resolved by the
// widgets registry.
const (
	NameInput       = widgets.WidgetInput
	NameTextarea    = widgets.WidgetTextarea
	NameSelect      = widgets.WidgetSelect
	NameMultiselect = widgets.WidgetMultiselect
	NameCheckbox    = widgets.WidgetCheckbox
	NameRadio       = widgets.WidgetRadio
	NameHTML        = widgets.WidgetHTML
	NameCaptcha     = widgets.WidgetCaptcha
)

// RecaptchaScript is the script the captcha component depends on.
const RecaptchaScript = "https://www.google.com/recaptcha/api.js"
