package render

import (
	"errors"
	"fmt"
	"strings"
)

// Message keys understood by Catalog.
const (
	MessageRequired      = "errors.required"
	MessageMaxLength     = "errors.maxLength"
	MessagePattern       = "errors.pattern"
	MessageEmail         = "errors.email"
	MessageNumber        = "errors.number"
	MessageLeastOneField = "errors.leastOneField"
	MessageUnknownError  = "errors.unknownError"
	MessageSubmit        = "form.submit"
	MessageLoading       = "form.loading"
	MessageMaxLengthHint = "form.maxLengthHint"
	MessageConfirmation  = "form.confirmation"
)

// ErrMissingTranslator is reported to MissingTranslationHandler when no
// translator is configured.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves localized strings.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides the string returned when a key cannot be
// translated. params carries the formatting arguments.
type MissingTranslationHandler func(locale, key string, params []any, err error) string

var defaultMessages = map[string]string{
	MessageRequired:      "This field is required.",
	MessageMaxLength:     "Maximum %d characters allowed.",
	MessagePattern:       "The value is not in the correct format.",
	MessageEmail:         "Please enter a valid email address.",
	MessageNumber:        "Please enter a valid number.",
	MessageLeastOneField: "Please fill in at least one field.",
	MessageUnknownError:  "Something went wrong while submitting the form. Please try again.",
	MessageSubmit:        "Submit",
	MessageLoading:       "Loading",
	MessageMaxLengthHint: "(maximum %d characters)",
	MessageConfirmation:  "Thanks for contacting us! We will get in touch with you shortly.",
}

// DefaultMessage returns the built-in English template for key.
func DefaultMessage(key string) string {
	return defaultMessages[key]
}

// Catalog formats user-facing messages, consulting the translator first and
// falling back to the built-in English strings.
type Catalog struct {
	translator Translator
	locale     string
	onMissing  MissingTranslationHandler
}

// NewCatalog binds a translator and locale. All arguments are optional.
func NewCatalog(t Translator, locale string, onMissing MissingTranslationHandler) Catalog {
	return Catalog{
		translator: t,
		locale:     strings.TrimSpace(locale),
		onMissing:  onMissing,
	}
}

// Message returns the formatted message for key.
func (c Catalog) Message(key string, args ...any) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	if c.translator != nil {
		msg, err := c.translator.Translate(c.locale, key, args...)
		if err == nil && strings.TrimSpace(msg) != "" {
			return msg
		}
		if c.onMissing != nil {
			return c.onMissing(c.locale, key, args, err)
		}
	} else if c.onMissing != nil && defaultMessages[key] == "" {
		return c.onMissing(c.locale, key, args, ErrMissingTranslator)
	}

	return missingTranslationDefault(c.locale, key, args, nil)
}

func missingTranslationDefault(_ string, key string, params []any, _ error) string {
	template, ok := defaultMessages[key]
	if !ok {
		return key
	}
	if len(params) == 0 || !strings.Contains(template, "%") {
		return template
	}
	return fmt.Sprintf(template, params...)
}
