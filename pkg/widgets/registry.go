package widgets

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-gravityforms/pkg/model"
)

// Widget names. The vanilla renderer registers a component under each.
const (
	WidgetInput       = "input"
	WidgetTextarea    = "textarea"
	WidgetSelect      = "select"
	WidgetMultiselect = "multiselect"
	WidgetCheckbox    = "checkbox"
	WidgetRadio       = "radio"
	WidgetHTML        = "html"
	WidgetCaptcha     = "captcha"
)

// MetadataKey is the field metadata entry that pins a widget by name.
const MetadataKey = "widget"

// BuiltinPriority is the rank of the type tag table. Custom matchers above
// it take precedence.
const BuiltinPriority = 0

var builtinWidgets = map[model.FieldType]string{
	model.FieldTypeText:        WidgetInput,
	model.FieldTypeEmail:       WidgetInput,
	model.FieldTypePhone:       WidgetInput,
	model.FieldTypeNumber:      WidgetInput,
	model.FieldTypeHidden:      WidgetInput,
	model.FieldTypeTextarea:    WidgetTextarea,
	model.FieldTypeSelect:      WidgetSelect,
	model.FieldTypeMultiselect: WidgetMultiselect,
	model.FieldTypeCheckbox:    WidgetCheckbox,
	model.FieldTypeRadio:       WidgetRadio,
	model.FieldTypeHTML:        WidgetHTML,
	model.FieldTypeCaptcha:     WidgetCaptcha,
}

// Matcher reports whether a widget handles field.
type Matcher func(field model.Field) bool

type rule struct {
	priority int
	resolve  func(model.Field) (string, bool)
}

// Registry picks the widget for a field: the metadata pin first, then
// matchers by descending priority, registration order breaking ties.
// Fields nothing matches are unsupported and renderers leave them out.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry returns a registry holding only the built-in type table.
func NewRegistry() *Registry {
	return &Registry{rules: []rule{{priority: BuiltinPriority, resolve: builtinWidget}}}
}

// Register adds a named matcher at priority. Blank names and nil matchers
// are ignored.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	name = strings.TrimSpace(name)
	if r == nil || matcher == nil || name == "" {
		return
	}
	entry := rule{priority: priority, resolve: func(field model.Field) (string, bool) {
		return name, matcher(field)
	}}

	r.mu.Lock()
	defer r.mu.Unlock()
	at := len(r.rules)
	for i, existing := range r.rules {
		if priority > existing.priority {
			at = i
			break
		}
	}
	r.rules = slices.Insert(r.rules, at, entry)
}

// Resolve returns the widget for field, or false when the field is
// unsupported.
func (r *Registry) Resolve(field model.Field) (string, bool) {
	return r.ResolveAvailable(field, nil)
}

// ResolveAvailable is Resolve restricted to widgets available accepts. A
// pin or matcher naming a widget the caller cannot render is passed over,
// so the field falls back to the next candidate, usually the built-in one.
// A nil available accepts every name.
func (r *Registry) ResolveAvailable(field model.Field, available func(string) bool) (string, bool) {
	usable := func(name string) bool { return available == nil || available(name) }

	if field.Metadata != nil {
		if pinned := strings.TrimSpace(field.Metadata[MetadataKey]); pinned != "" && usable(pinned) {
			return pinned, true
		}
	}
	if r == nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.rules {
		if name, ok := entry.resolve(field); ok && usable(name) {
			return name, true
		}
	}
	return "", false
}

// Supported reports whether tag has a built-in widget.
func Supported(tag model.FieldType) bool {
	_, ok := builtinWidgets[normalizeTag(tag)]
	return ok
}

// SupportedTags lists the built-in type tags, sorted.
func SupportedTags() []model.FieldType {
	return slices.Sorted(maps.Keys(builtinWidgets))
}

// Decorate implements model.Decorator by writing the resolved widget into
// the metadata of every field that has one.
func (r *Registry) Decorate(form *model.Form) error {
	if r == nil || form == nil {
		return nil
	}
	fields := slices.Clone(form.Fields)
	for i, field := range fields {
		widget, ok := r.Resolve(field)
		if !ok {
			continue
		}
		metadata := maps.Clone(field.Metadata)
		if metadata == nil {
			metadata = map[string]string{}
		}
		if metadata[MetadataKey] == "" {
			metadata[MetadataKey] = widget
		}
		fields[i].Metadata = metadata
	}
	form.Fields = fields
	return nil
}

func builtinWidget(field model.Field) (string, bool) {
	name, ok := builtinWidgets[normalizeTag(field.Type)]
	return name, ok
}

func normalizeTag(tag model.FieldType) model.FieldType {
	return model.FieldType(strings.ToLower(strings.TrimSpace(string(tag))))
}
