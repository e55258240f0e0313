package components

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	rendertemplate "github.com/goliatone/go-gravityforms/pkg/render/template"
)

// ErrUnnamedComponent rejects registrations with a blank name.
var ErrUnnamedComponent = errors.New("components: component name is required")

// Renderer writes the control markup for a field into buf. The surrounding
// wrapper, label, description and error are rendered by the caller.
type Renderer func(buf *bytes.Buffer, field Field, data ComponentData) error

// ComponentData is shared by every component of one form render.
type ComponentData struct {
	Template rendertemplate.TemplateRenderer
	// ThemePartials maps partial keys ("forms.input") to template names that
	// replace the built-in templates.
	ThemePartials    map[string]string
	RecaptchaSiteKey string
	Config           map[string]any
}

// Script is a JavaScript dependency emitted once per form, after the form
// element. Scripts with the same Src, or the same Inline body, are emitted
// once.
type Script struct {
	Src    string
	Inline string
	Async  bool
	Defer  bool
}

func (s Script) identity() string {
	if s.Src != "" {
		return "src:" + s.Src
	}
	return "inline:" + s.Inline
}

// Descriptor is a widget implementation plus the assets a page needs once it
// contains the widget.
type Descriptor struct {
	Name        string
	Renderer    Renderer
	Stylesheets []string
	Scripts     []Script
}

func (d Descriptor) clone() Descriptor {
	d.Stylesheets = slices.Clone(d.Stylesheets)
	d.Scripts = slices.Clone(d.Scripts)
	return d
}

// Registry maps widget names (as resolved by the widgets package) to
// descriptors. Names are case-insensitive.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Descriptor
}

// New creates an empty registry. Most callers want NewDefaultRegistry.
func New() *Registry {
	return &Registry{entries: map[string]Descriptor{}}
}

// Clone returns an independent copy so callers can override widgets without
// touching a shared registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := New()
	for name, d := range r.entries {
		out.entries[name] = d.clone()
	}
	return out
}

// Register stores d under name, replacing any previous widget.
func (r *Registry) Register(name string, d Descriptor) error {
	key := componentKey(name)
	if key == "" {
		return ErrUnnamedComponent
	}
	if d.Renderer == nil {
		return fmt.Errorf("components: %q has no renderer", key)
	}
	d.Name = key

	r.mu.Lock()
	r.entries[key] = d.clone()
	r.mu.Unlock()
	return nil
}

// MustRegister is Register for static wiring; it panics on error.
func (r *Registry) MustRegister(name string, d Descriptor) {
	if err := r.Register(name, d); err != nil {
		panic(err)
	}
}

// Descriptor returns a copy of the widget registered under name.
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	d, ok := r.entries[componentKey(name)]
	r.mu.RUnlock()
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// Names lists registered widgets in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// Assets collects the stylesheets and scripts of the widgets used by a form.
// Duplicates collapse onto their first occurrence; unknown names are skipped.
func (r *Registry) Assets(names []string) ([]string, []Script) {
	if len(names) == 0 {
		return nil, nil
	}
	var set assetSet

	r.mu.RLock()
	for _, name := range names {
		if d, ok := r.entries[componentKey(name)]; ok {
			set.add(d)
		}
	}
	r.mu.RUnlock()

	return set.styles, set.scripts
}

type assetSet struct {
	seen    map[string]bool
	styles  []string
	scripts []Script
}

func (s *assetSet) add(d Descriptor) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	for _, href := range d.Stylesheets {
		if href == "" || s.seen["css:"+href] {
			continue
		}
		s.seen["css:"+href] = true
		s.styles = append(s.styles, href)
	}
	for _, script := range d.Scripts {
		id := script.identity()
		if s.seen[id] {
			continue
		}
		s.seen[id] = true
		s.scripts = append(s.scripts, script)
	}
}

func componentKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
