// Package gotemplate adapts pongo2 to the template.TemplateRenderer contract.
package gotemplate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-gravityforms/pkg/render/template"
)

// DefaultExtension is appended to template names without one.
const DefaultExtension = ".tmpl"

var errNilEngine = errors.New("gotemplate: engine is nil")

type settings struct {
	dir     string
	files   fs.FS
	ext     string
	funcs   map[string]any
	globals map[string]any
}

type Option func(*settings)

// WithBaseDir loads templates from dir. Files there shadow the WithFS ones,
// which is how a theme overrides single partials.
func WithBaseDir(dir string) Option {
	return func(s *settings) { s.dir = strings.TrimSpace(dir) }
}

func WithFS(files fs.FS) Option {
	return func(s *settings) { s.files = files }
}

// WithExtension overrides DefaultExtension. The leading dot is optional.
func WithExtension(ext string) Option {
	return func(s *settings) {
		if ext = strings.TrimSpace(ext); ext != "" {
			s.ext = "." + strings.TrimPrefix(ext, ".")
		}
	}
}

// WithTemplateFunc adds pongo2.FilterFunction values as filters and any
// other func as a global callable.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(s *settings) { s.funcs = mergeKeys(s.funcs, funcs) }
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(s *settings) { s.globals = mergeKeys(s.globals, data) }
}

func mergeKeys(dst, src map[string]any) map[string]any {
	for key, value := range src {
		if dst == nil {
			dst = make(map[string]any, len(src))
		}
		dst[strings.TrimSpace(key)] = value
	}
	return dst
}

// Engine is a pongo2 template set plus a cache of compiled templates keyed
// by path.
type Engine struct {
	set   *pongo2.TemplateSet
	ext   string
	cache sync.Map // path -> *pongo2.Template

	// guards set.Globals, which pongo2 reads during execution
	globalsMu sync.RWMutex
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine. WithBaseDir or WithFS is required.
func New(options ...Option) (*Engine, error) {
	s := settings{ext: DefaultExtension}
	for _, opt := range options {
		if opt != nil {
			opt(&s)
		}
	}
	loaders, err := s.loaders()
	if err != nil {
		return nil, err
	}

	e := &Engine{set: pongo2.NewSet("gravityforms", loaders...), ext: s.ext}
	e.set.Globals = pongo2.Context{}
	builtinFilters.Do(registerBuiltinFilters)

	if err := e.GlobalContext(s.globals); err != nil {
		return nil, fmt.Errorf("gotemplate: global data: %w", err)
	}
	for name, fn := range s.funcs {
		if err := e.addFunc(name, fn); err != nil {
			return nil, fmt.Errorf("gotemplate: template func %q: %w", name, err)
		}
	}
	return e, nil
}

func (s settings) loaders() ([]pongo2.TemplateLoader, error) {
	var loaders []pongo2.TemplateLoader
	if s.dir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(s.dir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: template dir %q: %w", s.dir, err)
		}
		loaders = append(loaders, local)
	}
	if s.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(s.files))
	}
	if len(loaders) == 0 {
		return nil, errors.New("gotemplate: a template dir or fs.FS is required")
	}
	return loaders, nil
}

// Render treats name as inline template source when it holds pongo2 tags and
// as a template path otherwise.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if strings.Contains(name, "{{") || strings.Contains(name, "{%") {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errNilEngine
	}
	tmpl, err := e.compiled(e.path(name))
	if err != nil {
		return "", err
	}
	return e.run(tmpl, data, out)
}

func (e *Engine) RenderString(content string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errNilEngine
	}
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("gotemplate: parse inline template: %w", err)
	}
	return e.run(tmpl, data, out)
}

// Exists reports whether name resolves to a loadable template.
func (e *Engine) Exists(name string) bool {
	_, err := e.compiled(e.path(name))
	return err == nil
}

// RegisterFilter adds a filter. pongo2 keeps filters in a process-wide
// table, so each name can be registered once.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("gotemplate: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already exists", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// GlobalContext merges data into the set globals.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.set == nil {
		return errNilEngine
	}
	globals, err := toContext(data)
	if err != nil {
		return err
	}
	e.globalsMu.Lock()
	e.set.Globals.Update(globals)
	e.globalsMu.Unlock()
	return nil
}

func (e *Engine) path(name string) string {
	if strings.HasSuffix(name, e.ext) {
		return name
	}
	return name + e.ext
}

func (e *Engine) compiled(path string) (*pongo2.Template, error) {
	if cached, ok := e.cache.Load(path); ok {
		return cached.(*pongo2.Template), nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %q: %w", path, err)
	}
	actual, _ := e.cache.LoadOrStore(path, tmpl)
	return actual.(*pongo2.Template), nil
}

func (e *Engine) run(tmpl *pongo2.Template, data any, out []io.Writer) (string, error) {
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: template data: %w", err)
	}

	var buf bytes.Buffer
	e.globalsMu.RLock()
	err = tmpl.ExecuteWriter(ctx, &buf)
	e.globalsMu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute: %w", err)
	}

	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func (e *Engine) addFunc(name string, fn any) error {
	if name == "" || fn == nil {
		return nil
	}
	if filter, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(name) {
			return nil
		}
		return pongo2.RegisterFilter(name, filter)
	}
	if !isFunc(fn) {
		return fmt.Errorf("unsupported type %T", fn)
	}
	e.globalsMu.Lock()
	e.set.Globals[name] = fn
	e.globalsMu.Unlock()
	return nil
}
