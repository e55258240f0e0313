package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	internalLoader "github.com/goliatone/go-gravityforms/internal/loader"
	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-gravityforms/pkg/session"
	"github.com/goliatone/go-gravityforms/pkg/submission"
)

const defaultRendererName = "html"

type Option func(*Orchestrator)

func WithLoader(loader descriptor.Loader) Option {
	return func(o *Orchestrator) { o.loader = loader }
}

// WithRegistry replaces the default registry, which holds only the vanilla
// HTML renderer.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) { o.registry = registry }
}

// WithDefaultRenderer names the renderer used when Request.Renderer is empty.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) { o.defaultRenderer = name }
}

// WithTransformer runs t on the selected form before any decorator.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) { o.transformer = t }
}

func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) { o.decorators = append(o.decorators, decorators...) }
}

// WithSubmitter enables Session; without it Session fails.
func WithSubmitter(submitter submission.Submitter) Option {
	return func(o *Orchestrator) { o.submitter = submitter }
}

// WithVerifyKey is the key every session sends alongside its payload.
func WithVerifyKey(key string) Option {
	return func(o *Orchestrator) { o.verifyKey = key }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator takes a form from descriptor to output: load, select by id,
// transform, decorate, then render or open a submission session.
type Orchestrator struct {
	loader          descriptor.Loader
	registry        *render.Registry
	defaultRenderer string
	transformer     Transformer
	decorators      []model.Decorator
	themeSelector   ThemeSelector
	themeFallbacks  map[string]string
	submitter       submission.Submitter
	verifyKey       string
	logger          *zap.Logger

	// set when the built-in renderer fails to build; returned by Form
	setupErr error
}

func New(options ...Option) *Orchestrator {
	o := &Orchestrator{logger: zap.NewNop()}
	for _, apply := range options {
		if apply != nil {
			apply(o)
		}
	}
	if o.loader == nil {
		o.loader = internalLoader.New(descriptor.LoaderOptions{})
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
	if o.registry == nil {
		o.registry, o.setupErr = builtinRegistry()
	}
	return o
}

func builtinRegistry() (*render.Registry, error) {
	registry := render.NewRegistry()
	html, err := vanilla.New()
	if err != nil {
		return registry, fmt.Errorf("orchestrator: default renderer: %w", err)
	}
	return registry, registry.Register(html)
}

// Request describes the inputs required to render one form.
type Request struct {
	// Source identifies the descriptor document. Optional when Forms is set.
	Source descriptor.Source

	// Forms bypasses the loader with already decoded descriptors.
	Forms []model.Form

	// FormID selects the form; zero picks the only form of a single-form
	// document.
	FormID int

	// Renderer names the renderer to use; empty falls back to the default.
	Renderer string

	// RenderOptions carries per-request values, errors and locale settings.
	RenderOptions render.RenderOptions

	// ThemeName and ThemeVariant select a theme when a selector is set.
	ThemeName    string
	ThemeVariant string
}

// Form resolves, transforms and decorates the requested form.
func (o *Orchestrator) Form(ctx context.Context, req Request) (model.Form, error) {
	if ctx == nil {
		return model.Form{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return model.Form{}, err
	}
	if err := o.setupErr; err != nil {
		return model.Form{}, err
	}

	forms, err := o.resolveForms(ctx, req)
	if err != nil {
		return model.Form{}, err
	}
	form, err := pickForm(forms, req.FormID)
	if err != nil {
		return model.Form{}, err
	}

	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &form); err != nil {
			return model.Form{}, fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&form); err != nil {
			return model.Form{}, fmt.Errorf("orchestrator: decorate form: %w", err)
		}
	}
	return form, nil
}

// Generate renders the requested form and returns the output bytes (HTML for
// the default renderer).
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	form, err := o.Form(ctx, req)
	if err != nil {
		return nil, err
	}
	renderer, err := o.Renderer(req.Renderer)
	if err != nil {
		return nil, err
	}
	opts, err := o.renderOptions(req)
	if err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, form, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Session builds a submission session for the requested form. The request's
// render options, theme included, become the session's base options.
func (o *Orchestrator) Session(ctx context.Context, req Request) (*session.Session, error) {
	if o.submitter == nil {
		return nil, errors.New("orchestrator: submitter is not configured")
	}
	form, err := o.Form(ctx, req)
	if err != nil {
		return nil, err
	}
	opts, err := o.renderOptions(req)
	if err != nil {
		return nil, err
	}
	return session.New(form, o.submitter,
		session.WithVerifyKey(o.verifyKey),
		session.WithRenderOptions(opts),
		session.WithLogger(o.logger),
	)
}

// Renderer looks up name in the registry. An empty name tries the
// configured default and then the registry's own default, so a custom
// registry without an "html" entry still works.
func (o *Orchestrator) Renderer(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}
	if name != "" {
		r, err := o.registry.Get(name)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
		return r, nil
	}
	if o.registry.Has(o.defaultRenderer) {
		return o.registry.Get(o.defaultRenderer)
	}
	r, err := o.registry.Get("")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: default renderer: %w", err)
	}
	return r, nil
}

func (o *Orchestrator) renderOptions(req Request) (render.RenderOptions, error) {
	opts := req.RenderOptions
	if opts.Theme != nil {
		return opts, nil
	}
	cfg, err := o.resolveTheme(req.ThemeName, req.ThemeVariant)
	if err != nil {
		return opts, err
	}
	opts.Theme = cfg
	return opts, nil
}

func (o *Orchestrator) resolveForms(ctx context.Context, req Request) ([]model.Form, error) {
	if len(req.Forms) > 0 {
		return req.Forms, nil
	}
	if req.Source == nil {
		return nil, errors.New("orchestrator: source or forms are required")
	}
	forms, err := descriptor.Load(ctx, o.loader, req.Source)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load descriptor: %w", err)
	}
	return forms, nil
}

func pickForm(forms []model.Form, id int) (model.Form, error) {
	if id == 0 {
		if len(forms) == 1 {
			return forms[0], nil
		}
		return model.Form{}, fmt.Errorf("orchestrator: form id is required, document holds %d forms", len(forms))
	}
	form, err := descriptor.Find(forms, id)
	if err != nil {
		return model.Form{}, fmt.Errorf("orchestrator: %w", err)
	}
	return form, nil
}
