// Package session drives one form through submission: local checks, the
// network round trip and the switch to the confirmation message.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/submission"
	"github.com/goliatone/go-gravityforms/pkg/validation"
)

// State is the session lifecycle position.
type State int

const (
	// StateForm shows the form, possibly with errors.
	StateForm State = iota
	// StateConfirmed shows the confirmation message. It is terminal.
	StateConfirmed
)

func (s State) String() string {
	if s == StateConfirmed {
		return "confirmed"
	}
	return "form"
}

var (
	// ErrInFlight rejects a submission while another one is pending.
	ErrInFlight = errors.New("session: submission already in flight")
	// ErrAlreadyConfirmed rejects submissions after a successful one.
	ErrAlreadyConfirmed = errors.New("session: form already confirmed")
	// ErrNoSubmitter is returned by New without a submitter.
	ErrNoSubmitter = errors.New("session: submitter is required")
)

// Outcome summarises what a Submit call did.
type Outcome int

const (
	// OutcomeRejected means local checks failed and nothing was sent.
	OutcomeRejected Outcome = iota
	// OutcomeInvalid means the endpoint reported validation messages.
	OutcomeInvalid
	// OutcomeFailed means the endpoint could not be reached or answered
	// unexpectedly.
	OutcomeFailed
	// OutcomeConfirmed means the submission was accepted.
	OutcomeConfirmed
)

// Option configures a Session.
type Option func(*Session)

// WithVerifyKey sets the key forwarded with every submission.
func WithVerifyKey(key string) Option {
	return func(s *Session) {
		s.verifyKey = key
	}
}

// WithRenderOptions sets the base options (theme, locale, hidden fields,
// presets) that RenderOptions builds on.
func WithRenderOptions(opts render.RenderOptions) Option {
	return func(s *Session) {
		s.base = opts
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Session holds the mutable state of one rendered form. It is safe for
// concurrent use; only one submission runs at a time.
type Session struct {
	form      model.Form
	submitter submission.Submitter
	verifyKey string
	base      render.RenderOptions
	logger    *zap.Logger

	mu           sync.Mutex
	state        State
	inFlight     bool
	values       model.Values
	fieldErrors  map[string][]string
	formErrors   []string
	confirmation string
}

// New creates a session in StateForm.
func New(form model.Form, submitter submission.Submitter, options ...Option) (*Session, error) {
	if submitter == nil {
		return nil, ErrNoSubmitter
	}
	s := &Session{
		form:      form,
		submitter: submitter,
		logger:    zap.NewNop(),
		state:     StateForm,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Form returns the descriptor the session renders.
func (s *Session) Form() model.Form {
	return s.form
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit runs local checks and, when they pass, sends values to the endpoint.
// ErrInFlight and ErrAlreadyConfirmed are returned without touching state.
func (s *Session) Submit(ctx context.Context, values model.Values) (Outcome, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return OutcomeRejected, ErrInFlight
	}
	if s.state == StateConfirmed {
		s.mu.Unlock()
		return OutcomeRejected, ErrAlreadyConfirmed
	}

	catalog := s.base.Catalog()
	s.formErrors = nil
	s.values = values.Clone()

	if !validation.HasEntry(s.form, values) {
		s.fieldErrors = nil
		s.formErrors = []string{catalog.Message(render.MessageLeastOneField)}
		s.mu.Unlock()
		return OutcomeRejected, nil
	}
	if errs := validation.ValidateForm(s.form, values, catalog); !errs.Empty() {
		s.fieldErrors = errs
		s.mu.Unlock()
		return OutcomeRejected, nil
	}

	s.fieldErrors = nil
	s.inFlight = true
	s.mu.Unlock()

	result, err := s.submitter.Submit(ctx, submission.Request{
		BaseURL:   s.form.APIURL,
		Values:    values,
		VerifyKey: s.verifyKey,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if err != nil {
		s.formErrors = []string{catalog.Message(render.MessageUnknownError)}
		return OutcomeFailed, fmt.Errorf("session: submit form %d: %w", s.form.ID, err)
	}

	logger := s.logger.With(zap.Int("form", s.form.ID), zap.String("request_id", result.RequestID))
	switch result.Kind {
	case submission.KindSuccess:
		s.state = StateConfirmed
		s.confirmation = result.ConfirmationMessage
		if strings.TrimSpace(s.confirmation) == "" {
			s.confirmation = catalog.Message(render.MessageConfirmation)
		}
		logger.Info("form confirmed")
		return OutcomeConfirmed, nil
	case submission.KindValidation:
		mapping := render.MapValidationMessages(s.form, result.ValidationMessages)
		if mapping.Empty() {
			s.formErrors = []string{catalog.Message(render.MessageUnknownError)}
			logger.Warn("validation answer without messages")
			return OutcomeFailed, nil
		}
		s.fieldErrors = mapping.Fields
		s.formErrors = mapping.Form
		logger.Info("endpoint rejected submission", zap.Int("fields", len(mapping.Fields)), zap.Int("general", len(mapping.Form)))
		return OutcomeInvalid, nil
	default:
		s.formErrors = []string{catalog.Message(render.MessageUnknownError)}
		logger.Warn("submission failed", zap.Error(result.Err), zap.Int("status", result.StatusCode))
		return OutcomeFailed, nil
	}
}

// RenderOptions reflects the session state onto the base render options.
func (s *Session) RenderOptions() render.RenderOptions {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.base
	opts.Loading = s.inFlight
	if s.state == StateConfirmed {
		opts.Confirmation = s.confirmation
		return opts
	}
	if len(s.values) > 0 {
		opts.Values = s.values.Clone()
	}
	opts.Errors = render.MergeFieldErrors(s.base.Errors, s.fieldErrors)
	opts.FormErrors = append(slices.Clone(s.base.FormErrors), s.formErrors...)
	return opts
}

// Render renders the current state with renderer.
func (s *Session) Render(ctx context.Context, renderer render.Renderer) ([]byte, error) {
	if renderer == nil {
		return nil, errors.New("session: renderer is nil")
	}
	return renderer.Render(ctx, s.form, s.RenderOptions())
}
