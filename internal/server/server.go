// Package server exposes rendered Gravity Forms over HTTP and relays posted
// submissions to the configured endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/orchestrator"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-gravityforms/pkg/session"
	"github.com/goliatone/go-gravityforms/pkg/submission"
)

const requestIDKey = "requestid"

// FormSource provides the descriptors currently served.
type FormSource interface {
	Forms() []model.Form
}

// StaticForms serves a fixed slice of forms.
type StaticForms []model.Form

func (f StaticForms) Forms() []model.Form { return f }

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRateLimit enables per-IP limiting. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = NewRateLimiter(rps, burst)
	}
}

func WithRecaptchaSiteKey(key string) Option {
	return func(s *Server) {
		s.siteKey = key
	}
}

// WithTheme selects the theme passed to every render.
func WithTheme(name, variant string) Option {
	return func(s *Server) {
		s.themeName = name
		s.themeVariant = variant
	}
}

// Server is a fiber app serving GET/POST /forms/:id and /healthz.
type Server struct {
	*fiber.App

	orchestrator *orchestrator.Orchestrator
	forms        FormSource
	limiter      *RateLimiter
	siteKey      string
	themeName    string
	themeVariant string
	logger       *zap.Logger
}

// New wires routes and middleware.
func New(orch *orchestrator.Orchestrator, forms FormSource, options ...Option) (*Server, error) {
	if orch == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	if forms == nil {
		return nil, errors.New("server: form source is required")
	}

	s := &Server{
		orchestrator: orch,
		forms:        forms,
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	s.App = fiber.New(fiber.Config{
		AppName:               "gravityforms",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.Use(requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	if s.limiter != nil {
		s.Use(s.limiter.Handler())
	}

	s.Get("/healthz", s.health)
	s.Get("/assets/*", s.asset)
	s.Get("/forms/:id", s.showForm)
	s.Post("/forms/:id", s.submitForm)
	return s, nil
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Listen(addr)
	}()
	s.logger.Info("server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		return s.ShutdownWithContext(context.WithoutCancel(ctx))
	}
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"forms":  len(s.forms.Forms()),
	})
}

// asset serves the stylesheet bundled with the HTML renderer.
func (s *Server) asset(c *fiber.Ctx) error {
	name := path.Clean(c.Params("*"))
	data, err := fs.ReadFile(vanilla.AssetsFS(), name)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "asset not found")
	}
	if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	return c.Send(data)
}

func (s *Server) showForm(c *fiber.Ctx) error {
	req, err := s.formRequest(c)
	if err != nil {
		return err
	}
	req.RenderOptions.Presets = queryValues(c)

	ctx := s.requestContext(c)
	out, err := s.orchestrator.Generate(ctx, req)
	if err != nil {
		return err
	}
	return s.send(c, http.StatusOK, out)
}

func (s *Server) submitForm(c *fiber.Ctx) error {
	req, err := s.formRequest(c)
	if err != nil {
		return err
	}

	ctx := s.requestContext(c)
	sess, err := s.orchestrator.Session(ctx, req)
	if err != nil {
		return err
	}

	outcome, err := sess.Submit(ctx, postedValues(c))
	if err != nil {
		s.logger.Warn("submission error",
			zap.Int("form", req.FormID),
			zap.String("request_id", submission.RequestIDFromContext(ctx)),
			zap.Error(err),
		)
	}

	renderer, err := s.orchestrator.Renderer(req.Renderer)
	if err != nil {
		return err
	}
	out, err := sess.Render(ctx, renderer)
	if err != nil {
		return err
	}
	return s.send(c, outcomeStatus(outcome), out)
}

func (s *Server) formRequest(c *fiber.Ctx) (orchestrator.Request, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return orchestrator.Request{}, fiber.NewError(fiber.StatusBadRequest, "invalid form id")
	}
	forms := s.forms.Forms()
	if len(forms) == 0 {
		return orchestrator.Request{}, fiber.NewError(fiber.StatusServiceUnavailable, "no forms loaded")
	}
	return orchestrator.Request{
		Forms:        forms,
		FormID:       id,
		ThemeName:    s.themeName,
		ThemeVariant: s.themeVariant,
		RenderOptions: render.RenderOptions{
			Action:           c.Path(),
			Method:           "post",
			RecaptchaSiteKey: s.siteKey,
		},
	}, nil
}

func (s *Server) requestContext(c *fiber.Ctx) context.Context {
	id, _ := c.Locals(requestIDKey).(string)
	return submission.ContextWithRequestID(c.UserContext(), id)
}

func (s *Server) send(c *fiber.Ctx, status int, body []byte) error {
	contentType := "text/html; charset=utf-8"
	if renderer, err := s.orchestrator.Renderer(""); err == nil {
		contentType = renderer.ContentType()
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Status(status).Send(body)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal error"

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		message = fiberErr.Message
	case errors.Is(err, descriptor.ErrFormNotFound):
		status = fiber.StatusNotFound
		message = "form not found"
	}

	logger := s.logger.With(zap.String("path", c.Path()), zap.Int("status", status))
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func outcomeStatus(outcome session.Outcome) int {
	switch outcome {
	case session.OutcomeConfirmed:
		return fiber.StatusOK
	case session.OutcomeFailed:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusUnprocessableEntity
	}
}

func queryValues(c *fiber.Ctx) model.Values {
	values := model.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

func postedValues(c *fiber.Ctx) model.Values {
	values := model.Values{}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	if form, err := c.MultipartForm(); err == nil {
		for key, vals := range form.Value {
			values.Set(key, vals...)
		}
	}
	return values
}
