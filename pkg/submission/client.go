package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
)

const (
	// DefaultTimeout bounds a submission round trip.
	DefaultTimeout = 15 * time.Second
	// DefaultRequestIDHeader carries the request id to the endpoint.
	DefaultRequestIDHeader = "X-Request-ID"

	statusValidationErrors = "gravityFormErrors"
	maxResponseSize        = 1 << 20
)

// ErrNoEndpoint is returned when the client has nowhere to post to.
var ErrNoEndpoint = errors.New("submission: endpoint is required")

// Kind classifies a submission outcome.
type Kind int

const (
	KindUnknown Kind = iota
	KindSuccess
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

type requestIDKey struct{}

// ContextWithRequestID attaches a request id that Submit forwards when the
// Request carries none.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return strings.TrimSpace(id)
}

// Request is one submission attempt.
type Request struct {
	// BaseURL is the form's Gravity Forms API url.
	BaseURL   string
	Values    model.Values
	VerifyKey string
	// RequestID is forwarded to the endpoint; one is generated when empty.
	RequestID string
}

// Result is the classified endpoint answer.
type Result struct {
	Kind                Kind
	StatusCode          int
	RequestID           string
	ConfirmationMessage string
	// ValidationMessages holds the raw validation_messages map, normalised to
	// string slices.
	ValidationMessages map[string][]string
	Err                error
}

// Submitter is the interface sessions depend on.
type Submitter interface {
	Submit(ctx context.Context, req Request) (Result, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds each submission; zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithRequestIDHeader renames the request id header; empty disables it.
func WithRequestIDHeader(name string) Option {
	return func(c *Client) {
		c.requestIDHeader = strings.TrimSpace(name)
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client posts submissions to a proxy endpoint that forwards them to Gravity
// Forms.
type Client struct {
	endpoint        string
	http            *http.Client
	timeout         time.Duration
	headers         http.Header
	requestIDHeader string
	logger          *zap.Logger
}

var _ Submitter = (*Client)(nil)

// New returns a client posting to endpoint.
func New(endpoint string, options ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	c := &Client{
		endpoint:        endpoint,
		http:            http.DefaultClient,
		timeout:         DefaultTimeout,
		headers:         http.Header{},
		requestIDHeader: DefaultRequestIDHeader,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type requestBody struct {
	BaseURL   string         `json:"baseUrl"`
	Payload   map[string]any `json:"payload"`
	VerifyKey string         `json:"verifyKey,omitempty"`
}

// Submit posts req and classifies the answer. The returned error is reserved
// for requests that could not be built; endpoint failures come back as a
// KindUnknown result.
func (c *Client) Submit(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(requestBody{
		BaseURL:   req.BaseURL,
		Payload:   req.Values.Payload(),
		VerifyKey: req.VerifyKey,
	})
	if err != nil {
		return Result{}, fmt.Errorf("submission: encode request: %w", err)
	}

	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = RequestIDFromContext(ctx)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("submission: build request: %w", err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.requestIDHeader != "" {
		httpReq.Header.Set(c.requestIDHeader, requestID)
	}

	logger := c.logger.With(zap.String("request_id", requestID), zap.String("base_url", req.BaseURL))
	started := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Warn("submission failed", zap.Error(err))
		return Result{Kind: KindUnknown, RequestID: requestID, Err: fmt.Errorf("submission: post: %w", err)}, nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	result := classify(resp)
	result.RequestID = requestID
	logger.Info("submission answered",
		zap.Int("status", resp.StatusCode),
		zap.Stringer("kind", result.Kind),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func classify(resp *http.Response) Result {
	result := Result{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		result.Err = fmt.Errorf("submission: read response: %w", err)
		return result
	}

	var doc map[string]any
	var decodeErr error
	if len(bytes.TrimSpace(data)) > 0 {
		decodeErr = json.Unmarshal(data, &doc)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil {
			result.Err = fmt.Errorf("submission: decode response: %w", decodeErr)
			return result
		}
		result.Kind = KindSuccess
		result.ConfirmationMessage = confirmationMessage(doc)
		return result
	}

	if messages, ok := validationMessages(doc); ok {
		result.Kind = KindValidation
		result.ValidationMessages = messages
		return result
	}

	result.Err = fmt.Errorf("submission: unexpected status %s", resp.Status)
	return result
}

// confirmationMessage reads confirmation_message from the top level or from
// a nested data object.
func confirmationMessage(doc map[string]any) string {
	for current := doc; current != nil; {
		if msg, ok := current["confirmation_message"].(string); ok {
			return msg
		}
		next, _ := current["data"].(map[string]any)
		current = next
	}
	return ""
}

func validationMessages(doc map[string]any) (map[string][]string, bool) {
	for current := doc; current != nil; {
		if status, _ := current["status"].(string); status == statusValidationErrors {
			raw, _ := current["validation_messages"].(map[string]any)
			out := make(map[string][]string, len(raw))
			for key, value := range raw {
				if msgs := render.NormalizeMessages(value); len(msgs) > 0 {
					out[key] = msgs
				}
			}
			return out, true
		}
		next, _ := current["data"].(map[string]any)
		current = next
	}
	return nil, false
}
