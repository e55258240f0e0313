package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gravityforms/pkg/orchestrator"
	"github.com/goliatone/go-gravityforms/pkg/submission"
	"github.com/goliatone/go-gravityforms/pkg/testsupport"
)

func newServer(t *testing.T, endpoint *testsupport.Endpoint, options ...Option) *Server {
	t.Helper()

	var orchOpts []orchestrator.Option
	if endpoint != nil {
		client, err := submission.New(endpoint.URL, submission.WithTimeout(2*time.Second))
		require.NoError(t, err)
		orchOpts = append(orchOpts, orchestrator.WithSubmitter(client), orchestrator.WithVerifyKey("verify"))
	}

	srv, err := New(orchestrator.New(orchOpts...), StaticForms{testsupport.ContactForm()}, options...)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := srv.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func post(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestServer_Health(t *testing.T) {
	srv := newServer(t, nil)

	resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","forms":1}`, body)
}

func TestServer_ShowForm(t *testing.T) {
	srv := newServer(t, nil, WithRecaptchaSiteKey(""))

	resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/forms/1?input_1=Ada", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Contains(t, body, `method="post" action="/forms/1"`)
	assert.Contains(t, body, `name="input_1" type="text"`)
	assert.Contains(t, body, `value="Ada"`)
}

func TestServer_ShowFormErrors(t *testing.T) {
	srv := newServer(t, nil)

	resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/forms/99", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"form not found"}`, body)

	resp, _ = do(t, srv, httptest.NewRequest(http.MethodGet, "/forms/abc", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	empty, err := New(orchestrator.New(), StaticForms(nil))
	require.NoError(t, err)
	resp, _ = do(t, empty, httptest.NewRequest(http.MethodGet, "/forms/1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_SubmitConfirmed(t *testing.T) {
	endpoint := testsupport.NewEndpoint(t, testsupport.Success("Thanks Ada!"))
	srv := newServer(t, endpoint)

	resp, body := do(t, srv, post("/forms/1", url.Values{
		"input_1": {"Ada"},
		"input_2": {"ada@example.com"},
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Thanks Ada!")
	assert.NotContains(t, body, "<form")

	requests := endpoint.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "verify", requests[0]["verifyKey"])
	payload, ok := requests[0]["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", payload["input_1"])

	headers := endpoint.Headers()
	require.Len(t, headers, 1)
	assert.Equal(t, resp.Header.Get("X-Request-ID"), headers[0].Get(submission.DefaultRequestIDHeader))
}

func TestServer_SubmitRejectedLocally(t *testing.T) {
	endpoint := testsupport.NewEndpoint(t, testsupport.Success("unused"))
	srv := newServer(t, endpoint)

	resp, body := do(t, srv, post("/forms/1", url.Values{}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Please fill in at least one field.")

	resp, body = do(t, srv, post("/forms/1", url.Values{"input_2": {"ada@example.com"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, `value="ada@example.com"`)

	assert.Empty(t, endpoint.Requests())
}

func TestServer_SubmitServerValidation(t *testing.T) {
	endpoint := testsupport.NewEndpoint(t, testsupport.ValidationFailure(map[string]string{
		"input_1": "That name is taken.",
	}))
	srv := newServer(t, endpoint)

	resp, body := do(t, srv, post("/forms/1", url.Values{"input_1": {"Ada"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "That name is taken.")
	assert.Contains(t, body, `aria-invalid="true"`)
}

func TestServer_SubmitEndpointFailure(t *testing.T) {
	endpoint := testsupport.NewEndpoint(t, testsupport.EndpointResponse{Status: http.StatusInternalServerError})
	srv := newServer(t, endpoint)

	resp, body := do(t, srv, post("/forms/1", url.Values{"input_1": {"Ada"}}))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, "Something went wrong while submitting the form.")
}

func TestServer_SubmitWithoutSubmitter(t *testing.T) {
	srv := newServer(t, nil)

	resp, body := do(t, srv, post("/forms/1", url.Values{"input_1": {"Ada"}}))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"internal error"}`, body)
}

func TestServer_RateLimit(t *testing.T) {
	srv := newServer(t, nil, WithRateLimit(0.001, 1))

	resp, _ := do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestRateLimiter_PerIPAndPrune(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))

	now = now.Add(visitorTTL + 2*time.Minute)
	assert.True(t, rl.Allow("10.0.0.3"))
	assert.Len(t, rl.visitors, 1)
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, StaticForms{})
	require.Error(t, err)
	_, err = New(orchestrator.New(), nil)
	require.Error(t, err)
}

func TestServer_Assets(t *testing.T) {
	srv := newServer(t, nil)

	resp, body := do(t, srv, httptest.NewRequest(http.MethodGet, "/assets/gravityforms.css", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	assert.Contains(t, body, ".gravityform")

	resp, _ = do(t, srv, httptest.NewRequest(http.MethodGet, "/assets/missing.css", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
