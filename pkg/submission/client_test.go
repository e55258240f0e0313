package submission_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/submission"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmit_PostsPayloadAndReadsConfirmation(t *testing.T) {
	var (
		got       map[string]any
		requestID string
		auth      string
	)
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		requestID = r.Header.Get("X-Request-ID")
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","data":{"confirmation_message":"<p>Thanks!</p>"}}`))
	})

	client, err := submission.New(srv.URL, submission.WithHeader("Authorization", "Bearer t"))
	require.NoError(t, err)

	result, err := client.Submit(context.Background(), submission.Request{
		BaseURL:   "https://cms.example.com/wp-json/gf/v2/forms/1",
		Values:    model.Values{"input_1": {"Ada"}, "input_3": {"a", "b"}},
		VerifyKey: "secret",
		RequestID: "req-1",
	})
	require.NoError(t, err)

	assert.Equal(t, submission.KindSuccess, result.Kind)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "<p>Thanks!</p>", result.ConfirmationMessage)
	assert.Equal(t, "req-1", result.RequestID)
	assert.Equal(t, "req-1", requestID)
	assert.Equal(t, "Bearer t", auth)
	assert.Equal(t, map[string]any{
		"baseUrl":   "https://cms.example.com/wp-json/gf/v2/forms/1",
		"verifyKey": "secret",
		"payload": map[string]any{
			"input_1": "Ada",
			"input_3": []any{"a", "b"},
		},
	}, got)
}

func TestSubmit_GeneratesRequestID(t *testing.T) {
	var header string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Trace")
		_, _ = w.Write([]byte(`{"confirmation_message":"done"}`))
	})

	client, err := submission.New(srv.URL, submission.WithRequestIDHeader("X-Trace"))
	require.NoError(t, err)

	result, err := client.Submit(context.Background(), submission.Request{Values: model.Values{"input_1": {"x"}}})
	require.NoError(t, err)
	assert.Equal(t, submission.KindSuccess, result.Kind)
	assert.Equal(t, "done", result.ConfirmationMessage)
	assert.NotEmpty(t, header)
	assert.Equal(t, header, result.RequestID)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"gravityFormErrors","validation_messages":{"input_2":"Email is invalid","3":["Too long",""]}}`))
	})

	client, err := submission.New(srv.URL)
	require.NoError(t, err)

	result, err := client.Submit(context.Background(), submission.Request{})
	require.NoError(t, err)
	assert.Equal(t, submission.KindValidation, result.Kind)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Equal(t, map[string][]string{
		"input_2": {"Email is invalid"},
		"3":       {"Too long"},
	}, result.ValidationMessages)
	assert.NoError(t, result.Err)
}

func TestSubmit_UnknownOutcomes(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
		},
		"undecodable success": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
		"undecodable failure": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`bad gateway`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, handler)
			client, err := submission.New(srv.URL)
			require.NoError(t, err)

			result, err := client.Submit(context.Background(), submission.Request{})
			require.NoError(t, err)
			assert.Equal(t, submission.KindUnknown, result.Kind)
			assert.Error(t, result.Err)
		})
	}
}

func TestSubmit_TransportFailureIsUnknown(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	})
	client, err := submission.New(srv.URL, submission.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	result, err := client.Submit(context.Background(), submission.Request{})
	require.NoError(t, err)
	assert.Equal(t, submission.KindUnknown, result.Kind)
	assert.Error(t, result.Err)
	assert.NotEmpty(t, result.RequestID)
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := submission.New("  ")
	require.ErrorIs(t, err, submission.ErrNoEndpoint)
}

func TestSubmit_RequestIDFromContext(t *testing.T) {
	var header string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get(submission.DefaultRequestIDHeader)
		w.WriteHeader(http.StatusNoContent)
	})
	client, err := submission.New(srv.URL)
	require.NoError(t, err)

	ctx := submission.ContextWithRequestID(context.Background(), "ctx-id")
	result, err := client.Submit(ctx, submission.Request{})
	require.NoError(t, err)
	assert.Equal(t, submission.KindSuccess, result.Kind)
	assert.Equal(t, "ctx-id", header)
	assert.Empty(t, result.ConfirmationMessage)
}
