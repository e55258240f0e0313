package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/model"
)

// ContactForm returns a small form covering the common widgets.
func ContactForm() model.Form {
	return model.Form{
		ID:     1,
		Title:  "Contact us",
		APIURL: "https://cms.example.com/wp-json/gf/v2/forms/1",
		Button: model.Button{Text: "Send message"},
		Fields: []model.Field{
			{ID: 1, Type: model.FieldTypeText, Label: "Name", IsRequired: true, MaxLength: 40},
			{ID: 2, Type: model.FieldTypeEmail, Label: "Email"},
			{ID: 3, Type: model.FieldTypeSelect, Label: "Topic", Choices: model.Choices{
				{Text: "Sales", Value: "sales"},
				{Text: "Support", Value: "support", IsSelected: true},
			}},
			{ID: 4, Type: model.FieldTypeTextarea, Label: "Message", MaxLength: 200},
			{ID: 5, Type: model.FieldTypeHidden, DefaultValue: "spring"},
		},
	}
}

// LoadForms decodes a descriptor fixture from disk.
func LoadForms(t *testing.T, path string) []model.Form {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read descriptor: %v", err)
	}
	doc, err := descriptor.NewDocument(descriptor.SourceFromFile(path), data)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	forms, err := descriptor.Decode(doc)
	if err != nil {
		t.Fatalf("decode descriptor: %v", err)
	}
	return forms
}

// WriteForms writes forms as a JSON descriptor to path.
func WriteForms(t *testing.T, path string, forms ...model.Form) {
	t.Helper()

	payload, err := json.MarshalIndent(map[string]any{"forms": forms}, "", "  ")
	if err != nil {
		t.Fatalf("marshal forms: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write forms: %v", err)
	}
}

// EndpointResponse is one canned answer of the fake submission endpoint.
type EndpointResponse struct {
	Status int
	Body   any
}

// Success answers with a confirmation message.
func Success(message string) EndpointResponse {
	return EndpointResponse{Status: http.StatusOK, Body: map[string]any{
		"status": "ok",
		"data":   map[string]any{"confirmation_message": message},
	}}
}

// ValidationFailure answers with Gravity Forms validation messages.
func ValidationFailure(messages map[string]string) EndpointResponse {
	return EndpointResponse{Status: http.StatusBadRequest, Body: map[string]any{
		"status":              "gravityFormErrors",
		"validation_messages": messages,
	}}
}

// Endpoint is a fake submission endpoint recording what it receives.
type Endpoint struct {
	*httptest.Server

	mu        sync.Mutex
	responses []EndpointResponse
	requests  []map[string]any
	headers   []http.Header
}

// NewEndpoint starts a fake endpoint answering with responses in order; the
// last response repeats.
func NewEndpoint(t *testing.T, responses ...EndpointResponse) *Endpoint {
	t.Helper()

	e := &Endpoint{responses: responses}
	e.Server = httptest.NewServer(http.HandlerFunc(e.handle))
	t.Cleanup(e.Server.Close)
	return e
}

func (e *Endpoint) handle(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	e.mu.Lock()
	e.requests = append(e.requests, body)
	e.headers = append(e.headers, r.Header.Clone())
	resp := EndpointResponse{Status: http.StatusInternalServerError}
	if n := len(e.responses); n > 0 {
		idx := len(e.requests) - 1
		if idx >= n {
			idx = n - 1
		}
		resp = e.responses[idx]
	}
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	if resp.Body != nil {
		_ = json.NewEncoder(w).Encode(resp.Body)
	}
}

// Requests returns the decoded request bodies received so far.
func (e *Endpoint) Requests() []map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]map[string]any(nil), e.requests...)
}

// Headers returns the request headers received so far.
func (e *Endpoint) Headers() []http.Header {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]http.Header(nil), e.headers...)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
