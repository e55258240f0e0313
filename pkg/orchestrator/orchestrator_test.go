package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/orchestrator"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/session"
	"github.com/goliatone/go-gravityforms/pkg/submission"
	"github.com/goliatone/go-gravityforms/pkg/widgets"
)

const formsDocument = `{
  "data": {
    "allGfForm": {
      "edges": [
        {"node": {"formId": 1, "title": "Contact", "apiURL": "https://cms.example.com/forms/1",
          "formFields": [
            {"id": 1, "type": "text", "label": "Name", "isRequired": true},
            {"id": 2, "type": "email", "label": "Email"}
          ]}},
        {"node": {"formId": 2, "title": "Newsletter",
          "formFields": [{"id": 1, "type": "email", "label": "Email"}]}}
      ]
    }
  }
}`

type stubLoader struct {
	raw   string
	calls int
}

func (s *stubLoader) Load(_ context.Context, src descriptor.Source) (descriptor.Document, error) {
	s.calls++
	return descriptor.NewDocument(src, []byte(s.raw))
}

type stubRenderer struct {
	last model.Form
	opts render.RenderOptions
}

func (s *stubRenderer) Name() string        { return "stub" }
func (s *stubRenderer) ContentType() string { return "text/plain" }
func (s *stubRenderer) Render(_ context.Context, form model.Form, opts render.RenderOptions) ([]byte, error) {
	s.last = form
	s.opts = opts
	return []byte(form.Title), nil
}

type stubSubmitter struct{}

func (stubSubmitter) Submit(context.Context, submission.Request) (submission.Result, error) {
	return submission.Result{Kind: submission.KindSuccess, ConfirmationMessage: "thanks"}, nil
}

func newOrchestrator(loader descriptor.Loader, options ...orchestrator.Option) (*orchestrator.Orchestrator, *stubRenderer) {
	renderer := &stubRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)
	base := []orchestrator.Option{
		orchestrator.WithLoader(loader),
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(renderer.Name()),
	}
	return orchestrator.New(append(base, options...)...), renderer
}

func TestGenerate_LoadsAndSelectsForm(t *testing.T) {
	loader := &stubLoader{raw: formsDocument}
	orch, renderer := newOrchestrator(loader)

	out, err := orch.Generate(context.Background(), orchestrator.Request{
		Source: descriptor.SourceFromFile("forms.json"),
		FormID: 2,
		RenderOptions: render.RenderOptions{
			Presets: model.Values{"input_1": {"a@example.com"}},
		},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(out) != "Newsletter" || loader.calls != 1 {
		t.Fatalf("unexpected output %q after %d loads", out, loader.calls)
	}
	if renderer.opts.Presets.Get("input_1") != "a@example.com" {
		t.Fatalf("render options not forwarded: %+v", renderer.opts)
	}
}

func TestGenerate_FormSelectionErrors(t *testing.T) {
	orch, _ := newOrchestrator(&stubLoader{raw: formsDocument})
	src := descriptor.SourceFromFile("forms.json")

	_, err := orch.Generate(context.Background(), orchestrator.Request{Source: src, FormID: 9})
	if !errors.Is(err, descriptor.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}

	_, err = orch.Generate(context.Background(), orchestrator.Request{Source: src})
	if err == nil || !strings.Contains(err.Error(), "form id is required") {
		t.Fatalf("expected missing id error, got %v", err)
	}

	_, err = orch.Generate(context.Background(), orchestrator.Request{})
	if err == nil {
		t.Fatalf("expected error without source or forms")
	}
}

func TestGenerate_SingleFormNeedsNoID(t *testing.T) {
	orch, _ := newOrchestrator(&stubLoader{})
	out, err := orch.Generate(context.Background(), orchestrator.Request{
		Forms: []model.Form{{ID: 7, Title: "Only"}},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if string(out) != "Only" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestGenerate_TransformerThenDecorators(t *testing.T) {
	var order []string
	transformer := orchestrator.TransformerFunc(func(_ context.Context, form *model.Form) error {
		order = append(order, "transform")
		form.Title = "Patched"
		return nil
	})
	decorator := model.DecoratorFunc(func(form *model.Form) error {
		order = append(order, "decorate")
		return nil
	})

	orch, renderer := newOrchestrator(&stubLoader{raw: formsDocument},
		orchestrator.WithTransformer(transformer),
		orchestrator.WithDecorators(decorator, widgets.NewRegistry()),
	)
	_, err := orch.Generate(context.Background(), orchestrator.Request{
		Source: descriptor.SourceFromFile("forms.json"),
		FormID: 1,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if diff := cmp.Diff([]string{"transform", "decorate"}, order); diff != "" {
		t.Fatalf("pipeline order mismatch (-want +got):\n%s", diff)
	}
	if renderer.last.Title != "Patched" {
		t.Fatalf("transformer not applied: %q", renderer.last.Title)
	}
	if got := renderer.last.Fields[1].Metadata[widgets.MetadataKey]; got != widgets.WidgetInput {
		t.Fatalf("widget decorator not applied, got %q", got)
	}
}

func TestGenerate_UnknownRenderer(t *testing.T) {
	orch, _ := newOrchestrator(&stubLoader{})
	_, err := orch.Generate(context.Background(), orchestrator.Request{
		Forms:    []model.Form{{ID: 1}},
		Renderer: "pdf",
	})
	if err == nil || !strings.Contains(err.Error(), `renderer "pdf"`) {
		t.Fatalf("expected unknown renderer error, got %v", err)
	}
}

func TestGenerate_DefaultHTMLRenderer(t *testing.T) {
	orch := orchestrator.New(orchestrator.WithLoader(&stubLoader{raw: formsDocument}))
	out, err := orch.Generate(context.Background(), orchestrator.Request{
		Source: descriptor.SourceFromFile("forms.json"),
		FormID: 1,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(string(out), `<form id="gravityform--id-1"`) {
		t.Fatalf("expected html form output:\n%s", out)
	}
}

func TestSession_UsesPipeline(t *testing.T) {
	orch, renderer := newOrchestrator(&stubLoader{raw: formsDocument},
		orchestrator.WithSubmitter(stubSubmitter{}),
		orchestrator.WithVerifyKey("k"),
	)
	sess, err := orch.Session(context.Background(), orchestrator.Request{
		Source:        descriptor.SourceFromFile("forms.json"),
		FormID:        1,
		RenderOptions: render.RenderOptions{Hidden: map[string]string{"_csrf": "abc"}},
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if _, err := sess.Submit(context.Background(), model.Values{"input_1": {"Ada"}}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sess.State() != session.StateConfirmed {
		t.Fatalf("expected confirmed session")
	}

	rnd, err := orch.Renderer("")
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	if _, err := sess.Render(context.Background(), rnd); err != nil {
		t.Fatalf("render: %v", err)
	}
	if renderer.opts.Confirmation != "thanks" || renderer.opts.Hidden["_csrf"] != "abc" {
		t.Fatalf("unexpected render options: %+v", renderer.opts)
	}
}

func TestSession_RequiresSubmitter(t *testing.T) {
	orch, _ := newOrchestrator(&stubLoader{})
	if _, err := orch.Session(context.Background(), orchestrator.Request{Forms: []model.Form{{ID: 1}}}); err == nil {
		t.Fatalf("expected error without submitter")
	}
}

func TestPresetTransformer(t *testing.T) {
	files := fstest.MapFS{
		"presets/contact.yaml": {Data: []byte(`
title: Get in touch
button: Send
fields:
  "1":
    label: Full name
    placeholder: Jane Doe
  input_2:
    isRequired: true
    metadata:
      widget: textarea
`)},
	}
	transformer, err := orchestrator.NewPresetTransformerFromFS(files, "presets/contact.yaml")
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}

	form := model.Form{ID: 1, Fields: []model.Field{
		{ID: 1, Type: model.FieldTypeText, Label: "Name"},
		{ID: 2, Type: model.FieldTypeEmail, Label: "Email"},
	}}
	if err := transformer.Transform(context.Background(), &form); err != nil {
		t.Fatalf("transform: %v", err)
	}

	want := model.Form{ID: 1, Title: "Get in touch", Button: model.Button{Text: "Send"}, Fields: []model.Field{
		{ID: 1, Type: model.FieldTypeText, Label: "Full name", Placeholder: "Jane Doe"},
		{ID: 2, Type: model.FieldTypeEmail, Label: "Email", IsRequired: true, Metadata: map[string]string{"widget": "textarea"}},
	}}
	if diff := cmp.Diff(want, form); diff != "" {
		t.Fatalf("form mismatch (-want +got):\n%s", diff)
	}
}

func TestPresetTransformer_Errors(t *testing.T) {
	if _, err := orchestrator.NewPresetTransformer([]byte("  ")); err == nil {
		t.Fatalf("expected error for empty document")
	}
	transformer, err := orchestrator.NewPresetTransformer([]byte(`{"fields": {"9": {"label": "x"}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	form := model.Form{ID: 1, Fields: []model.Field{{ID: 1, Type: model.FieldTypeText}}}
	if err := transformer.Transform(context.Background(), &form); err == nil {
		t.Fatalf("expected missing field error")
	}
}
