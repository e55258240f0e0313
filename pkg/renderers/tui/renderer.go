package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/validation"
	"github.com/goliatone/go-gravityforms/pkg/widgets"
)

// skipOption lets optional single-choice prompts stay unanswered.
const skipOption = "(skip)"

// Renderer implements render.Renderer for terminal sessions: it walks the
// form, prompts for every input and serializes the answers.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	widgets           *widgets.Registry
	submitTransformer SubmitTransformer
	theme             Theme
	logger            *zap.Logger
	text              *bluemonday.Policy
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		theme:        Theme{ErrorPrefix: "! "},
		logger:       zap.NewNop(),
		text:         bluemonday.StrictPolicy(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	if r.widgets == nil {
		r.widgets = widgets.NewRegistry()
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, r.outputFormat)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render collects values interactively and serializes them.
func (r *Renderer) Render(ctx context.Context, form model.Form, opts render.RenderOptions) ([]byte, error) {
	values, err := r.Collect(ctx, form, opts)
	if err != nil {
		return nil, err
	}
	return r.serialize(form, values)
}

// Collect prompts for every supported field of form and returns the answers
// keyed by input name. Answers failing local validation are asked again.
func (r *Renderer) Collect(ctx context.Context, form model.Form, opts render.RenderOptions) (model.Values, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	catalog := opts.Catalog()
	state := NewState(opts)

	if title := strings.TrimSpace(form.Title); title != "" {
		if err := r.info(ctx, title); err != nil {
			return nil, err
		}
	}
	for _, message := range opts.FormErrors {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+message); err != nil {
			return nil, err
		}
	}

	for _, field := range form.Fields {
		widget, ok := r.widgets.Resolve(field)
		if !ok {
			r.logger.Debug("skipping unsupported field", zap.Int("field", field.ID), zap.String("type", string(field.Type)))
			continue
		}
		if err := r.promptField(ctx, field, widget, state, catalog); err != nil {
			return nil, fmt.Errorf("tui: field %d: %w", field.ID, err)
		}
	}

	values := state.Values()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return values, nil
}

func (r *Renderer) promptField(ctx context.Context, field model.Field, widget string, state *State, catalog render.Catalog) error {
	if field.Type == model.FieldTypeHidden {
		state.Set(field, state.Defaults(field)...)
		return nil
	}
	switch widget {
	case widgets.WidgetCaptcha:
		return nil
	case widgets.WidgetHTML:
		if text := r.PlainText(field.Content); text != "" {
			return r.info(ctx, text)
		}
		return nil
	}

	for _, message := range state.ErrorsFor(field.InputName()) {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+message); err != nil {
			return err
		}
	}

	switch widget {
	case widgets.WidgetTextarea:
		return r.promptText(ctx, field, state, catalog, true)
	case widgets.WidgetSelect, widgets.WidgetRadio:
		return r.promptSelect(ctx, field, state, catalog)
	case widgets.WidgetMultiselect, widgets.WidgetCheckbox:
		return r.promptMulti(ctx, field, state, catalog)
	default:
		return r.promptText(ctx, field, state, catalog, false)
	}
}

func (r *Renderer) promptText(ctx context.Context, field model.Field, state *State, catalog render.Catalog, multiline bool) error {
	label := displayLabel(field, catalog)
	help := r.PlainText(field.Description)
	defaultVal := first(state.Defaults(field))

	for {
		var (
			response string
			err      error
		)
		if multiline {
			response, err = r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: defaultVal, Help: help})
		} else {
			response, err = r.driver.Input(ctx, InputConfig{Message: label, Default: defaultVal, Help: help})
		}
		if err != nil {
			return err
		}
		candidate := model.Values{field.InputName(): {response}}
		if msgs := validation.ValidateField(field, candidate, catalog); len(msgs) > 0 {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+strings.Join(msgs, " ")); err != nil {
				return err
			}
			continue
		}
		state.Set(field, response)
		return nil
	}
}

func (r *Renderer) promptSelect(ctx context.Context, field model.Field, state *State, catalog render.Catalog) error {
	options := choiceTexts(field)
	offset := 0
	if !field.IsRequired {
		options = append([]string{skipOption}, options...)
		offset = 1
	}
	defaultIdx := -1
	if defaults := state.Defaults(field); len(defaults) > 0 {
		if idx := choiceIndex(field, defaults[0]); idx >= 0 {
			defaultIdx = idx + offset
		}
	}

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      displayLabel(field, catalog),
			Options:      options,
			DefaultIndex: defaultIdx,
			Help:         r.PlainText(field.Description),
		})
		if err != nil {
			return err
		}
		var answer []string
		if choice := idx - offset; choice >= 0 && choice < len(field.Choices) {
			answer = []string{field.Choices[choice].SubmitValue()}
		}
		candidate := model.Values{field.InputName(): answer}
		if msgs := validation.ValidateField(field, candidate, catalog); len(msgs) > 0 {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+strings.Join(msgs, " ")); err != nil {
				return err
			}
			continue
		}
		if len(answer) > 0 {
			state.Set(field, answer...)
		}
		return nil
	}
}

func (r *Renderer) promptMulti(ctx context.Context, field model.Field, state *State, catalog render.Catalog) error {
	var defaults []int
	for _, value := range state.Defaults(field) {
		if idx := choiceIndex(field, value); idx >= 0 {
			defaults = append(defaults, idx)
		}
	}

	for {
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  displayLabel(field, catalog),
			Options:  choiceTexts(field),
			Defaults: defaults,
			Help:     r.PlainText(field.Description),
		})
		if err != nil {
			return err
		}
		var answer []string
		for _, idx := range indices {
			if idx >= 0 && idx < len(field.Choices) {
				answer = append(answer, field.Choices[idx].SubmitValue())
			}
		}
		candidate := model.Values{field.InputName(): answer}
		if msgs := validation.ValidateField(field, candidate, catalog); len(msgs) > 0 {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+strings.Join(msgs, " ")); err != nil {
				return err
			}
			continue
		}
		if field.Type == model.FieldTypeCheckbox {
			state.SetChoices(field, indices)
		} else if len(answer) > 0 {
			state.Set(field, answer...)
		}
		return nil
	}
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, r.theme.InfoPrefix+msg)
}

// PlainText strips markup from author supplied content.
func (r *Renderer) PlainText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(r.text.Sanitize(raw))), " ")
}

func (r *Renderer) serialize(form model.Form, values model.Values) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		encoded := url.Values{}
		for _, key := range values.Keys() {
			for _, value := range values.All(key) {
				encoded.Add(key, value)
			}
		}
		return []byte(encoded.Encode()), nil
	case OutputFormatPrettyText:
		return prettyText(form, values), nil
	default:
		out, err := json.MarshalIndent(values.Payload(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return append(out, '\n'), nil
	}
}

func prettyText(form model.Form, values model.Values) []byte {
	var buf bytes.Buffer
	for _, field := range form.Fields {
		if !field.CollectsInput() {
			continue
		}
		answers := validation.FieldValues(field, values)
		if len(answers) == 0 {
			continue
		}
		label := strings.TrimSpace(field.Label)
		if label == "" {
			label = field.InputName()
		}
		fmt.Fprintf(&buf, "%s: %s\n", label, strings.Join(answers, ", "))
	}
	return buf.Bytes()
}

func displayLabel(field model.Field, catalog render.Catalog) string {
	label := strings.TrimSpace(field.Label)
	if label == "" {
		label = field.InputName()
	}
	if field.Type == model.FieldTypeTextarea && field.MaxLength > 0 {
		label += " " + catalog.Message(render.MessageMaxLengthHint, field.MaxLength)
	}
	if field.IsRequired {
		label += " *"
	}
	return label
}

func choiceTexts(field model.Field) []string {
	out := make([]string, 0, len(field.Choices))
	for _, choice := range field.Choices {
		text := strings.TrimSpace(choice.Text)
		if text == "" {
			text = choice.SubmitValue()
		}
		out = append(out, text)
	}
	return out
}

func choiceIndex(field model.Field, value string) int {
	for idx, choice := range field.Choices {
		if choice.SubmitValue() == value {
			return idx
		}
	}
	return -1
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
