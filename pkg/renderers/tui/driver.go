package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// InputConfig describes a single-line question.
type InputConfig struct {
	Message string
	Default string
	Help    string
}

// TextAreaConfig describes a multi-line question (textarea fields).
type TextAreaConfig InputConfig

// SelectConfig describes a choice question. DefaultIndex applies to Select,
// Defaults to MultiSelect; both index into Options.
type SelectConfig struct {
	Message      string
	Help         string
	Options      []string
	DefaultIndex int
	Defaults     []int
}

// PromptDriver is the terminal seam. The renderer owns field ordering and
// validation; the driver only asks and answers.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	Info(ctx context.Context, msg string) error
}

// NewSurveyDriver returns the interactive driver backed by survey. Info
// messages go to out, stderr when nil, so stdout stays free for payloads.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stderr
	}
	return surveyDriver{out: out}
}

type surveyDriver struct {
	out io.Writer
}

// ask runs one survey prompt after checking ctx. Ctrl-C maps to ErrAborted.
func ask(ctx context.Context, prompt survey.Prompt, answer any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(prompt, answer)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func (d surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	err := ask(ctx, &survey.Input{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}, &answer)
	return answer, err
}

func (d surveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	var answer string
	err := ask(ctx, &survey.Multiline{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}, &answer)
	return answer, err
}

func (d surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	prompt := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if picked := pick(cfg.Options, cfg.DefaultIndex); len(picked) == 1 {
		prompt.Default = picked[0]
	}

	var answer string
	if err := ask(ctx, prompt, &answer); err != nil {
		return 0, err
	}
	return slices.Index(cfg.Options, answer), nil
}

func (d surveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	prompt := &survey.MultiSelect{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if picked := pick(cfg.Options, cfg.Defaults...); len(picked) > 0 {
		prompt.Default = picked
	}

	var answers []string
	if err := ask(ctx, prompt, &answers); err != nil {
		return nil, err
	}
	var out []int
	for i, option := range cfg.Options {
		if slices.Contains(answers, option) {
			out = append(out, i)
		}
	}
	return out, nil
}

func (d surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// pick maps indices onto options, dropping out of range ones.
func pick(options []string, indices ...int) []string {
	var out []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}
