package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-gravityforms/pkg/orchestrator"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/renderers/tui"
	"github.com/goliatone/go-gravityforms/pkg/session"
)

// maxFillAttempts bounds how often fill re-prompts after rejected
// submissions.
const maxFillAttempts = 5

// promptDriver builds the terminal driver fill prompts through.
var promptDriver = func() tui.PromptDriver { return tui.NewSurveyDriver(os.Stderr) }

type fillFlags struct {
	source string
	formID int
	format string
	output string
	submit bool
}

func newFillCmd(a *app) *cobra.Command {
	var f fillFlags

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill a form interactively in the terminal",
		Long: `Prompts for every field of the form. Without --submit the collected
values are printed as json, form or pretty text. With --submit they are sent
to submission.endpoint and the confirmation message is printed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.source(f.source)
			if err != nil {
				return err
			}
			renderer, err := tui.New(
				tui.WithOutputFormat(tui.OutputFormat(strings.ToLower(f.format))),
				tui.WithPromptDriver(promptDriver()),
				tui.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			registry, err := a.registry(renderer)
			if err != nil {
				return err
			}
			orch, err := a.orchestrator(orchestratorParams{registry: registry, submit: f.submit})
			if err != nil {
				return err
			}

			req := orchestrator.Request{
				Source:        src,
				FormID:        f.formID,
				Renderer:      renderer.Name(),
				RenderOptions: render.RenderOptions{RecaptchaSiteKey: a.cfg.Recaptcha.SiteKey},
			}
			if !f.submit {
				out, err := orch.Generate(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeOutput(cmd, f.output, out)
			}
			return fillAndSubmit(cmd, orch, renderer, req)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.source, "source", "s", "", "descriptor file path or URL")
	flags.IntVarP(&f.formID, "form", "f", 0, "form id (optional for single-form documents)")
	flags.StringVar(&f.format, "format", string(tui.OutputFormatJSON), "output format: json, form or pretty")
	flags.StringVarP(&f.output, "output", "o", "", "output file (stdout if empty)")
	flags.BoolVar(&f.submit, "submit", false, "send the values to submission.endpoint")
	return cmd
}

func fillAndSubmit(cmd *cobra.Command, orch *orchestrator.Orchestrator, renderer *tui.Renderer, req orchestrator.Request) error {
	ctx := cmd.Context()
	sess, err := orch.Session(ctx, req)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxFillAttempts; attempt++ {
		values, err := renderer.Collect(ctx, sess.Form(), sess.RenderOptions())
		if err != nil {
			if errors.Is(err, tui.ErrAborted) {
				return errors.New("aborted")
			}
			return err
		}

		outcome, err := sess.Submit(ctx, values)
		if err != nil {
			return err
		}
		switch outcome {
		case session.OutcomeConfirmed:
			confirmation := sess.RenderOptions().Confirmation
			fmt.Fprintln(cmd.OutOrStdout(), renderer.PlainText(confirmation))
			return nil
		case session.OutcomeFailed:
			return fmt.Errorf("submission failed: %s", strings.Join(sess.RenderOptions().FormErrors, " "))
		}
	}
	return fmt.Errorf("form still invalid after %d attempts", maxFillAttempts)
}
