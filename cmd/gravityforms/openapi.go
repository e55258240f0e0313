package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/openapi"
	"github.com/goliatone/go-gravityforms/pkg/orchestrator"
	"github.com/goliatone/go-gravityforms/pkg/render"
)

type openapiFlags struct {
	document   string
	operation  string
	formID     int
	buttonText string
	output     string
	html       bool
}

func newOpenAPICmd(a *app) *cobra.Command {
	var f openapiFlags

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Build a form descriptor from an OpenAPI request body",
		Long: `Without --operation the operation ids of the document are listed.
With it the request body schema becomes a form descriptor, printed as JSON or
rendered as HTML with --html.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(f.document)
			if err != nil {
				return fmt.Errorf("read OpenAPI document: %w", err)
			}
			ctx := cmd.Context()

			if strings.TrimSpace(f.operation) == "" {
				ops, err := openapi.Operations(ctx, raw)
				if err != nil {
					return err
				}
				for _, op := range ops {
					fmt.Fprintln(cmd.OutOrStdout(), op)
				}
				return nil
			}

			form, err := openapi.FromOperation(ctx, raw, f.operation, openapi.Options{
				FormID:     f.formID,
				ButtonText: f.buttonText,
			})
			if err != nil {
				return err
			}

			if !f.html {
				out, err := json.MarshalIndent(map[string][]model.Form{"forms": {form}}, "", "  ")
				if err != nil {
					return err
				}
				return writeOutput(cmd, f.output, append(out, '\n'))
			}

			orch, err := a.orchestrator(orchestratorParams{})
			if err != nil {
				return err
			}
			out, err := orch.Generate(ctx, orchestrator.Request{
				Forms:         []model.Form{form},
				ThemeName:     a.cfg.Theme.Name,
				ThemeVariant:  a.cfg.Theme.Variant,
				RenderOptions: render.RenderOptions{RecaptchaSiteKey: a.cfg.Recaptcha.SiteKey},
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, f.output, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.document, "api", "", "OpenAPI document (JSON or YAML)")
	flags.StringVar(&f.operation, "operation", "", "operation id whose request body becomes the form")
	flags.IntVar(&f.formID, "form-id", 1, "id assigned to the generated form")
	flags.StringVar(&f.buttonText, "button", "", "submit button text")
	flags.StringVarP(&f.output, "output", "o", "", "output file (stdout if empty)")
	flags.BoolVar(&f.html, "html", false, "render the form as HTML instead of printing the descriptor")
	_ = cmd.MarkFlagRequired("api")
	return cmd
}
