package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-gravityforms/pkg/model"
	"github.com/goliatone/go-gravityforms/pkg/orchestrator"
	"github.com/goliatone/go-gravityforms/pkg/render"
)

type renderFlags struct {
	source     string
	formID     int
	output     string
	presets    []string
	presetFile string
	theme      string
	variant    string
}

func newRenderCmd(a *app) *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a form as HTML",
		Example: `  gravityforms render --source forms.json --form 1
  gravityforms render --source forms.json --form 1 --preset input_1=Ada --output form.html`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := a.source(f.source)
			if err != nil {
				return err
			}
			presets, err := parsePresets(f.presets)
			if err != nil {
				return err
			}
			orch, err := a.orchestrator(orchestratorParams{presetFile: f.presetFile})
			if err != nil {
				return err
			}

			out, err := orch.Generate(cmd.Context(), orchestrator.Request{
				Source:       src,
				FormID:       f.formID,
				ThemeName:    firstNonEmpty(f.theme, a.cfg.Theme.Name),
				ThemeVariant: firstNonEmpty(f.variant, a.cfg.Theme.Variant),
				RenderOptions: render.RenderOptions{
					Presets:          presets,
					RecaptchaSiteKey: a.cfg.Recaptcha.SiteKey,
				},
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, f.output, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.source, "source", "s", "", "descriptor file path or URL")
	flags.IntVarP(&f.formID, "form", "f", 0, "form id (optional for single-form documents)")
	flags.StringVarP(&f.output, "output", "o", "", "output file (stdout if empty)")
	flags.StringArrayVarP(&f.presets, "preset", "p", nil, "preset value as input_N=value (repeatable)")
	flags.StringVar(&f.presetFile, "transform", "", "YAML file patching the descriptor before rendering")
	flags.StringVar(&f.theme, "theme", "", "theme name")
	flags.StringVar(&f.variant, "variant", "", "theme variant")
	return cmd
}

func parsePresets(pairs []string) (model.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	values := model.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid preset %q, expected key=value", pair)
		}
		values.Add(key, value)
	}
	return values, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
