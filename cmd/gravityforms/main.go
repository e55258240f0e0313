// Command gravityforms renders Gravity Forms descriptors as HTML or terminal
// prompts, serves them over HTTP and relays submissions to the form endpoint.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-gravityforms/internal/config"
	"github.com/goliatone/go-gravityforms/internal/loader"
	"github.com/goliatone/go-gravityforms/internal/logging"
	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/orchestrator"
	"github.com/goliatone/go-gravityforms/pkg/render"
	"github.com/goliatone/go-gravityforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-gravityforms/pkg/submission"
)

const descriptorTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	configPath string
	envFiles   []string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "gravityforms",
		Short:         "Render and submit Gravity Forms descriptors",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files loaded before reading the environment")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format override (json, console)")

	root.AddCommand(
		newRenderCmd(a),
		newFillCmd(a),
		newServeCmd(a),
		newValidateCmd(a),
		newOpenAPICmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{Path: a.configPath, EnvFiles: a.envFiles})
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// source resolves the descriptor location from a flag, falling back to the
// configured forms.source.
func (a *app) source(flagValue string) (descriptor.Source, error) {
	raw := strings.TrimSpace(flagValue)
	if raw == "" {
		raw = strings.TrimSpace(a.cfg.Forms.Source)
	}
	if raw == "" {
		return nil, fmt.Errorf("no descriptor source: pass --source or set forms.source")
	}
	return descriptor.ParseSource(raw)
}

func (a *app) loader() descriptor.Loader {
	return loader.NewWithOptions(descriptor.WithHTTPFallback(descriptorTimeout))
}

// registry registers the HTML renderer plus any extra renderers.
func (a *app) registry(extra ...render.Renderer) (*render.Registry, error) {
	registry := render.NewRegistry()
	html, err := vanilla.New()
	if err != nil {
		return nil, err
	}
	if err := registry.Register(html); err != nil {
		return nil, err
	}
	for _, r := range extra {
		if err := registry.Register(r); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

type orchestratorParams struct {
	registry   *render.Registry
	presetFile string
	submit     bool
}

func (a *app) orchestrator(p orchestratorParams) (*orchestrator.Orchestrator, error) {
	options := []orchestrator.Option{
		orchestrator.WithLoader(a.loader()),
		orchestrator.WithLogger(a.logger),
	}
	if p.registry != nil {
		options = append(options, orchestrator.WithRegistry(p.registry))
	}

	if path := strings.TrimSpace(a.cfg.Theme.Manifest); path != "" {
		manifest, err := orchestrator.LoadThemeManifest(os.DirFS(filepath.Dir(path)), filepath.Base(path))
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithThemeManifests(a.cfg.Theme.Name, a.cfg.Theme.Variant, manifest))
	}

	if path := strings.TrimSpace(p.presetFile); path != "" {
		transformer, err := orchestrator.NewPresetTransformerFromFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformer(transformer))
	}

	if p.submit {
		endpoint := strings.TrimSpace(a.cfg.Submission.Endpoint)
		if endpoint == "" {
			return nil, fmt.Errorf("submission.endpoint is not configured")
		}
		client, err := submission.New(endpoint,
			submission.WithTimeout(a.cfg.Submission.Timeout),
			submission.WithLogger(a.logger),
		)
		if err != nil {
			return nil, err
		}
		options = append(options,
			orchestrator.WithSubmitter(client),
			orchestrator.WithVerifyKey(a.cfg.Submission.VerifyKey),
		)
	}
	return orchestrator.New(options...), nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Form written to %s\n", path)
	return nil
}
