package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-gravityforms/internal/server"
	"github.com/goliatone/go-gravityforms/internal/watch"
	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/model"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		source string
		addr   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve forms over HTTP and relay submissions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src, err := a.source(source)
			if err != nil {
				return err
			}
			forms, err := a.formSource(ctx, src)
			if err != nil {
				return err
			}
			orch, err := a.orchestrator(orchestratorParams{submit: true})
			if err != nil {
				return err
			}

			srv, err := server.New(orch, forms,
				server.WithLogger(a.logger),
				server.WithRateLimit(a.cfg.Server.RateLimit.RPS, a.cfg.Server.RateLimit.Burst),
				server.WithRecaptchaSiteKey(a.cfg.Recaptcha.SiteKey),
				server.WithTheme(a.cfg.Theme.Name, a.cfg.Theme.Variant),
			)
			if err != nil {
				return err
			}
			return srv.Run(ctx, firstNonEmpty(addr, a.cfg.Server.Addr))
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "descriptor file path or URL")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}

// formSource loads the descriptor once, or keeps it reloaded when
// forms.watch is set.
func (a *app) formSource(ctx context.Context, src descriptor.Source) (server.FormSource, error) {
	if !a.cfg.Forms.Watch {
		forms, err := descriptor.Load(ctx, a.loader(), src)
		if err != nil {
			return nil, err
		}
		a.logger.Info("descriptor loaded", zap.String("source", src.Location()), zap.Int("forms", len(forms)))
		return server.StaticForms(forms), nil
	}

	if src.Kind() != descriptor.SourceKindFile {
		return nil, errors.New("forms.watch requires a file source")
	}
	w, err := watch.New(src.Location(), a.loader(),
		watch.WithLogger(a.logger),
		watch.OnReload(func(forms []model.Form) {
			a.logger.Debug("forms available", zap.Int("forms", len(forms)))
		}),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Load(ctx); err != nil {
		return nil, err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			a.logger.Error("descriptor watcher stopped", zap.Error(err))
		}
	}()
	return w, nil
}
