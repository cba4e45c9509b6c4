package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-stacked-content/pkg/api"
	"github.com/goliatone/go-stacked-content/pkg/interfaces/logger"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor backoffice API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Listen address, overrides http.addr")
	rootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.module.Config()
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.HTTP.Addr
	}

	h, err := api.New(api.Dependencies{
		ElementTypes:  a.module.ElementTypes(),
		Commands:      a.module.Commands(),
		Converter:     a.module.Converter(),
		Validator:     a.module.Container().Validator,
		Logger:        a.logger,
		DefaultLocale: cfg.Localization.DefaultLocale,
	})
	if err != nil {
		return err
	}
	server := api.NewApp(h, cfg.HTTP.Prefix)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("serving stacked content api",
			logger.Field{Key: "addr", Value: addr},
			logger.Field{Key: "prefix", Value: cfg.HTTP.Prefix},
		)
		errCh <- server.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
