package main

import (
	"context"
	"errors"
	"net/http"
	"notify/internal/api"
	"notify/internal/api/handler/notifyhandler"
	"notify/internal/config"
	"notify/pkg/logger"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config) func(ctx context.Context) {
	deps, err := notifyhandler.NewDeps(cfg)
	if err != nil {
		logger.Fatal(ctx, "could not create notify handler dependencies", zap.Error(err))
	}
	opts, err := api.NewOptions(cfg)
	if err != nil {
		logger.Fatal(ctx, "could not create webserver options", zap.Error(err))
	}
	if opts.Notify.APIKey == "" {
		logger.Warn(ctx, "SENDGRID_API_KEY is not set, subscriptions will be rejected")
	}

	server, err := api.NewServer(api.Deps{Deps: deps}, opts)
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", opts.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the API server",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stopWebserver := setupServer(ctx, cfg)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
		},
	}

	return cmd
}
