package main

import (
	"context"
	"fmt"
	"notify/internal/api/handler/notifyhandler"
	"notify/internal/config"
	"notify/internal/subscription"
	"notify/pkg/domain"
	"notify/pkg/logger"
	"notify/pkg/serrors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// subscribeCommand runs the subscription pipeline once without the HTTP layer.
func subscribeCommand(cfg *config.Config) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Sends the team alert and the confirmation email for one address",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.SendGrid.APIKey == "" {
				return serrors.With(serrors.ErrMisconfigured, "SENDGRID_API_KEY not set in environment variables")
			}
			deps, err := notifyhandler.NewDeps(cfg)
			if err != nil {
				return err
			}
			opts, err := subscription.NewOptions(cfg)
			if err != nil {
				return err //nolint: wrapcheck
			}

			svc := subscription.New(deps.NewSender(cfg.SendGrid.APIKey), deps.Templates, opts)
			if err := svc.Subscribe(ctx, domain.Subscriber{Email: email}); err != nil {
				logger.Error(ctx, "could not subscribe", zap.Error(err))

				return fmt.Errorf("could not subscribe %s: %w", logger.RedactEmail(email), err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Successfully subscribed")

			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Subscriber email address")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
