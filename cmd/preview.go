package main

import (
	"fmt"
	"notify/internal/config"
	"notify/internal/subscription"
	"notify/pkg/domain"
	"time"

	"github.com/spf13/cobra"
)

// previewTemplates maps the --template flag to the embedded templates.
var previewTemplates = map[string]subscription.TemplateName{ //nolint: gochecknoglobals
	"internal":     subscription.TemplateInternalAlert,
	"confirmation": subscription.TemplateConfirmation,
}

// previewCommand renders one email body to stdout without sending anything.
func previewCommand(cfg *config.Config) *cobra.Command {
	var (
		name  string
		email string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Renders an email template to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			tplName, ok := previewTemplates[name]
			if !ok {
				return fmt.Errorf("unknown template %q, expected internal or confirmation", name)
			}
			sub := domain.Subscriber{Email: email}
			if err := sub.Validate(); err != nil {
				return err //nolint: wrapcheck
			}
			opts, err := subscription.NewOptions(cfg)
			if err != nil {
				return err //nolint: wrapcheck
			}
			templates, err := subscription.DefaultTemplates()
			if err != nil {
				return err //nolint: wrapcheck
			}

			out, err := templates.Render(tplName, subscription.Vars{
				Email:        sub.Email,
				Source:       opts.Source,
				SubmittedAt:  time.Now().In(opts.Location).Format(subscription.SubmittedAtLayout),
				ContactEmail: opts.InternalRecipient,
			})
			if err != nil {
				return err //nolint: wrapcheck
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out)

			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "template", "t", "confirmation", "Template to render: internal or confirmation")
	cmd.Flags().StringVarP(&email, "email", "e", "jane@example.com", "Subscriber email address shown in the template")

	return cmd
}
