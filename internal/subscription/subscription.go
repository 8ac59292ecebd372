// Package subscription turns a subscriber into the two outbound emails: an
// alert to the team mailbox and a confirmation to the subscriber.
package subscription

import (
	"context"
	"fmt"
	"notify/internal/config"
	"notify/pkg/domain"
	"notify/pkg/logger"
	"notify/pkg/mailer"
	"notify/pkg/metrics"
	"notify/pkg/serrors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	// InternalSubject is the subject of the team notification.
	InternalSubject = "🎉 New 2026 Updates Subscriber"
	// ConfirmationSubject is the subject of the subscriber confirmation.
	ConfirmationSubject = "We've Got You! 2026 Updates Coming Soon"

	// SubmittedAtLayout formats the submission time shown in the internal alert,
	// in the configured zone and without a zone suffix.
	SubmittedAtLayout = "1/2/2006, 3:04:05 PM"

	meterName = "notify/internal/subscription"
)

// Service subscribes people to updates.
type Service interface {
	// Subscribe validates sub, then sends the internal alert and, only if that
	// succeeded, the confirmation. Nothing is undone when the second send fails.
	Subscribe(ctx context.Context, sub domain.Subscriber) error
}

// Options configure the content and addressing of both emails. They are
// typically derived from application configuration via NewOptions.
type Options struct {
	// From is the sender address of both emails.
	From string
	// InternalRecipient is the team mailbox receiving the alert.
	InternalRecipient string
	// Source is shown in the alert to tell where the signup came from.
	Source string
	// Location is the zone used to print the submission time; nil means UTC.
	Location *time.Location
	// Now returns the current time; nil means time.Now.
	Now func() time.Time
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) (Options, error) {
	loc, err := time.LoadLocation(cfg.Subscription.TimeZone)
	if err != nil {
		return Options{}, serrors.Wrap(serrors.ErrMisconfigured, err, "invalid time zone %q", cfg.Subscription.TimeZone)
	}

	return Options{
		From:              cfg.SendGrid.FromEmail,
		InternalRecipient: cfg.Subscription.InternalEmail,
		Source:            cfg.Subscription.Source,
		Location:          loc,
	}, nil
}

// service is the concrete implementation of the Service interface.
type service struct {
	options   Options
	sender    mailer.Sender
	templates *Templates
	// emails counts send attempts by email kind and outcome.
	emails metric.Int64Counter
}

// New creates a Service delivering through sender. A fresh sender may be
// passed on every invocation; the service keeps no other state.
func New(sender mailer.Sender, templates *Templates, options Options) Service {
	if options.Location == nil {
		options.Location = time.UTC
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	// instrument creation only fails on invalid names
	emails, _ := otel.Meter(meterName).Int64Counter("subscription.emails",
		metric.WithDescription("Subscription emails handed to the delivery provider."),
		metric.WithUnit("{email}"))

	return &service{
		options:   options,
		sender:    sender,
		templates: templates,
		emails:    emails,
	}
}

// vars returns the template values for sub at the current time.
func (s *service) vars(sub domain.Subscriber) Vars {
	return Vars{
		Email:        sub.Email,
		Source:       s.options.Source,
		SubmittedAt:  s.options.Now().In(s.options.Location).Format(SubmittedAtLayout),
		ContactEmail: s.options.InternalRecipient,
	}
}

// deliver renders the template and sends one message, recording the outcome.
func (s *service) deliver(ctx context.Context, name TemplateName, vars Vars, msg *mailer.Message) (mailer.Receipt, error) {
	html, err := s.templates.Render(name, vars)
	if err != nil {
		return mailer.Receipt{}, err
	}
	msg.HTML = html

	receipt, err := s.sender.Send(ctx, msg)
	if s.emails != nil {
		s.emails.Add(ctx, 1, metric.WithAttributes(
			attribute.String("template", string(name)),
			attribute.String("outcome", metrics.Outcome(err)),
		))
	}
	if err != nil {
		return mailer.Receipt{}, serrors.Wrap(serrors.ErrDelivery, err, "could not send %s email", name)
	}

	return receipt, nil
}

// Subscribe sends the internal alert and then the confirmation.
func (s *service) Subscribe(ctx context.Context, sub domain.Subscriber) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	ctx = logger.WithFields(ctx, zap.String("subscriber", logger.RedactEmail(sub.Email)))
	vars := s.vars(sub)

	receipt, err := s.deliver(ctx, TemplateInternalAlert, vars, &mailer.Message{
		To:      s.options.InternalRecipient,
		From:    s.options.From,
		ReplyTo: sub.Email,
		Subject: InternalSubject,
	})
	if err != nil {
		return fmt.Errorf("could not notify team: %w", err)
	}
	logger.Info(ctx, "internal notification sent",
		zap.String("to", s.options.InternalRecipient),
		zap.String("message_id", receipt.MessageID))

	receipt, err = s.deliver(ctx, TemplateConfirmation, vars, &mailer.Message{
		To:      sub.Email,
		From:    s.options.From,
		Subject: ConfirmationSubject,
	})
	if err != nil {
		return fmt.Errorf("could not confirm subscription: %w", err)
	}
	logger.Info(ctx, "confirmation email sent", zap.String("message_id", receipt.MessageID))

	return nil
}
