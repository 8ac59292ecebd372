// Package notifyhandler implements the subscription endpoint: it decodes the
// subscriber, checks the delivery configuration and runs the subscription
// pipeline, answering with one of a fixed set of JSON bodies.
package notifyhandler

import (
	"fmt"
	"net/http"
	"notify/internal/config"
	"notify/internal/subscription"
	"notify/pkg/mailer"
	"notify/pkg/mailer/sendgrid"
	"notify/pkg/serrors"
)

// Deps are the collaborators of the handler.
type Deps struct {
	// NewSender builds the delivery client for a single request from the API key.
	NewSender func(apiKey string) mailer.Sender
	// Templates are the parsed email bodies.
	Templates *subscription.Templates
}

// NewDeps wires the SendGrid client factory and the embedded templates.
func NewDeps(cfg *config.Config) (Deps, error) {
	templates, err := subscription.DefaultTemplates()
	if err != nil {
		return Deps{}, fmt.Errorf("could not load templates: %w", err)
	}
	httpClient := &http.Client{Timeout: cfg.SendGrid.Timeout}
	baseURL := cfg.SendGrid.BaseURL

	return Deps{
		NewSender: func(apiKey string) mailer.Sender {
			return sendgrid.New(httpClient, baseURL, apiKey)
		},
		Templates: templates,
	}, nil
}

// Options hold the per-deployment settings of the handler.
type Options struct {
	// APIKey is the delivery API credential; empty means misconfigured.
	APIKey string
	// Subscription configures the content of both emails.
	Subscription subscription.Options
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) (Options, error) {
	subOpts, err := subscription.NewOptions(cfg)
	if err != nil {
		return Options{}, err //nolint: wrapcheck
	}

	return Options{
		APIKey:       cfg.SendGrid.APIKey,
		Subscription: subOpts,
	}, nil
}

// Handler serves POST requests carrying {"email": "..."}. CORS and preflight
// handling are left to controller.WithCORS.
type Handler struct {
	deps    Deps
	options Options
}

// Ensure Handler implements http.Handler.
var _ http.Handler = (*Handler)(nil)

// New creates a Handler.
func New(deps Deps, options Options) *Handler {
	return &Handler{deps: deps, options: options}
}

// ServeHTTP validates the request in order (method, body, configuration)
// before any email is sent, then runs the subscription pipeline.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		WriteError(ctx, w, serrors.With(serrors.ErrMethodNotAllowed, "method %s not allowed", r.Method))

		return
	}

	sub, err := decodeSubscriber(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		err = sub.Validate()
	}
	if err != nil {
		WriteError(ctx, w, err)

		return
	}

	if h.options.APIKey == "" {
		WriteError(ctx, w, serrors.With(serrors.ErrMisconfigured, "SENDGRID_API_KEY not set in environment variables"))

		return
	}

	// the delivery client is scoped to this request
	svc := subscription.New(h.deps.NewSender(h.options.APIKey), h.deps.Templates, h.options.Subscription)
	if err := svc.Subscribe(ctx, sub); err != nil {
		WriteError(ctx, w, err)

		return
	}

	writeJSON(w, http.StatusOK, encodeSuccess())
}
