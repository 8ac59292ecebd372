// Package api configures and exposes the HTTP server, routes,
// metrics, docs and related middleware for the notify service.
package api

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"notify/internal/api/handler/notifyhandler"
	"notify/internal/config"
	"notify/pkg/controller"
	"notify/pkg/logger"
	"notify/pkg/serrors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// v1Spec contains the embedded OpenAPI description of the notify endpoint.
//
//go:embed specs/v1.yaml
var v1Spec []byte

// setupMeterProvider installs the otel Prometheus exporter as the global
// meter provider. The exporter registers into the default Prometheus
// registry, which accepts it only once per process.
var setupMeterProvider = sync.OnceValue(func() error { //nolint: gochecknoglobals
	exp, err := otelprom.New(otelprom.WithRegisterer(prometheus.DefaultRegisterer))
	if err != nil {
		return fmt.Errorf("could not create otel exporter: %w", err)
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)))

	return nil
})

// Options holds configuration for the HTTP server and its dependencies.
// It is typically created from a config.Config via NewOptions.
// All durations are used to configure server timeouts, and zero values
// should be considered as using the defaults provided by net/http where applicable.
type Options struct {
	// Notify configures the subscription endpoint.
	Notify notifyhandler.Options

	// Addr is the TCP address the server listens on, e.g. ":8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// RequestTimeout bounds the context of every request; handlers answer with
	// their own error response once it expires.
	RequestTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
	// NotifyPath is the HTTP path of the subscription endpoint.
	NotifyPath string
	// PprofEnabled mounts the profiling endpoints under /debug/pprof/.
	PprofEnabled bool
}

// NewOptions constructs an Options value from the provided application configuration.
// It maps HTTP server-related settings from config.Config to the Options used by the API server.
func NewOptions(cfg *config.Config) (Options, error) {
	notifyOpts, err := notifyhandler.NewOptions(cfg)
	if err != nil {
		return Options{}, fmt.Errorf("could not create notify handler options: %w", err)
	}

	return Options{
		Notify: notifyOpts,

		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
		NotifyPath:        cfg.HTTP.NotifyPath,
		PprofEnabled:      cfg.HTTP.PprofEnabled,
	}, nil
}

type Deps struct {
	notifyhandler.Deps
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
// It sets up:
// - Prometheus metrics endpoint (MetricsPath)
// - OpenTelemetry metrics exporter (Prometheus), installed as the global meter provider
// - Embedded OpenAPI v1 spec and Swagger UI
// - the subscription endpoint (NotifyPath)
// - pprof endpoints for profiling, when enabled
// It also wraps the mux with request timeout, CORS and logging middlewares.
func NewServer(deps Deps, opts Options) (*http.Server, error) {
	mux := http.NewServeMux()

	// prometheus metrics server
	mux.Handle(opts.MetricsPath, promhttp.Handler())

	// otel
	if err := setupMeterProvider(); err != nil {
		return nil, err
	}

	// v1 specs file
	mux.HandleFunc("/specs/v1.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(v1Spec)
	})
	// api swagger playground
	mux.Handle("/docs/", v5emb.New(
		"Notify Service",
		"/specs/v1.yaml",
		"/docs/",
	))

	// subscription endpoint
	mux.Handle(opts.NotifyPath, notifyhandler.New(deps.Deps, opts.Notify))

	// pprof
	if opts.PprofEnabled {
		mux.Handle(controller.PprofPrefix, controller.PprofMux())
	}

	// timeout, inside cors so timed out responses keep the cors headers
	handler := controller.WithTimeout(opts.RequestTimeout, mux)

	// cors
	handler = controller.WithCORS(handler)

	// logger
	handler = controller.WithLogger(handler)

	ctx := context.Background()

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
		ErrorLog:          logger.StdLogger(ctx, slog.LevelWarn),
	}, nil
}

// NewNotifyHandler builds the subscription endpoint as a standalone handler
// wrapped in the CORS and logging middlewares. Serverless entrypoints call it
// on every invocation with freshly read configuration. Configuration errors
// are answered per request instead of failing the invocation.
func NewNotifyHandler(cfg *config.Config) http.Handler {
	var handler http.Handler
	deps, err := notifyhandler.NewDeps(cfg)
	if err == nil {
		var opts notifyhandler.Options
		opts, err = notifyhandler.NewOptions(cfg)
		if err == nil {
			handler = notifyhandler.New(deps, opts)
		}
	}
	if err != nil {
		handler = notifyhandler.Fail(err)
	}

	return controller.WithLogger(controller.WithCORS(handler))
}

// NewNotifyHandlerFromEnv reads the configuration from the environment and
// builds the subscription endpoint. It never caches the result, so secrets
// rotated between invocations are picked up.
func NewNotifyHandlerFromEnv() http.Handler {
	cfg, err := config.FromEnv()
	if err != nil {
		return controller.WithLogger(controller.WithCORS(notifyhandler.Fail(
			serrors.Wrap(serrors.ErrMisconfigured, err, "could not read configuration"))))
	}

	return NewNotifyHandler(cfg)
}
