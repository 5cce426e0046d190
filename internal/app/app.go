package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/vk/plangraph/internal/ctxlog"
	"github.com/vk/plangraph/internal/metrics"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	ctx     context.Context
	logger  *slog.Logger
	config  *Config
	metrics *metrics.Recorder
	tracer  trace.TracerProvider

	httpServer *http.Server
}

// Option customizes an App.
type Option func(*App)

// WithTracerProvider makes store reads emit spans on tp. The global provider
// is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(a *App) {
		a.tracer = tp
	}
}

// NewApp is the constructor for the main application. Results are written to
// outW and logs to logW, each App with its own logger and metrics registry.
func NewApp(outW, logW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, cfg.Command, logW)
	a := &App{
		outW:    outW,
		ctx:     ctxlog.WithLogger(context.Background(), logger),
		logger:  logger,
		config:  cfg,
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	logger.Debug("Logger configured successfully.")
	return a
}

// Metrics returns the application's metrics recorder. This is primarily for
// testing.
func (a *App) Metrics() *metrics.Recorder {
	return a.metrics
}
