package server

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

//go:embed views/*.html
var viewsFS embed.FS

// Workflows is the part of cleanup.Service the HTTP surface drives.
type Workflows interface {
	Quarantine(ctx context.Context, req cleanup.QuarantineRequest) (*cleanup.QuarantineResult, error)
	Restore(ctx context.Context, req cleanup.RestoreRequest) (*cleanup.RestoreResult, error)
}

type Option func(*options)

type options struct {
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// New builds the fiber app serving the cleanup API and the index page.
func New(workflows Workflows, opts ...Option) (*fiber.App, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(views), ".html")

	app := fiber.New(fiber.Config{
		Views:                 engine,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(o.logger),
	})

	otelOpts := []otelfiber.Option{}
	if o.tracerProvider != nil {
		otelOpts = append(otelOpts, otelfiber.WithTracerProvider(o.tracerProvider))
	}
	if o.meterProvider != nil {
		otelOpts = append(otelOpts, otelfiber.WithMeterProvider(o.meterProvider))
	}
	app.Use(recover.New())
	app.Use(otelfiber.Middleware(otelOpts...))

	h := &handlers{workflows: workflows, logger: o.logger}
	app.Get("/", h.Home)
	app.Get("/healthz", h.Health)

	api := app.Group("/api")
	api.Post("/cleanup", h.Cleanup)
	api.Post("/undo", h.Undo)

	app.Use(h.NotFound)
	return app, nil
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
		}
		return c.Status(code).JSON(fiber.Map{
			"status": "error",
			"error":  err.Error(),
			"kind":   string(cleanup.KindInternal),
		})
	}
}
