package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aaronromeo/mailtrim/internal/config"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	lognoop "go.opentelemetry.io/otel/log/noop"
	otelmetric "go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/encoding/gzip"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"

	serviceVersion = "1.0.0"
	grpcPort       = 4317
)

// Providers are the configured OpenTelemetry providers. They are also installed
// as the otel globals.
type Providers struct {
	TracerProvider oteltrace.TracerProvider
	MeterProvider  otelmetric.MeterProvider
	LoggerProvider otellog.LoggerProvider

	shutdownFuncs []func(context.Context) error
}

// Enabled reports whether log records should be bridged to the logger provider.
func (p *Providers) Enabled() bool {
	return len(p.shutdownFuncs) > 0
}

// Shutdown flushes and stops every provider. It is safe to call more than once.
func (p *Providers) Shutdown(ctx context.Context) error {
	var err error
	for _, fn := range p.shutdownFuncs {
		err = errors.Join(err, fn(ctx))
	}
	p.shutdownFuncs = nil
	return err
}

type setupOptions struct {
	logWriter io.Writer
}

type Option func(*setupOptions)

// WithLogWriter sends the stdout exporter's records to w.
func WithLogWriter(w io.Writer) Option {
	return func(o *setupOptions) {
		o.logWriter = w
	}
}

// Setup bootstraps the OpenTelemetry pipeline for the configured exporter.
// If it does not return an error, make sure to call Shutdown.
func Setup(ctx context.Context, cfg config.Telemetry, opts ...Option) (providers *Providers, err error) {
	options := setupOptions{logWriter: os.Stdout}
	for _, opt := range opts {
		opt(&options)
	}

	providers = &Providers{
		TracerProvider: tracenoop.NewTracerProvider(),
		MeterProvider:  metricnoop.NewMeterProvider(),
		LoggerProvider: lognoop.NewLoggerProvider(),
	}

	exporter := cfg.Exporter
	if exporter == "" {
		exporter = ExporterNone
	}
	if exporter == ExporterNone {
		return providers, nil
	}
	if exporter != ExporterStdout && exporter != ExporterOTLP {
		return nil, fmt.Errorf("unsupported telemetry exporter %q", exporter)
	}

	handleErr := func(inErr error) {
		err = errors.Join(inErr, providers.Shutdown(ctx))
		providers = nil
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "mailtrim"
	}
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		))
	if err != nil {
		handleErr(err)
		return
	}

	tracerProvider, err := newTraceProvider(ctx, exporter, cfg, res)
	if err != nil {
		handleErr(err)
		return
	}
	providers.shutdownFuncs = append(providers.shutdownFuncs, tracerProvider.Shutdown)
	providers.TracerProvider = tracerProvider
	otel.SetTracerProvider(tracerProvider)

	meterProvider, err := newMeterProvider(ctx, exporter, cfg, res)
	if err != nil {
		handleErr(err)
		return
	}
	providers.shutdownFuncs = append(providers.shutdownFuncs, meterProvider.Shutdown)
	providers.MeterProvider = meterProvider
	otel.SetMeterProvider(meterProvider)

	loggerProvider, err := newLoggerProvider(ctx, exporter, cfg, res, options.logWriter)
	if err != nil {
		handleErr(err)
		return
	}
	providers.shutdownFuncs = append(providers.shutdownFuncs, loggerProvider.Shutdown)
	providers.LoggerProvider = loggerProvider
	global.SetLoggerProvider(loggerProvider)

	return providers, nil
}

// newTraceProvider exports spans over OTLP/HTTP. The stdout exporter keeps spans
// in process so trace IDs still reach the log records.
func newTraceProvider(ctx context.Context, exporter string, cfg config.Telemetry, res *resource.Resource) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithIDGenerator(xray.NewIDGenerator()),
	}
	if exporter == ExporterOTLP {
		traceExporter, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(cfg.Endpoint),
			otlptracehttp.WithHeaders(cfg.Headers),
			otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithBatcher(traceExporter, trace.WithBatchTimeout(time.Second)))
	}
	return trace.NewTracerProvider(opts...), nil
}

func preferDeltaTemporalitySelector(kind metric.InstrumentKind) metricdata.Temporality {
	switch kind {
	case metric.InstrumentKindCounter,
		metric.InstrumentKindObservableCounter,
		metric.InstrumentKindHistogram:
		return metricdata.DeltaTemporality
	default:
		return metricdata.CumulativeTemporality
	}
}

func newMeterProvider(ctx context.Context, exporter string, cfg config.Telemetry, res *resource.Resource) (*metric.MeterProvider, error) {
	opts := []metric.Option{metric.WithResource(res)}
	if exporter == ExporterOTLP {
		metricExporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(fmt.Sprintf("%s:%d", cfg.Endpoint, grpcPort)),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
			otlpmetricgrpc.WithCompressor(gzip.Name),
			otlpmetricgrpc.WithTemporalitySelector(preferDeltaTemporalitySelector),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, metric.WithReader(metric.NewPeriodicReader(
			metricExporter,
			metric.WithInterval(15*time.Second),
		)))
	}
	return metric.NewMeterProvider(opts...), nil
}

func newLoggerProvider(ctx context.Context, exporter string, cfg config.Telemetry, res *resource.Resource, w io.Writer) (*log.LoggerProvider, error) {
	var logExporter log.Exporter
	var err error
	switch exporter {
	case ExporterOTLP:
		logExporter, err = otlploghttp.New(ctx,
			otlploghttp.WithEndpoint(cfg.Endpoint),
			otlploghttp.WithHeaders(cfg.Headers),
			otlploghttp.WithCompression(otlploghttp.GzipCompression),
		)
	default:
		logExporter, err = stdoutlog.New(stdoutlog.WithWriter(w))
	}
	if err != nil {
		return nil, err
	}

	return log.NewLoggerProvider(
		log.WithResource(res),
		log.WithProcessor(log.NewBatchProcessor(logExporter)),
	), nil
}
