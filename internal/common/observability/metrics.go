package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the OpenTelemetry meter and tracer providers for one process.
type Observability struct {
	meterProvider   *metric.MeterProvider
	tracerProvider  *sdktrace.TracerProvider
	meter           otelmetric.Meter
	roundCounter    otelmetric.Int64Counter
	sessionCounter  otelmetric.Int64Counter
	sessionDuration otelmetric.Float64Histogram
}

type options struct {
	registerer     promclient.Registerer
	spanProcessors []sdktrace.SpanProcessor
	setGlobal      bool
}

type Option func(*options)

// WithRegisterer sends otel metrics to reg instead of the default Prometheus registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanProcessor attaches a span processor to the tracer provider.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

// WithGlobal installs the providers as the otel globals.
func WithGlobal() Option {
	return func(o *options) { o.setGlobal = true }
}

func New(serviceName string, opts ...Option) (*Observability, error) {
	o := &options{registerer: promclient.DefaultRegisterer}
	for _, opt := range opts {
		opt(o)
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(o.registerer))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, sp := range o.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)

	if o.setGlobal {
		otel.SetMeterProvider(meterProvider)
		otel.SetTracerProvider(tracerProvider)
	}

	meter := meterProvider.Meter(serviceName)

	roundCounter, err := meter.Int64Counter(
		"quiz.rounds",
		otelmetric.WithDescription("Number of answered question rounds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rounds counter: %w", err)
	}

	sessionCounter, err := meter.Int64Counter(
		"quiz.sessions",
		otelmetric.WithDescription("Number of sessions that reached a terminal phase"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions counter: %w", err)
	}

	sessionDuration, err := meter.Float64Histogram(
		"quiz.session.duration",
		otelmetric.WithDescription("Time from start to terminal phase"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session duration histogram: %w", err)
	}

	return &Observability{
		meterProvider:   meterProvider,
		tracerProvider:  tracerProvider,
		meter:           meter,
		roundCounter:    roundCounter,
		sessionCounter:  sessionCounter,
		sessionDuration: sessionDuration,
	}, nil
}

// TracerProvider returns the provider transport spans are created from.
func (o *Observability) TracerProvider() trace.TracerProvider {
	return o.tracerProvider
}

func (o *Observability) RecordRound(ctx context.Context, stage string) {
	if o.roundCounter != nil {
		o.roundCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("stage", stage),
		))
	}
}

func (o *Observability) RecordSession(ctx context.Context, duration time.Duration, outcome string) {
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	if o.sessionCounter != nil {
		o.sessionCounter.Add(ctx, 1, attrs)
	}
	if o.sessionDuration != nil {
		o.sessionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
}
