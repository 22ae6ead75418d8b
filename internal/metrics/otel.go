package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	OtlpEndpoint string
	OtlpInsecure bool
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and an optional OTLP
// exporter. It returns a Recorder, the /metrics handler and a shutdown function.
// When telemetry is disabled the handler is nil.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "scoreboard-api"
	}

	reg := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []sdkmetric.Option{sdkmetric.WithReader(promExp)}

	if cfg.OtlpEndpoint != "" {
		otlpOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OtlpEndpoint)}
		if cfg.OtlpInsecure {
			otlpOpts = append(otlpOpts, otlpmetrichttp.WithInsecure())
		}
		otlpExp, err := otlpmetrichttp.New(ctx, otlpOpts...)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(otlpExp, sdkmetric.WithInterval(15*time.Second))))
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, nil, nil, err
	}
	opts = append(opts, sdkmetric.WithResource(res))

	provider := sdkmetric.NewMeterProvider(opts...)
	inst, err := newOtelInstruments(provider, cfg.ServiceName)
	if err != nil {
		return nil, nil, nil, err
	}

	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return newRecorder(inst), handler, provider.Shutdown, nil
}

type otelInstruments struct {
	ctx              context.Context
	requests         metric.Int64Counter
	requestLatencyMs metric.Float64Histogram
	commands         metric.Int64Counter
	commandErrors    metric.Int64Counter
	commandLatencyMs metric.Float64Histogram
	relayCycles      metric.Int64Counter
	relayPublished   metric.Int64Counter
	relayErrors      metric.Int64Counter
}

func newOtelInstruments(provider metric.MeterProvider, name string) (*otelInstruments, error) {
	meter := provider.Meter(name)

	requests, err := meter.Int64Counter("http_requests_total")
	if err != nil {
		return nil, err
	}
	requestLatency, err := meter.Float64Histogram("http_request_duration_ms")
	if err != nil {
		return nil, err
	}
	commands, err := meter.Int64Counter("scoreboard_commands_total")
	if err != nil {
		return nil, err
	}
	commandErrors, err := meter.Int64Counter("scoreboard_command_errors_total")
	if err != nil {
		return nil, err
	}
	commandLatency, err := meter.Float64Histogram("scoreboard_command_duration_ms")
	if err != nil {
		return nil, err
	}
	relayCycles, err := meter.Int64Counter("outbox_relay_cycles_total")
	if err != nil {
		return nil, err
	}
	relayPublished, err := meter.Int64Counter("outbox_events_published_total")
	if err != nil {
		return nil, err
	}
	relayErrors, err := meter.Int64Counter("outbox_relay_errors_total")
	if err != nil {
		return nil, err
	}

	return &otelInstruments{
		ctx:              context.Background(),
		requests:         requests,
		requestLatencyMs: requestLatency,
		commands:         commands,
		commandErrors:    commandErrors,
		commandLatencyMs: commandLatency,
		relayCycles:      relayCycles,
		relayPublished:   relayPublished,
		relayErrors:      relayErrors,
	}, nil
}

func (o *otelInstruments) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrMethod, method),
		attribute.String(AttrPath, path),
		attribute.Int(AttrStatus, status),
	)
	o.requests.Add(o.ctx, 1, attrs)
	o.requestLatencyMs.Record(o.ctx, float64(duration.Milliseconds()), attrs)
}

func (o *otelInstruments) recordCommand(command string, duration time.Duration, code string) {
	attrs := metric.WithAttributes(attribute.String(AttrCommand, command))
	o.commands.Add(o.ctx, 1, attrs)
	o.commandLatencyMs.Record(o.ctx, float64(duration.Milliseconds()), attrs)
	if code != "" {
		o.commandErrors.Add(o.ctx, 1, metric.WithAttributes(
			attribute.String(AttrCommand, command),
			attribute.String(AttrCode, code),
		))
	}
}

func (o *otelInstruments) recordRelay(published int, _ time.Duration, err error) {
	o.relayCycles.Add(o.ctx, 1)
	if published > 0 {
		o.relayPublished.Add(o.ctx, int64(published))
	}
	if err != nil {
		o.relayErrors.Add(o.ctx, 1)
	}
}
