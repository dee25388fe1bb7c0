package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "dw-conformance-pipeline"
	ServiceVersion = "1.0.0"
	MeterName      = "dwcli"
)

// OTelProviders holds the OpenTelemetry providers and the Prometheus
// scrape handler backing /metrics.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Metrics        *PipelineMetrics
}

// PipelineMetrics holds the instruments recorded by the batch pipeline.
type PipelineMetrics struct {
	RunsTotal       metric.Int64Counter
	RowsWritten     metric.Int64Counter
	RuleViolations  metric.Int64Counter
	StageDuration   metric.Float64Histogram
}

// InitializeOTel sets up tracing (stdout exporter) and metrics backed by
// the Prometheus exporter.
func InitializeOTel(ctx context.Context, logger *slog.Logger) (*OTelProviders, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	promExporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(MeterName)
	metrics, err := newPipelineMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	logger.InfoContext(ctx, "observability initialized",
		slog.String("service", ServiceName),
		slog.String("version", ServiceVersion))

	return &OTelProviders{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Tracer:         tracerProvider.Tracer(MeterName),
		Meter:          meter,
		PrometheusHTTP: promhttp.Handler(),
		Metrics:        metrics,
	}, nil
}

func newPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	runs, err := meter.Int64Counter("pipeline_runs_total",
		metric.WithDescription("Completed pipeline runs by status"))
	if err != nil {
		return nil, err
	}
	rows, err := meter.Int64Counter("pipeline_rows_written_total",
		metric.WithDescription("Rows committed to the warehouse by target"))
	if err != nil {
		return nil, err
	}
	violations, err := meter.Int64Counter("quality_rule_violations_total",
		metric.WithDescription("Quality rule violations by rule"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("pipeline_stage_duration_seconds",
		metric.WithDescription("Stage execution duration in seconds"))
	if err != nil {
		return nil, err
	}
	return &PipelineMetrics{
		RunsTotal:      runs,
		RowsWritten:    rows,
		RuleViolations: violations,
		StageDuration:  duration,
	}, nil
}

// RecordStage records the duration of one completed stage.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stageID string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stageID)))
}

// RecordRun counts one finished run with its terminal status.
func (m *PipelineMetrics) RecordRun(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordRows counts rows committed to one warehouse target.
func (m *PipelineMetrics) RecordRows(ctx context.Context, target string, rows int) {
	if m == nil {
		return
	}
	m.RowsWritten.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("target", target)))
}

// RecordViolations counts violations reported by one quality rule.
func (m *PipelineMetrics) RecordViolations(ctx context.Context, rule string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.RuleViolations.Add(ctx, int64(count), metric.WithAttributes(attribute.String("rule", rule)))
}

// Shutdown flushes and stops both providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
