// Package observability provides the runner's metrics pipeline.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics collects tick, decision, and reaction counters. A zero-value or
// disabled collector is a safe no-op.
type Metrics struct {
	ticks             metric.Int64Counter
	tickFailures      metric.Int64Counter
	bindingsProcessed metric.Int64Counter
	bindingsErrored   metric.Int64Counter
	decisions         metric.Int64Counter
	reactionEvents    metric.Int64Counter
	decisionLatency   metric.Float64Histogram
}

// NewMetrics builds the collector backed by the Prometheus exporter. When
// disabled it returns an inert collector.
func NewMetrics(enabled bool) (*Metrics, error) {
	if !enabled {
		return &Metrics{}, nil
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("heartbeat")
	m := &Metrics{}

	if m.ticks, err = meter.Int64Counter(
		"heartbeat.ticks.total",
		metric.WithDescription("Completed scheduler cycles"),
		metric.WithUnit("{tick}"),
	); err != nil {
		return nil, fmt.Errorf("create ticks counter: %w", err)
	}

	if m.tickFailures, err = meter.Int64Counter(
		"heartbeat.ticks.failures",
		metric.WithDescription("Whole-cycle failures that triggered backoff"),
		metric.WithUnit("{tick}"),
	); err != nil {
		return nil, fmt.Errorf("create tick failures counter: %w", err)
	}

	if m.bindingsProcessed, err = meter.Int64Counter(
		"heartbeat.bindings.processed",
		metric.WithDescription("Bindings processed across both orchestrators"),
		metric.WithUnit("{binding}"),
	); err != nil {
		return nil, fmt.Errorf("create bindings counter: %w", err)
	}

	if m.bindingsErrored, err = meter.Int64Counter(
		"heartbeat.bindings.errored",
		metric.WithDescription("Bindings whose per-binding path failed"),
		metric.WithUnit("{binding}"),
	); err != nil {
		return nil, fmt.Errorf("create binding errors counter: %w", err)
	}

	if m.decisions, err = meter.Int64Counter(
		"heartbeat.decisions.total",
		metric.WithDescription("Validated decisions by action and mode"),
		metric.WithUnit("{decision}"),
	); err != nil {
		return nil, fmt.Errorf("create decisions counter: %w", err)
	}

	if m.reactionEvents, err = meter.Int64Counter(
		"heartbeat.reactions.events",
		metric.WithDescription("Reaction events handled"),
		metric.WithUnit("{event}"),
	); err != nil {
		return nil, fmt.Errorf("create reaction events counter: %w", err)
	}

	if m.decisionLatency, err = meter.Float64Histogram(
		"heartbeat.decision.latency",
		metric.WithDescription("Wall time of one decision round-trip"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("create decision latency histogram: %w", err)
	}

	return m, nil
}

// Handler serves the Prometheus scrape endpoint, or nil when disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.ticks == nil {
		return nil
	}
	return promhttp.Handler()
}

// RecordTick counts one completed scheduler cycle.
func (m *Metrics) RecordTick(ctx context.Context) {
	if m == nil || m.ticks == nil {
		return
	}
	m.ticks.Add(ctx, 1)
}

// RecordTickFailure counts one whole-cycle failure.
func (m *Metrics) RecordTickFailure(ctx context.Context) {
	if m == nil || m.tickFailures == nil {
		return
	}
	m.tickFailures.Add(ctx, 1)
}

// RecordBinding counts one processed binding and whether it errored.
func (m *Metrics) RecordBinding(ctx context.Context, mode string, errored bool) {
	if m == nil || m.bindingsProcessed == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.bindingsProcessed.Add(ctx, 1, attrs)
	if errored {
		m.bindingsErrored.Add(ctx, 1, attrs)
	}
}

// RecordDecision counts one validated decision and its latency.
func (m *Metrics) RecordDecision(ctx context.Context, mode, action string, elapsed time.Duration) {
	if m == nil || m.decisions == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("action", action),
	)
	m.decisions.Add(ctx, 1, attrs)
	m.decisionLatency.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}

// RecordReactionEvent counts one handled reaction event by type.
func (m *Metrics) RecordReactionEvent(ctx context.Context, eventType string) {
	if m == nil || m.reactionEvents == nil {
		return
	}
	m.reactionEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}
