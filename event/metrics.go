package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventMetricsConfig holds configuration for Event metrics
type EventMetricsConfig struct {
	Enabled       bool
	RecordPending bool
}

// EventMetrics records invocation outcomes through an OpenTelemetry Meter.
type EventMetrics struct {
	config     EventMetricsConfig
	meter      metric.Meter
	registered atomic.Bool
	mu         sync.RWMutex

	// Metrics instruments
	invocations     metric.Int64Counter         // Invocations by strategy and outcome
	handlerResults  metric.Int64Counter         // Handler executions by result
	handlersSkipped metric.Int64Counter         // Handlers never started (fail-fast)
	invokeDuration  metric.Float64Histogram     // Invocation duration
	invokeFanout    metric.Int64Histogram       // Handlers per invocation
	pendingAsync    metric.Int64ObservableGauge // Running async raises (optional)
	pendingCallback func() int64
}

// NewEventMetrics creates a new Event metrics provider
func NewEventMetrics(cfg EventMetricsConfig) *EventMetrics {
	return &EventMetrics{
		config: cfg,
	}
}

// MetricsName returns the metrics group name
func (m *EventMetrics) MetricsName() string {
	return "event"
}

// IsMetricsEnabled returns whether metrics collection is enabled
func (m *EventMetrics) IsMetricsEnabled() bool {
	return m.config.Enabled
}

// RegisterMetrics registers all Event metrics with the provided Meter
func (m *EventMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered.Load() {
		return nil
	}

	m.meter = meter
	var err error

	m.invocations, err = meter.Int64Counter(
		"event_invocations_total",
		metric.WithDescription("Total number of async event invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return err
	}

	m.handlerResults, err = meter.Int64Counter(
		"event_handler_results_total",
		metric.WithDescription("Total number of handler executions by result"),
		metric.WithUnit("{handler}"),
	)
	if err != nil {
		return err
	}

	m.handlersSkipped, err = meter.Int64Counter(
		"event_handlers_skipped_total",
		metric.WithDescription("Handlers not started because of fail-fast"),
		metric.WithUnit("{handler}"),
	)
	if err != nil {
		return err
	}

	m.invokeDuration, err = meter.Float64Histogram(
		"event_invoke_duration_seconds",
		metric.WithDescription("Async event invocation duration distribution"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.invokeFanout, err = meter.Int64Histogram(
		"event_invoke_handlers",
		metric.WithDescription("Number of handlers per invocation"),
		metric.WithUnit("{handler}"),
	)
	if err != nil {
		return err
	}

	if m.config.RecordPending {
		m.pendingAsync, err = meter.Int64ObservableGauge(
			"event_async_pending",
			metric.WithDescription("Async raises currently running on the pool"),
			metric.WithUnit("{invocation}"),
			metric.WithInt64Callback(m.collectPending),
		)
		if err != nil {
			return err
		}
	}

	m.registered.Store(true)
	return nil
}

func (m *EventMetrics) collectPending(_ context.Context, observer metric.Int64Observer) error {
	m.mu.RLock()
	cb := m.pendingCallback
	m.mu.RUnlock()
	if cb != nil {
		observer.Observe(cb())
	}
	return nil
}

// SetPendingCallback sets the callback reporting running async raises
func (m *EventMetrics) SetPendingCallback(callback func() int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingCallback = callback
}

// RecordInvoked records one finished invocation
func (m *EventMetrics) RecordInvoked(ctx context.Context, strategy, outcome string, handlers int, duration time.Duration) {
	if !m.registered.Load() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("outcome", outcome),
	)

	m.invocations.Add(ctx, 1, attrs)
	m.invokeDuration.Record(ctx, duration.Seconds(), attrs)
	m.invokeFanout.Record(ctx, int64(handlers), metric.WithAttributes(attribute.String("strategy", strategy)))
}

// RecordHandled records one handler execution
func (m *EventMetrics) RecordHandled(ctx context.Context, strategy, result string) {
	if !m.registered.Load() {
		return
	}

	m.handlerResults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("result", result),
	))
}

// RecordSkipped records handlers that never started
func (m *EventMetrics) RecordSkipped(ctx context.Context, strategy string, n int) {
	if !m.registered.Load() || n <= 0 {
		return
	}

	m.handlersSkipped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("strategy", strategy)))
}

// IsRegistered returns whether metrics have been registered
func (m *EventMetrics) IsRegistered() bool {
	return m.registered.Load()
}
