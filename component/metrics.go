package component

import (
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider 可选接口：组件通过它向 MetricsCollector 注册指标
//
//	func (m *EventMetrics) MetricsName() string { return "event" }
//
//	func (m *EventMetrics) RegisterMetrics(meter metric.Meter) error {
//	    m.invocations, err = meter.Int64Counter("event_invocations_total")
//	    ...
//	}
type MetricsProvider interface {
	// MetricsName 指标分组名（用于 Meter 命名），如 "event"
	MetricsName() string

	// RegisterMetrics 注册该组件的全部指标
	RegisterMetrics(meter metric.Meter) error

	// IsMetricsEnabled 是否启用
	IsMetricsEnabled() bool
}

// MetricsCollector 集中注册中心，由 telemetry.MetricsRegistry 实现
type MetricsCollector interface {
	// Register 为 provider 分配 Meter 并调用 RegisterMetrics
	Register(provider MetricsProvider) error

	// GetMeter 按组件名获取 Meter
	GetMeter(name string) metric.Meter
}
