package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"github.com/KOMKZ/go-yogan-asyncevent/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Component OpenTelemetry 组件
// 持有 MeterProvider / TracerProvider / MetricsRegistry，Stop 时刷新并关闭
type Component struct {
	config          Config
	logger          *logger.CtxZapLogger
	writer          io.Writer
	setGlobal       bool
	meterProvider   *sdkmetric.MeterProvider
	tracerProvider  *sdktrace.TracerProvider
	metricsRegistry *MetricsRegistry
}

// ComponentOption telemetry component options
type ComponentOption func(*Component)

// WithWriter stdout exporter 的输出目标（默认 os.Stdout）
func WithWriter(w io.Writer) ComponentOption {
	return func(c *Component) {
		c.writer = w
	}
}

// WithGlobal 是否注册为 otel 全局 provider（默认 true）
func WithGlobal(enabled bool) ComponentOption {
	return func(c *Component) {
		c.setGlobal = enabled
	}
}

// NewComponent 创建 Telemetry 组件
func NewComponent(opts ...ComponentOption) *Component {
	c := &Component{
		config:    DefaultConfig(),
		writer:    os.Stdout,
		setGlobal: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name 返回组件名称
func (c *Component) Name() string {
	return component.ComponentTelemetry
}

// DependsOn 返回依赖的组件
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
	}
}

// Init 初始化组件
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.logger = logger.GetLogger("telemetry")

	c.config = DefaultConfig()
	if loader != nil && loader.IsSet("telemetry") {
		if err := loader.Unmarshal("telemetry", &c.config); err != nil {
			c.logger.ErrorCtx(ctx, "telemetry config exists but unmarshal failed", zap.Error(err))
			return fmt.Errorf("unmarshal telemetry config failed: %w", err)
		}
	}
	c.config.ApplyDefaults()

	if err := validator.ValidateRequest(c.config); err != nil {
		return fmt.Errorf("validate telemetry config failed: %w", err)
	}

	if !c.config.Enabled {
		c.logger.InfoCtx(ctx, "OpenTelemetry is disabled")
		return nil
	}

	res, err := newResource(ctx, c.config)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}

	if c.config.Tracing.Enabled {
		tp, err := newTracerProvider(ctx, c.config, res, c.writer)
		if err != nil {
			return fmt.Errorf("create tracer provider failed: %w", err)
		}
		c.tracerProvider = tp
		if c.setGlobal {
			otel.SetTracerProvider(tp)
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			))
		}
	}

	if c.config.Metrics.Enabled {
		mp, err := newMeterProvider(ctx, c.config, res, c.writer)
		if err != nil {
			c.shutdownTracer(ctx)
			return fmt.Errorf("create meter provider failed: %w", err)
		}
		c.meterProvider = mp
		if c.setGlobal {
			otel.SetMeterProvider(mp)
		}
		c.metricsRegistry = NewMetricsRegistry(mp,
			WithNamespace(c.config.Metrics.Namespace),
			WithLogger(c.logger))
	}

	c.logger.InfoCtx(ctx, "✅ OpenTelemetry initialized",
		zap.String("service_name", c.config.ServiceName),
		zap.String("exporter_type", c.config.Exporter.Type),
		zap.Bool("tracing", c.config.Tracing.Enabled),
		zap.Bool("metrics", c.config.Metrics.Enabled))
	return nil
}

// Start 启动组件
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop 刷新并关闭 provider（可重复调用）
func (c *Component) Stop(ctx context.Context) error {
	var firstErr error
	if c.meterProvider != nil {
		if err := c.meterProvider.Shutdown(ctx); err != nil {
			c.logger.ErrorCtx(ctx, "Failed to shutdown metrics", zap.Error(err))
			firstErr = err
		}
		c.meterProvider = nil
	}
	if err := c.shutdownTracer(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (c *Component) shutdownTracer(ctx context.Context) error {
	if c.tracerProvider == nil {
		return nil
	}
	err := c.tracerProvider.Shutdown(ctx)
	if err != nil {
		c.logger.ErrorCtx(ctx, "Failed to shutdown tracer", zap.Error(err))
	}
	c.tracerProvider = nil
	return err
}

// MeterProvider 未启用 metrics 时返回 noop
func (c *Component) MeterProvider() metric.MeterProvider {
	if c.meterProvider == nil {
		return metricnoop.NewMeterProvider()
	}
	return c.meterProvider
}

// TracerProvider 未启用 tracing 时返回 noop
func (c *Component) TracerProvider() trace.TracerProvider {
	if c.tracerProvider == nil {
		return tracenoop.NewTracerProvider()
	}
	return c.tracerProvider
}

// MetricsRegistry 未启用 metrics 时为 nil
func (c *Component) MetricsRegistry() *MetricsRegistry {
	return c.metricsRegistry
}

// MetricsCollector 同 MetricsRegistry，未启用 metrics 时为 nil 接口
func (c *Component) MetricsCollector() component.MetricsCollector {
	if c.metricsRegistry == nil {
		return nil
	}
	return c.metricsRegistry
}

// IsEnabled 是否启用
func (c *Component) IsEnabled() bool {
	return c.config.Enabled
}

// IsTracingEnabled 是否启用链路追踪
func (c *Component) IsTracingEnabled() bool {
	return c.tracerProvider != nil
}

// Config 获取配置
func (c *Component) Config() Config {
	return c.config
}

// ForceFlush 立即导出已缓存的数据
func (c *Component) ForceFlush(ctx context.Context) error {
	if c.meterProvider != nil {
		if err := c.meterProvider.ForceFlush(ctx); err != nil {
			return err
		}
	}
	if c.tracerProvider != nil {
		return c.tracerProvider.ForceFlush(ctx)
	}
	return nil
}
