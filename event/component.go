package event

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"github.com/KOMKZ/go-yogan-asyncevent/validator"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultStopTimeout  = 5 * time.Second
	instrumentationName = "github.com/KOMKZ/go-yogan-asyncevent/event"
)

// Component 事件组件
// Owns the async pool and the shared Invoker; sources built with NewComponentSource use both.
type Component struct {
	invoker        *Invoker
	pool           atomic.Pointer[ants.Pool] // Stop 与健康检查并发读写
	metrics        *EventMetrics
	meterProvider  metric.MeterProvider
	collector      component.MetricsCollector
	tracerProvider trace.TracerProvider
	telemetry      TelemetrySource
	logger         *logger.CtxZapLogger
	config         Config
}

// ComponentOption component options
type ComponentOption func(*Component)

// TelemetrySource providers read during Init, after the telemetry component itself was initialized
// *telemetry.Component implements it.
type TelemetrySource interface {
	IsEnabled() bool
	TracerProvider() trace.TracerProvider
	MetricsCollector() component.MetricsCollector
}

// WithTelemetry takes tracer provider and metrics collector from a telemetry component
// Explicit WithTracerProvider / WithMetricsCollector win.
func WithTelemetry(t TelemetrySource) ComponentOption {
	return func(c *Component) {
		c.telemetry = t
	}
}

// WithMeterProvider sets the meter provider used when metrics are enabled
// Defaults to the global otel provider.
func WithMeterProvider(mp metric.MeterProvider) ComponentOption {
	return func(c *Component) {
		c.meterProvider = mp
	}
}

// WithMetricsCollector registers EventMetrics through a shared collector
// Takes precedence over WithMeterProvider.
func WithMetricsCollector(mc component.MetricsCollector) ComponentOption {
	return func(c *Component) {
		c.collector = mc
	}
}

// WithTracerProvider sets the tracer provider used when tracing is enabled
// Defaults to the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) ComponentOption {
	return func(c *Component) {
		c.tracerProvider = tp
	}
}

// NewComponent 创建事件组件
func NewComponent(opts ...ComponentOption) *Component {
	c := &Component{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name 返回组件名称
func (c *Component) Name() string {
	return component.ComponentEvent
}

// DependsOn 返回依赖的组件
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
		component.OptionalPrefix + component.ComponentTelemetry,
	}
}

// Init 初始化组件
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.logger = logger.GetLogger("event")
	c.logger.DebugCtx(ctx, "🔧 事件组件开始初始化...")

	c.config = DefaultConfig()
	if loader != nil && loader.IsSet("event") {
		if err := loader.Unmarshal("event", &c.config); err != nil {
			return fmt.Errorf("load event config: %w", err)
		}
	} else {
		c.logger.DebugCtx(ctx, "使用默认事件配置")
	}
	c.config.ApplyDefaults()

	if err := validator.ValidateRequest(c.config); err != nil {
		return ErrInvalidConfig.Wrap(err)
	}

	if !c.config.Enabled {
		c.logger.InfoCtx(ctx, "⏭️ 事件组件已禁用")
		return nil
	}

	c.resolveTelemetry()

	pool, err := ants.NewPool(c.config.PoolSize)
	if err != nil {
		return ErrPoolUnavailable.Wrap(err)
	}
	c.pool.Store(pool)

	invokerOpts := []InvokerOption{WithLogger(c.logger)}
	if c.config.Metrics {
		if err := c.initMetrics(); err != nil {
			c.pool.Swap(nil).Release()
			return fmt.Errorf("register event metrics: %w", err)
		}
		invokerOpts = append(invokerOpts, WithMetrics(c.metrics))
	}
	if c.config.Tracing {
		tp := c.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		invokerOpts = append(invokerOpts, WithTracer(tp.Tracer(instrumentationName)))
	}
	c.invoker = NewInvoker(invokerOpts...)

	c.logger.InfoCtx(ctx, "✅ 事件组件初始化完成",
		zap.Int("pool_size", c.config.PoolSize),
		zap.String("default_options", c.config.InvokeOptions().String()),
		zap.Bool("metrics", c.config.Metrics),
		zap.Bool("tracing", c.config.Tracing))
	return nil
}

func (c *Component) resolveTelemetry() {
	if c.telemetry == nil || !c.telemetry.IsEnabled() {
		return
	}
	if c.tracerProvider == nil {
		c.tracerProvider = c.telemetry.TracerProvider()
	}
	if c.collector == nil {
		c.collector = c.telemetry.MetricsCollector()
	}
}

func (c *Component) initMetrics() error {
	c.metrics = NewEventMetrics(EventMetricsConfig{Enabled: true, RecordPending: true})
	pool := c.pool.Load()
	c.metrics.SetPendingCallback(func() int64 {
		return int64(pool.Running())
	})

	if c.collector != nil {
		return c.collector.Register(c.metrics)
	}
	mp := c.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	return c.metrics.RegisterMetrics(mp.Meter(instrumentationName))
}

// Start 启动组件
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop 停止组件
// Waits for running async raises (bounded by the ctx deadline, 5s otherwise) before releasing the pool.
func (c *Component) Stop(ctx context.Context) error {
	pool := c.pool.Swap(nil)
	if pool == nil {
		return nil
	}

	timeout := defaultStopTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := pool.ReleaseTimeout(timeout); err != nil {
		c.logger.WarnCtx(ctx, "事件协程池释放超时", zap.Int("running", pool.Running()), zap.Error(err))
	}

	c.logger.InfoCtx(ctx, "✅ 事件组件已停止")
	return nil
}

// Invoker returns the shared invoker, nil before Init or when disabled
func (c *Component) Invoker() *Invoker {
	return c.invoker
}

// Pool returns the async pool, nil before Init or when disabled
func (c *Component) Pool() *ants.Pool {
	return c.pool.Load()
}

// Config returns the loaded configuration
func (c *Component) Config() Config {
	return c.config
}

// Metrics returns the metrics recorder, nil when metrics are disabled
func (c *Component) Metrics() *EventMetrics {
	return c.metrics
}

// IsEnabled 是否启用
func (c *Component) IsEnabled() bool {
	return c.config.Enabled && c.invoker != nil
}

// NewComponentSource creates a Source wired to the component's invoker, pool and default options
// Extra options are applied after the component's and may override them.
func NewComponentSource[T any](c *Component, opts ...SourceOption) *Source[T] {
	base := make([]SourceOption, 0, len(opts)+3)
	if c != nil && c.IsEnabled() {
		base = append(base,
			WithInvoker(c.invoker),
			WithPool(c.pool.Load()),
			WithDefaultOptions(c.config.InvokeOptions()),
		)
	}
	return NewSource[T](append(base, opts...)...)
}
