package health

import (
	"context"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"github.com/KOMKZ/go-yogan-asyncevent/registry"
	"github.com/KOMKZ/go-yogan-asyncevent/validator"
	"go.uber.org/zap"
)

// Component 健康检查组件
// Start 时从 Registry 发现实现了 component.HealthCheckProvider 的组件
type Component struct {
	aggregator *Aggregator
	config     Config
	logger     *logger.CtxZapLogger
	registry   *registry.Registry
	metadata   map[string]interface{}
}

// ComponentOption 组件选项
type ComponentOption func(*Component)

// WithMetadata 附加到每次响应的元数据
func WithMetadata(key string, value interface{}) ComponentOption {
	return func(c *Component) {
		c.metadata[key] = value
	}
}

// NewComponent 创建健康检查组件
func NewComponent(opts ...ComponentOption) *Component {
	c := &Component{metadata: make(map[string]interface{})}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name 组件名称
func (c *Component) Name() string {
	return component.ComponentHealth
}

// DependsOn 依赖组件
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
		component.OptionalPrefix + component.ComponentEvent,
	}
}

// Init 初始化组件
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.logger = logger.GetLogger("health")

	c.config = DefaultConfig()
	if loader != nil && loader.IsSet("health") {
		if err := loader.Unmarshal("health", &c.config); err != nil {
			return fmt.Errorf("load health config: %w", err)
		}
	}
	c.config.ApplyDefaults()
	if err := validator.ValidateRequest(c.config); err != nil {
		return fmt.Errorf("invalid health config: %w", err)
	}

	if !c.config.Enabled {
		c.logger.InfoCtx(ctx, "⏭️ 健康检查已禁用")
		return nil
	}

	c.aggregator = NewAggregator(c.config.Timeout)
	for k, v := range c.metadata {
		c.aggregator.SetMetadata(k, v)
	}

	c.logger.DebugCtx(ctx, "✅ 健康检查组件初始化完成", zap.Duration("timeout", c.config.Timeout))
	return nil
}

// Start 发现并注册检查器
func (c *Component) Start(ctx context.Context) error {
	if c.aggregator == nil || c.registry == nil {
		return nil
	}

	comps, err := c.registry.Resolve()
	if err != nil {
		return err
	}
	for _, comp := range comps {
		provider, ok := comp.(component.HealthCheckProvider)
		if !ok {
			continue
		}
		if checker := provider.GetHealthChecker(); checker != nil {
			c.aggregator.Register(checker)
			c.logger.DebugCtx(ctx, "注册健康检查项", zap.String("name", checker.Name()))
		}
	}
	return nil
}

// Stop 停止组件
func (c *Component) Stop(ctx context.Context) error {
	return nil
}

// SetRegistry 设置 Registry
func (c *Component) SetRegistry(r *registry.Registry) {
	c.registry = r
}

// GetAggregator 获取聚合器，禁用时为 nil
func (c *Component) GetAggregator() *Aggregator {
	return c.aggregator
}

// IsEnabled 是否启用
func (c *Component) IsEnabled() bool {
	return c.config.Enabled
}

// Check 执行健康检查
// 禁用时返回 healthy 且 metadata.enabled=false
func (c *Component) Check(ctx context.Context) *Response {
	if c.aggregator == nil {
		return &Response{
			Status:    StatusHealthy,
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckResult),
			Metadata:  map[string]interface{}{"enabled": false},
		}
	}
	return c.aggregator.Check(ctx)
}
