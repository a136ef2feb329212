package config

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
)

// Component 配置组件，同时实现 component.ConfigLoader
// 其他组件 Init 时拿到的 loader 就是它
type Component struct {
	*Loader
	builder *LoaderBuilder
}

// NewComponent 由构建器创建配置组件，Init 时才真正加载
func NewComponent(builder *LoaderBuilder) *Component {
	if builder == nil {
		builder = NewLoaderBuilder()
	}
	return &Component{builder: builder}
}

// NewComponentFromLoader 复用已加载好的 Loader
func NewComponentFromLoader(loader *Loader) *Component {
	return &Component{Loader: loader}
}

func (c *Component) Name() string {
	return component.ComponentConfig
}

// DependsOn 配置组件无依赖
func (c *Component) DependsOn() []string {
	return nil
}

// Init 加载配置，loader 参数忽略
func (c *Component) Init(ctx context.Context, _ component.ConfigLoader) error {
	if c.Loader != nil {
		return nil
	}
	loader, err := c.builder.Build()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	c.Loader = loader
	return nil
}

func (c *Component) Start(ctx context.Context) error { return nil }
func (c *Component) Stop(ctx context.Context) error  { return nil }

var _ component.ConfigLoader = (*Component)(nil)
