package logger

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"go.uber.org/zap"
)

// Configure 用 cfg 初始化（或重载）全局 Manager
func Configure(cfg ManagerConfig) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("logger config invalid: %w", err)
	}
	InitManager(cfg)
	return globalManager.ReloadConfig(cfg)
}

// Component 日志组件（核心组件）
// Init 时读取 "logger" 配置段并重建全局 Manager
type Component struct {
	config ManagerConfig
}

// NewComponent 创建日志组件
func NewComponent() *Component {
	return &Component{config: DefaultManagerConfig()}
}

func (c *Component) Name() string {
	return component.ComponentLogger
}

func (c *Component) DependsOn() []string {
	return []string{component.ComponentConfig}
}

// Init 初始化全局 Manager
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	cfg := DefaultManagerConfig()
	if loader != nil && loader.IsSet("logger") {
		if err := loader.Unmarshal("logger", &cfg); err != nil {
			return fmt.Errorf("load logger config: %w", err)
		}
	}
	if err := Configure(cfg); err != nil {
		return err
	}
	c.config = globalManager.Config()

	GetLogger("logger").DebugCtx(ctx, "✅ 日志组件初始化完成",
		zap.String("level", c.config.Level),
		zap.String("encoding", c.config.Encoding),
		zap.Bool("file", c.config.EnableFile))
	return nil
}

func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop 刷新并关闭所有文件句柄
func (c *Component) Stop(ctx context.Context) error {
	CloseAll()
	return nil
}

// Config 生效的配置
func (c *Component) Config() ManagerConfig {
	return c.config
}
