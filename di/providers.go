// Package di 基于 samber/do 装配异步事件运行时
//
// 依赖层级：
//
//	Layer 0: config.Component
//	Layer 1: logger.Component
//	Layer 2: telemetry.Component
//	Layer 3: event.Component
//	Layer 4: health.Component（Start 时发现 HealthCheckProvider）
//	Layer 5: registry.Registry（按 DependsOn 驱动上面组件的生命周期）
package di

import (
	"fmt"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"github.com/KOMKZ/go-yogan-asyncevent/config"
	"github.com/KOMKZ/go-yogan-asyncevent/event"
	"github.com/KOMKZ/go-yogan-asyncevent/health"
	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"github.com/KOMKZ/go-yogan-asyncevent/registry"
	"github.com/KOMKZ/go-yogan-asyncevent/telemetry"
	"github.com/samber/do/v2"
)

// ConfigOptions 配置组件选项
type ConfigOptions struct {
	ConfigPath string      // 配置目录
	ConfigFile string      // 基础配置文件，默认 config.yaml
	EnvPrefix  string      // 环境变量前缀
	Flags      interface{} // 命令行参数（字段带 config tag）
}

// ProvideConfigComponent 创建并立即加载配置组件
// 无依赖，加载失败直接返回错误
func ProvideConfigComponent(opts ConfigOptions) func(do.Injector) (*config.Component, error) {
	return func(do.Injector) (*config.Component, error) {
		loader, err := config.NewLoaderBuilder().
			WithConfigPath(opts.ConfigPath).
			WithConfigFile(opts.ConfigFile).
			WithEnvPrefix(opts.EnvPrefix).
			WithFlags(opts.Flags).
			Build()
		if err != nil {
			return nil, fmt.Errorf("config loader build failed: %w", err)
		}
		return config.NewComponentFromLoader(loader), nil
	}
}

// ProvideConfigLoader 便捷访问：*config.Loader
func ProvideConfigLoader(i do.Injector) (*config.Loader, error) {
	cc, err := do.Invoke[*config.Component](i)
	if err != nil {
		return nil, err
	}
	return cc.Loader, nil
}

// ProvideLoggerComponent 日志组件（Init 由 Registry 调用）
func ProvideLoggerComponent(do.Injector) (*logger.Component, error) {
	return logger.NewComponent(), nil
}

// ProvideCtxLogger 创建命名 CtxZapLogger 的 Provider 工厂
// 依赖 logger.Component，保证日志配置先于业务 logger 生效
func ProvideCtxLogger(module string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		if _, err := do.Invoke[*logger.Component](i); err != nil {
			return nil, err
		}
		return logger.GetLogger(module), nil
	}
}

// ProvideTelemetryComponent 遥测组件
func ProvideTelemetryComponent(opts ...telemetry.ComponentOption) func(do.Injector) (*telemetry.Component, error) {
	return func(do.Injector) (*telemetry.Component, error) {
		return telemetry.NewComponent(opts...), nil
	}
}

// ProvideEventComponent 事件组件，自动接入遥测组件
func ProvideEventComponent(opts ...event.ComponentOption) func(do.Injector) (*event.Component, error) {
	return func(i do.Injector) (*event.Component, error) {
		tc, err := do.Invoke[*telemetry.Component](i)
		if err != nil {
			return nil, err
		}
		all := append([]event.ComponentOption{event.WithTelemetry(tc)}, opts...)
		return event.NewComponent(all...), nil
	}
}

// ProvideHealthComponent 健康检查组件（Registry 在 ProvideRegistry 中注入）
func ProvideHealthComponent(opts ...health.ComponentOption) func(do.Injector) (*health.Component, error) {
	return func(do.Injector) (*health.Component, error) {
		return health.NewComponent(opts...), nil
	}
}

// ProvideRegistry 注册全部组件的 Registry
func ProvideRegistry(i do.Injector) (*registry.Registry, error) {
	cc, err := do.Invoke[*config.Component](i)
	if err != nil {
		return nil, err
	}
	lc, err := do.Invoke[*logger.Component](i)
	if err != nil {
		return nil, err
	}
	tc, err := do.Invoke[*telemetry.Component](i)
	if err != nil {
		return nil, err
	}
	ec, err := do.Invoke[*event.Component](i)
	if err != nil {
		return nil, err
	}
	hc, err := do.Invoke[*health.Component](i)
	if err != nil {
		return nil, err
	}

	reg := registry.NewRegistry()
	for _, c := range []component.Component{cc, lc, tc, ec, hc} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	hc.SetRegistry(reg)
	return reg, nil
}
