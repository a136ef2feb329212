package config

import (
	"fmt"

	"github.com/samber/do/v2"
)

// ProvideLoaderOptions 创建 Loader 的选项
type ProvideLoaderOptions struct {
	ConfigPath string      // 配置目录
	ConfigFile string      // 基础配置文件名，默认 config.yaml
	EnvPrefix  string      // 环境变量前缀
	Flags      interface{} // 命令行参数
}

// ProvideLoader 创建 Config Loader Provider
// Config 是最底层组件，无任何依赖
//
//	do.Provide(injector, config.ProvideLoader(config.ProvideLoaderOptions{
//	    ConfigPath: "configs",
//	    EnvPrefix:  "ASYNCEVENT",
//	}))
//	loader := do.MustInvoke[*config.Loader](injector)
func ProvideLoader(opts ProvideLoaderOptions) func(do.Injector) (*Loader, error) {
	return func(do.Injector) (*Loader, error) {
		loader, err := NewLoaderBuilder().
			WithConfigPath(opts.ConfigPath).
			WithConfigFile(opts.ConfigFile).
			WithEnvPrefix(opts.EnvPrefix).
			WithFlags(opts.Flags).
			Build()
		if err != nil {
			return nil, fmt.Errorf("config loader build failed: %w", err)
		}
		return loader, nil
	}
}

// ProvideLoaderValue 直接注册已创建的 Loader（测试用）
func ProvideLoaderValue(loader *Loader) func(do.Injector) (*Loader, error) {
	return func(do.Injector) (*Loader, error) {
		return loader, nil
	}
}
