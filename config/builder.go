package config

import (
	"os"
	"path/filepath"
)

const defaultConfigFile = "config.yaml"

// LoaderBuilder 配置加载器构建器
type LoaderBuilder struct {
	configPath string
	configFile string
	envPrefix  string
	flags      interface{}
}

// NewLoaderBuilder creates a loader builder
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{
		configFile: defaultConfigFile,
	}
}

// WithConfigPath 配置目录
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithConfigFile 基础配置文件名，默认 config.yaml
// 传入绝对路径时忽略配置目录
func (b *LoaderBuilder) WithConfigFile(name string) *LoaderBuilder {
	if name != "" {
		b.configFile = name
	}
	return b
}

// WithEnvPrefix 环境变量前缀
func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

// WithFlags 命令行参数结构体（字段带 config tag）
func (b *LoaderBuilder) WithFlags(flags interface{}) *LoaderBuilder {
	b.flags = flags
	return b
}

// Build 构建并加载
// 优先级：config.yaml(10) < {env}.yaml(20) < 环境变量(50) < 命令行(100)
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	if base := b.baseFile(); base != "" {
		loader.AddSource(NewFileSource(base, 10))

		if env := GetEnv(); env != "" {
			ext := filepath.Ext(base)
			if ext == "" {
				ext = ".yaml"
			}
			loader.AddSource(NewFileSource(filepath.Join(filepath.Dir(base), env+ext), 20))
		}
	}

	if b.envPrefix != "" {
		loader.AddSource(NewEnvSource(b.envPrefix, 50))
	}

	if b.flags != nil {
		loader.AddSource(NewFlagSource(b.flags, 100))
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

func (b *LoaderBuilder) baseFile() string {
	if filepath.IsAbs(b.configFile) {
		return b.configFile
	}
	if b.configPath == "" {
		return ""
	}
	return filepath.Join(b.configPath, b.configFile)
}

// GetEnv 运行环境（APP_ENV > ENV > dev）
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
