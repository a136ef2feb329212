package config

import (
	"os"
	"strings"
)

// EnvSource 环境变量数据源
//
// 未设置 bindings 时扫描所有带前缀的变量，双下划线分隔层级：
//
//	ASYNCEVENT_EVENT__POOL_SIZE=8   -> event.pool_size
//	ASYNCEVENT_LOGGER__LEVEL=debug  -> logger.level
//
// 不含双下划线时每个下划线都视为层级分隔（APP_EVENT_ENABLED -> event.enabled）。
type EnvSource struct {
	prefix   string
	priority int
	bindings map[string]string // 配置 key -> 环境变量名
}

// NewEnvSource 创建环境变量数据源
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{
		prefix:   prefix,
		priority: priority,
		bindings: make(map[string]string),
	}
}

// AddBinding 显式绑定，如 AddBinding("event.pool_size", "POOL_SIZE")
// 环境变量名未带前缀时自动补上
func (s *EnvSource) AddBinding(key, envKey string) {
	s.bindings[key] = envKey
}

// Name 数据源名称
func (s *EnvSource) Name() string {
	return "env:" + s.prefix
}

// Priority 优先级
func (s *EnvSource) Priority() int {
	return s.priority
}

// Load 加载环境变量配置
func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	if len(s.bindings) > 0 {
		for key, envKey := range s.bindings {
			fullEnvKey := envKey
			if s.prefix != "" && !strings.HasPrefix(envKey, s.prefix+"_") {
				fullEnvKey = s.prefix + "_" + envKey
			}
			if value, ok := os.LookupEnv(fullEnvKey); ok {
				result[key] = value
			}
		}
		return result, nil
	}

	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		if key := envToKey(strings.TrimPrefix(name, prefix)); key != "" {
			result[key] = value
		}
	}

	return result, nil
}

func envToKey(name string) string {
	name = strings.ToLower(name)
	if strings.Contains(name, "__") {
		return strings.ReplaceAll(name, "__", ".")
	}
	return strings.ReplaceAll(name, "_", ".")
}
