package config

// ConfigSource 配置数据源
//
// 建议优先级：
//   - 基础配置文件 config.yaml: 10
//   - 环境配置文件 dev.yaml: 20
//   - 环境变量: 50
//   - 命令行参数: 100
type ConfigSource interface {
	// Name 数据源名称（日志用）
	Name() string

	// Priority 数值越大优先级越高
	Priority() int

	// Load 返回点号分隔 key 的 flat map，如 "event.pool_size"
	Load() (map[string]interface{}, error)
}
