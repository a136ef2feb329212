package component

// ConfigLoader 配置读取接口
// 组件通过它读取自己的配置段，不依赖具体的配置结构
type ConfigLoader interface {
	// Get 读取任意配置项，如 "event.pool_size"
	Get(key string) interface{}

	// Unmarshal 把整个配置段反序列化到结构体
	//
	//   var cfg event.Config
	//   if err := loader.Unmarshal("event", &cfg); err != nil {
	//       return err
	//   }
	Unmarshal(key string, v interface{}) error

	// GetString 读取字符串配置
	GetString(key string) string

	// GetInt 读取整数配置
	GetInt(key string) int

	// GetBool 读取布尔配置
	GetBool(key string) bool

	// IsSet 配置项是否存在
	IsSet(key string) bool
}
