package health

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config 健康检查配置
type Config struct {
	Enabled bool          `mapstructure:"enabled" json:"enabled"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"` // 整体检查超时
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Timeout: defaultTimeout,
	}
}

// ApplyDefaults 填充零值
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Min(time.Millisecond), validation.Max(time.Minute)),
	)
}
