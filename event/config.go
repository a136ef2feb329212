package event

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config event component settings
type Config struct {
	Enabled        bool   `mapstructure:"enabled" json:"enabled"`
	PoolSize       int    `mapstructure:"pool_size" json:"pool_size"`             // ants pool size for RaiseAsync
	DefaultOptions string `mapstructure:"default_options" json:"default_options"` // e.g. "in_order|fail_on_first_exception"
	Metrics        bool   `mapstructure:"metrics" json:"metrics"`
	Tracing        bool   `mapstructure:"tracing" json:"tracing"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		PoolSize:       100,
		DefaultOptions: optionInParallel,
	}
}

// ApplyDefaults fills zero-valued fields
func (c *Config) ApplyDefaults() {
	if c.PoolSize == 0 {
		c.PoolSize = DefaultConfig().PoolSize
	}
	if c.DefaultOptions == "" {
		c.DefaultOptions = optionInParallel
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PoolSize, validation.Required.When(c.Enabled), validation.Min(1), validation.Max(100000)),
		validation.Field(&c.DefaultOptions, validation.By(func(value interface{}) error {
			s, _ := value.(string)
			_, err := ParseInvokeOptions(s)
			return err
		})),
	)
}

// InvokeOptions parsed DefaultOptions, InvokeInParallel when invalid
func (c Config) InvokeOptions() InvokeOptions {
	opts, err := ParseInvokeOptions(c.DefaultOptions)
	if err != nil {
		return InvokeInParallel
	}
	return opts
}
