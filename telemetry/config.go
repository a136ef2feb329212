package telemetry

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config OpenTelemetry 配置
type Config struct {
	Enabled        bool           `mapstructure:"enabled" json:"enabled"`
	ServiceName    string         `mapstructure:"service_name" json:"service_name"`
	ServiceVersion string         `mapstructure:"service_version" json:"service_version"`
	Exporter       ExporterConfig `mapstructure:"exporter" json:"exporter"`
	Sampler        SamplerConfig  `mapstructure:"sampler" json:"sampler"`
	Tracing        TracingConfig  `mapstructure:"tracing" json:"tracing"`
	Metrics        MetricsConfig  `mapstructure:"metrics" json:"metrics"`
}

// ExporterConfig exporter configuration, shared by traces and metrics
type ExporterConfig struct {
	Type     string            `mapstructure:"type" json:"type"` // stdout, otlp, noop
	Endpoint string            `mapstructure:"endpoint" json:"endpoint"`
	Insecure bool              `mapstructure:"insecure" json:"insecure"`
	Timeout  time.Duration     `mapstructure:"timeout" json:"timeout"`
	Headers  map[string]string `mapstructure:"headers" json:"headers"` // 认证等自定义 header
}

// SamplerConfig sampling configuration
type SamplerConfig struct {
	Type  string  `mapstructure:"type" json:"type"` // always_on, always_off, trace_id_ratio, parent_based_always_on
	Ratio float64 `mapstructure:"ratio" json:"ratio"`
}

// TracingConfig one span per event invocation when enabled
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`
}

// MetricsConfig metrics configuration
type MetricsConfig struct {
	Enabled        bool          `mapstructure:"enabled" json:"enabled"`
	ExportInterval time.Duration `mapstructure:"export_interval" json:"export_interval"`
	ExportTimeout  time.Duration `mapstructure:"export_timeout" json:"export_timeout"`
	Namespace      string        `mapstructure:"namespace" json:"namespace"` // meter 名前缀
}

var (
	exporterTypes = []interface{}{"stdout", "otlp", "noop"}
	samplerTypes  = []interface{}{"always_on", "always_off", "trace_id_ratio", "parent_based_always_on"}
)

// DefaultConfig 默认关闭
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		ServiceName: "asyncevent",
		Exporter: ExporterConfig{
			Type:    "stdout",
			Timeout: 10 * time.Second,
		},
		Sampler: SamplerConfig{
			Type:  "parent_based_always_on",
			Ratio: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled:        true,
			ExportInterval: 10 * time.Second,
			ExportTimeout:  5 * time.Second,
			Namespace:      "asyncevent",
		},
	}
}

// ApplyDefaults 填充零值字段
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.ServiceName == "" {
		c.ServiceName = d.ServiceName
	}
	if c.Exporter.Type == "" {
		c.Exporter.Type = d.Exporter.Type
	}
	if c.Exporter.Timeout == 0 {
		c.Exporter.Timeout = d.Exporter.Timeout
	}
	if c.Sampler.Type == "" {
		c.Sampler.Type = d.Sampler.Type
	}
	if c.Metrics.ExportInterval == 0 {
		c.Metrics.ExportInterval = d.Metrics.ExportInterval
	}
	if c.Metrics.ExportTimeout == 0 {
		c.Metrics.ExportTimeout = d.Metrics.ExportTimeout
	}
}

// Validate 校验配置，未启用时不校验
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServiceName, validation.Required),
		validation.Field(&c.Exporter),
		validation.Field(&c.Sampler),
	)
}

// Validate exporter rules
func (e ExporterConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Type, validation.Required, validation.In(exporterTypes...)),
		validation.Field(&e.Endpoint, validation.Required.When(e.Type == "otlp")),
	)
}

// Validate sampler rules
func (s SamplerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.In(samplerTypes...)),
		validation.Field(&s.Ratio, validation.Min(0.0), validation.Max(1.0)),
	)
}
