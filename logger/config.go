package logger

import (
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap/zapcore"
)

var (
	validLevels    = []interface{}{"debug", "info", "warn", "error", "fatal"}
	validEncodings = []interface{}{"json", "console"}
)

// ManagerConfig 全局日志配置（所有模块共享）
type ManagerConfig struct {
	BaseLogDir    string `mapstructure:"base_log_dir" json:"base_log_dir"` // 日志根目录（默认 logs/）
	Level         string `mapstructure:"level" json:"level"`
	AppName       string `mapstructure:"app_name" json:"app_name"` // 自动注入所有日志
	Encoding      string `mapstructure:"encoding" json:"encoding"` // json 或 console
	EnableConsole bool   `mapstructure:"enable_console" json:"enable_console"`
	EnableFile    bool   `mapstructure:"enable_file" json:"enable_file"`

	// lumberjack 切割
	MaxSize    int  `mapstructure:"max_size" json:"max_size"` // MB
	MaxBackups int  `mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int  `mapstructure:"max_age" json:"max_age"` // 天
	Compress   bool `mapstructure:"compress" json:"compress"`

	EnableCaller     bool   `mapstructure:"enable_caller" json:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace" json:"enable_stacktrace"`
	StacktraceLevel  string `mapstructure:"stacktrace_level" json:"stacktrace_level"`
	StacktraceDepth  int    `mapstructure:"stacktrace_depth" json:"stacktrace_depth"` // 0=不限制

	EnableTraceID    bool   `mapstructure:"enable_trace_id" json:"enable_trace_id"`
	TraceIDKey       string `mapstructure:"trace_id_key" json:"trace_id_key"`               // context 中的 key
	TraceIDFieldName string `mapstructure:"trace_id_field_name" json:"trace_id_field_name"` // 日志字段名
}

// DefaultManagerConfig 默认配置：仅控制台输出
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BaseLogDir:       "logs",
		Level:            "info",
		Encoding:         "console",
		EnableConsole:    true,
		MaxSize:          100,
		MaxBackups:       3,
		MaxAge:           28,
		EnableCaller:     true,
		EnableStacktrace: true,
		StacktraceLevel:  "error",
		StacktraceDepth:  5,
		EnableTraceID:    true,
		TraceIDKey:       "trace_id",
		TraceIDFieldName: "trace_id",
	}
}

// ApplyDefaults 填充零值字段（布尔值保留原值）
func (c *ManagerConfig) ApplyDefaults() {
	d := DefaultManagerConfig()

	if c.BaseLogDir == "" {
		c.BaseLogDir = d.BaseLogDir
	}
	if c.Level == "" {
		c.Level = d.Level
	}
	if c.Encoding == "" {
		c.Encoding = d.Encoding
	}
	if c.StacktraceLevel == "" {
		c.StacktraceLevel = d.StacktraceLevel
	}
	if c.TraceIDKey == "" {
		c.TraceIDKey = d.TraceIDKey
	}
	if c.TraceIDFieldName == "" {
		c.TraceIDFieldName = d.TraceIDFieldName
	}
	if c.MaxSize == 0 {
		c.MaxSize = d.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = d.MaxBackups
	}
	if c.MaxAge == 0 {
		c.MaxAge = d.MaxAge
	}
}

// Validate 校验配置
func (c ManagerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.In(validLevels...)),
		validation.Field(&c.Encoding, validation.Required, validation.In(validEncodings...)),
		validation.Field(&c.BaseLogDir, validation.Required.When(c.EnableFile)),
		validation.Field(&c.MaxSize, validation.Min(1), validation.Max(10000)),
		validation.Field(&c.MaxBackups, validation.Min(0), validation.Max(1000)),
		validation.Field(&c.MaxAge, validation.Min(0), validation.Max(3650)),
		validation.Field(&c.StacktraceLevel, validation.In(validLevels...)),
	)
}

// ParseLevel 解析日志级别，无法识别时返回 info
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// infoFilePath logs/<module>/<module>-info.log
func (c ManagerConfig) infoFilePath(module string) string {
	return filepath.Join(c.BaseLogDir, module, module+"-info.log")
}

// errorFilePath logs/<module>/<module>-error.log
func (c ManagerConfig) errorFilePath(module string) string {
	return filepath.Join(c.BaseLogDir, module, module+"-error.log")
}
