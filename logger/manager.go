package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager Logger 管理器（按模块管理 Logger 实例）
type Manager struct {
	baseConfig ManagerConfig
	loggers    map[string]*CtxZapLogger        // 模块名 -> CtxZapLogger
	zapLoggers map[string]*zap.Logger          // 模块名 -> 底层 zap.Logger
	writers    map[string][]*lumberjack.Logger // 模块名 -> 文件写入器（用于关闭）
	mu         sync.RWMutex
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// NewManager 创建独立的 Manager 实例
// cfg 中的零值字段会自动填充为默认值
func NewManager(cfg ManagerConfig) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		baseConfig: cfg,
		loggers:    make(map[string]*CtxZapLogger),
		zapLoggers: make(map[string]*zap.Logger),
		writers:    make(map[string][]*lumberjack.Logger),
	}
}

// InitManager 初始化全局 Logger 管理器（只生效一次）
func InitManager(cfg ManagerConfig) {
	managerOnce.Do(func() {
		globalManager = NewManager(cfg)
	})
}

// Config 返回生效的配置
func (m *Manager) Config() ManagerConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseConfig
}

// GetLogger 获取指定模块的 CtxZapLogger（线程安全，按需创建）
// 返回的 Logger 已自动包含 module 字段
func (m *Manager) GetLogger(moduleName string) *CtxZapLogger {
	m.mu.RLock()
	if l, ok := m.loggers[moduleName]; ok {
		m.mu.RUnlock()
		return l
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// 双重检查
	if l, ok := m.loggers[moduleName]; ok {
		return l
	}

	zl := m.createLogger(moduleName).With(zap.String("module", moduleName))
	cfg := m.baseConfig
	l := &CtxZapLogger{
		base:   zl.WithOptions(zap.AddCallerSkip(1)),
		module: moduleName,
		config: &cfg,
	}

	m.loggers[moduleName] = l
	m.zapLoggers[moduleName] = zl
	return l
}

// createLogger console + info/error 文件输出，调用方需持有写锁
func (m *Manager) createLogger(moduleName string) *zap.Logger {
	cfg := m.baseConfig
	encoder := createEncoder(cfg.Encoding)
	level := ParseLevel(cfg.Level)

	var cores []zapcore.Core
	if cfg.EnableConsole {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	if cfg.EnableFile {
		infoWriter, infoLumber := createFileWriter(cfg.infoFilePath(moduleName), cfg)
		errorWriter, errorLumber := createFileWriter(cfg.errorFilePath(moduleName), cfg)
		m.writers[moduleName] = []*lumberjack.Logger{infoLumber, errorLumber}

		// info 文件：>= 配置级别 且 < error
		cores = append(cores, zapcore.NewCore(encoder, infoWriter,
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= level && lvl < zapcore.ErrorLevel
			})))
		cores = append(cores, zapcore.NewCore(encoder, errorWriter,
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= zapcore.ErrorLevel
			})))
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	// 堆栈由 CtxZapLogger.ErrorCtx 按深度控制，不使用 zap.AddStacktrace

	return zap.New(zapcore.NewTee(cores...), opts...)
}

// CloseAll 刷新缓冲区并关闭所有文件句柄（应用退出时调用）
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.zapLoggers {
		_ = l.Sync()
	}
	for _, ws := range m.writers {
		for _, w := range ws {
			_ = w.Close()
		}
	}

	m.loggers = make(map[string]*CtxZapLogger)
	m.zapLoggers = make(map[string]*zap.Logger)
	m.writers = make(map[string][]*lumberjack.Logger)
}

// ReloadConfig 热重载配置（已创建的 Logger 会被丢弃，下次获取时按新配置重建）
func (m *Manager) ReloadConfig(newCfg ManagerConfig) error {
	newCfg.ApplyDefaults()
	if err := newCfg.Validate(); err != nil {
		return fmt.Errorf("新配置验证失败: %w", err)
	}

	m.CloseAll()

	m.mu.Lock()
	oldLevel := m.baseConfig.Level
	m.baseConfig = newCfg
	m.mu.Unlock()

	if oldLevel != newCfg.Level {
		m.GetLogger("logger").Debug("日志级别已更新",
			zap.String("old_level", oldLevel),
			zap.String("new_level", newCfg.Level))
	}
	return nil
}

func createEncoder(encoding string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if encoding == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// createFileWriter 创建 lumberjack 文件写入器（支持切割）
func createFileWriter(filename string, cfg ManagerConfig) (zapcore.WriteSyncer, *lumberjack.Logger) {
	_ = os.MkdirAll(filepath.Dir(filename), 0o755)

	lj := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	return zapcore.AddSync(lj), lj
}

// ============================================
// 包级别便捷函数（使用 globalManager）
// ============================================

// GetLogger 获取指定模块的 CtxZapLogger，未初始化时使用默认配置
func GetLogger(moduleName string) *CtxZapLogger {
	InitManager(DefaultManagerConfig())
	return globalManager.GetLogger(moduleName)
}

// CloseAll 关闭所有 Logger
func CloseAll() {
	if globalManager == nil {
		return
	}
	globalManager.CloseAll()
}

// InfoCtx 记录 Info 级别日志
func InfoCtx(ctx context.Context, module string, msg string, fields ...zap.Field) {
	GetLogger(module).InfoCtx(ctx, msg, fields...)
}

// DebugCtx 记录 Debug 级别日志
func DebugCtx(ctx context.Context, module string, msg string, fields ...zap.Field) {
	GetLogger(module).DebugCtx(ctx, msg, fields...)
}

// WarnCtx 记录 Warn 级别日志
func WarnCtx(ctx context.Context, module string, msg string, fields ...zap.Field) {
	GetLogger(module).WarnCtx(ctx, msg, fields...)
}

// ErrorCtx 记录 Error 级别日志
func ErrorCtx(ctx context.Context, module string, msg string, fields ...zap.Field) {
	GetLogger(module).ErrorCtx(ctx, msg, fields...)
}
