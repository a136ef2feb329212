package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NewObservedLogger 创建记录到内存的 Logger，用于单元测试断言
// 用法：
//
//	log, logs := logger.NewObservedLogger("event", zapcore.DebugLevel)
//	iv := event.NewInvoker(event.WithLogger(log))
//	assert.Equal(t, 1, logs.FilterMessage("async event invocation started").Len())
func NewObservedLogger(module string, level zapcore.LevelEnabler) (*CtxZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return FromZap(zap.New(core), module), logs
}
