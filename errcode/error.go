// Package errcode 分层错误码
// 格式: MMBBBB（MM = 模块码 2 位，BBBB = 业务码 4 位）
package errcode

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// LayeredError 分层错误码
// 支持错误链、动态消息、上下文数据、消息键（国际化）
type LayeredError struct {
	module string                 // 模块名（event, demo, common）
	code   int                    // 完整错误码（MMBBBB，如 600001）
	msgKey string                 // 消息键（如 "error.event.invalid_config"）
	msg    string                 // 默认消息
	data   map[string]interface{} // 上下文数据
	cause  error                  // 原始错误
}

// New 创建分层错误码
// moduleCode: 模块码（10-99），businessCode: 业务码（0001-9999）
func New(moduleCode, businessCode int, module, msgKey, msg string) *LayeredError {
	return &LayeredError{
		module: module,
		code:   moduleCode*10000 + businessCode,
		msgKey: msgKey,
		msg:    msg,
	}
}

// Error implements error
func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code 错误码
func (e *LayeredError) Code() int {
	return e.code
}

// ModuleCode 模块码（错误码前两位）
func (e *LayeredError) ModuleCode() int {
	return e.code / 10000
}

// Module 模块名
func (e *LayeredError) Module() string {
	return e.module
}

// MsgKey 消息键
func (e *LayeredError) MsgKey() string {
	return e.msgKey
}

// Message 消息（不含 cause）
func (e *LayeredError) Message() string {
	return e.msg
}

// Data 上下文数据（只读副本）
func (e *LayeredError) Data() map[string]interface{} {
	return e.cloneData()
}

// Cause 原始错误
func (e *LayeredError) Cause() error {
	return e.cause
}

// Unwrap 支持 errors.Is / errors.As 沿错误链查找
func (e *LayeredError) Unwrap() error {
	return e.cause
}

// Is 按错误码判等
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

// WithMsg 替换消息（返回新实例）
func (e *LayeredError) WithMsg(msg string) *LayeredError {
	clone := *e
	clone.msg = msg
	return &clone
}

// WithMsgf 格式化替换消息（返回新实例）
func (e *LayeredError) WithMsgf(format string, args ...interface{}) *LayeredError {
	return e.WithMsg(fmt.Sprintf(format, args...))
}

// WithData 添加单个上下文数据（返回新实例）
func (e *LayeredError) WithData(key string, value interface{}) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	clone.data[key] = value
	return &clone
}

// WithFields 批量添加上下文数据（返回新实例）
func (e *LayeredError) WithFields(fields map[string]interface{}) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	for k, v := range fields {
		clone.data[k] = v
	}
	return &clone
}

// Wrap 包装原始错误（返回新实例），cause 为 nil 时返回自身
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Wrapf 包装原始错误并格式化消息
func (e *LayeredError) Wrapf(cause error, format string, args ...interface{}) *LayeredError {
	return e.Wrap(cause).WithMsgf(format, args...)
}

// MarshalLogObject 实现 zapcore.ObjectMarshaler，配合 zap.Object 输出结构化错误
func (e *LayeredError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("code", e.code)
	enc.AddString("module", e.module)
	enc.AddString("msg_key", e.msgKey)
	enc.AddString("msg", e.msg)
	if e.cause != nil {
		enc.AddString("cause", e.cause.Error())
	}
	for k, v := range e.data {
		if err := enc.AddReflected("data."+k, v); err != nil {
			return err
		}
	}
	return nil
}

// String 调试输出
func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}", e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}", e.code, e.module, e.msg)
}

func (e *LayeredError) cloneData() map[string]interface{} {
	data := make(map[string]interface{}, len(e.data)+1)
	for k, v := range e.data {
		data[k] = v
	}
	return data
}

// CodeOf 返回错误链上第一个 LayeredError 的错误码，没有时返回 0
func CodeOf(err error) int {
	var le *LayeredError
	if errors.As(err, &le) {
		return le.code
	}
	return 0
}
