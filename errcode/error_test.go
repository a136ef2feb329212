package errcode

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLayeredError_New 创建分层错误码
func TestLayeredError_New(t *testing.T) {
	err := New(60, 1, "event", "error.event.invalid_config", "invalid event configuration")

	if err.Code() != 600001 {
		t.Errorf("expected code 600001, got %d", err.Code())
	}
	if err.ModuleCode() != 60 {
		t.Errorf("expected module code 60, got %d", err.ModuleCode())
	}
	if err.Module() != "event" {
		t.Errorf("expected module 'event', got %s", err.Module())
	}
	if err.MsgKey() != "error.event.invalid_config" {
		t.Errorf("unexpected msgKey %s", err.MsgKey())
	}
	if err.Error() != "invalid event configuration" {
		t.Errorf("unexpected message %s", err.Error())
	}
}

// TestLayeredError_Wrap 包装原始错误
func TestLayeredError_Wrap(t *testing.T) {
	base := New(60, 2, "event", "error.event.pool_unavailable", "async event pool unavailable")
	cause := errors.New("pool closed")
	err := base.Wrap(cause)

	if err.Error() != "async event pool unavailable: pool closed" {
		t.Errorf("unexpected message %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !errors.Is(err, base) {
		t.Error("expected errors.Is to match by code")
	}
	if base.Cause() != nil {
		t.Error("Wrap must not modify the original instance")
	}
	if base.Wrap(nil) != base {
		t.Error("Wrap(nil) should return the same instance")
	}
}

// TestLayeredError_Wrapf 包装并格式化消息
func TestLayeredError_Wrapf(t *testing.T) {
	err := New(70, 1, "demo", "error.demo.failed", "failed").Wrapf(errors.New("io"), "handler %d failed", 2)
	if err.Error() != "handler 2 failed: io" {
		t.Errorf("unexpected message %s", err.Error())
	}
	if err.Message() != "handler 2 failed" {
		t.Errorf("unexpected Message %s", err.Message())
	}
}

// TestLayeredError_Is 不同错误码不相等
func TestLayeredError_Is(t *testing.T) {
	a := New(60, 1, "event", "a", "a")
	b := New(60, 2, "event", "b", "b")

	if errors.Is(a, b) {
		t.Error("different codes must not match")
	}
	if errors.Is(a, errors.New("a")) {
		t.Error("plain errors must not match")
	}
	if !errors.Is(fmt.Errorf("outer: %w", a.WithMsg("changed")), a) {
		t.Error("expected match through fmt wrapping")
	}
}

// TestLayeredError_WithData 上下文数据不影响原实例
func TestLayeredError_WithData(t *testing.T) {
	base := New(70, 1, "demo", "error.demo.failed", "failed")
	err := base.WithData("handler", "second").WithFields(map[string]interface{}{"delay_ms": 100})

	if err.Data()["handler"] != "second" || err.Data()["delay_ms"] != 100 {
		t.Errorf("unexpected data %v", err.Data())
	}
	if len(base.Data()) != 0 {
		t.Error("WithData must not modify the original instance")
	}

	data := err.Data()
	data["handler"] = "mutated"
	if err.Data()["handler"] != "second" {
		t.Error("Data must return a copy")
	}
}

// TestLayeredError_MarshalLogObject zap 结构化输出
func TestLayeredError_MarshalLogObject(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	err := New(70, 3, "demo", "error.demo.third", "third failed").
		WithData("handler", 3).
		Wrap(errors.New("timeout"))

	zap.New(core).Info("failed", zap.Object("err", err))

	fields := logs.All()[0].ContextMap()["err"].(map[string]interface{})
	if fields["code"] != 700003 {
		t.Errorf("unexpected code %v", fields["code"])
	}
	if fields["cause"] != "timeout" {
		t.Errorf("unexpected cause %v", fields["cause"])
	}
	if fields["data.handler"] != 3 {
		t.Errorf("unexpected data %v", fields["data.handler"])
	}
}

// TestCodeOf 沿错误链提取错误码
func TestCodeOf(t *testing.T) {
	err := New(60, 1, "event", "a", "a")

	if CodeOf(err) != 600001 {
		t.Error("expected 600001")
	}
	if CodeOf(fmt.Errorf("wrapped: %w", err)) != 600001 {
		t.Error("expected 600001 through wrapping")
	}
	if CodeOf(errors.New("plain")) != 0 {
		t.Error("expected 0 for plain error")
	}
	if CodeOf(nil) != 0 {
		t.Error("expected 0 for nil")
	}
}

// TestLayeredError_String 调试输出
func TestLayeredError_String(t *testing.T) {
	err := New(60, 1, "event", "a", "bad")
	if err.String() != "LayeredError{code:600001, module:event, msg:bad}" {
		t.Errorf("unexpected %s", err.String())
	}
	if err.Wrap(errors.New("x")).String() != "LayeredError{code:600001, module:event, msg:bad, cause:x}" {
		t.Errorf("unexpected %s", err.Wrap(errors.New("x")).String())
	}
}
