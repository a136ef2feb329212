package component

import (
	"context"
	"errors"
)

// ErrDegraded 检查器返回包装了它的错误时，状态记为 degraded 而不是 unhealthy
var ErrDegraded = errors.New("degraded")

// HealthChecker 健康检查器
type HealthChecker interface {
	// Name 检查项名称
	Name() string

	// Check 执行检查，nil 表示健康
	Check(ctx context.Context) error
}

// HealthCheckProvider 能提供健康检查器的组件
type HealthCheckProvider interface {
	GetHealthChecker() HealthChecker
}
