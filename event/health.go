package event

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
)

// poolChecker 异步协程池健康检查
//
//   - 组件禁用：健康
//   - 协程池未创建或已关闭：unhealthy
//   - 没有空闲 worker 且有任务在排队：degraded
type poolChecker struct {
	c *Component
}

func (p poolChecker) Name() string {
	return component.ComponentEvent
}

func (p poolChecker) Check(ctx context.Context) error {
	if !p.c.config.Enabled {
		return nil
	}
	pool := p.c.Pool()
	if pool == nil || pool.IsClosed() {
		return ErrPoolUnavailable
	}
	if pool.Free() == 0 && pool.Waiting() > 0 {
		return fmt.Errorf("%w: pool saturated, %d running, %d waiting",
			component.ErrDegraded, pool.Running(), pool.Waiting())
	}
	return nil
}

// GetHealthChecker 实现 component.HealthCheckProvider
func (c *Component) GetHealthChecker() component.HealthChecker {
	return poolChecker{c: c}
}
