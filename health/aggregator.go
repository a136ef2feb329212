package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 5 * time.Second

// Aggregator 并发执行全部检查项并汇总
type Aggregator struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
	metadata map[string]interface{}
}

// NewAggregator 创建聚合器，timeout <= 0 时使用 5s
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Aggregator{
		timeout:  timeout,
		metadata: make(map[string]interface{}),
	}
}

// Register 注册检查项，nil 忽略
func (a *Aggregator) Register(checker Checker) {
	if checker == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, checker)
}

// SetMetadata 设置随响应返回的元数据
func (a *Aggregator) SetMetadata(key string, value interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metadata[key] = value
}

// Names 已注册检查项名称，按注册顺序
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, len(a.checkers))
	for i, c := range a.checkers {
		names[i] = c.Name()
	}
	return names
}

// Check 执行全部检查，整个过程受 timeout 约束
func (a *Aggregator) Check(ctx context.Context) *Response {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	checkers := make([]Checker, len(a.checkers))
	copy(checkers, a.checkers)
	metadata := make(map[string]interface{}, len(a.metadata))
	for k, v := range a.metadata {
		metadata[k] = v
	}
	a.mu.RUnlock()

	var (
		g      errgroup.Group
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(checkers))
	)
	for _, checker := range checkers {
		g.Go(func() error {
			result := checkOne(checkCtx, checker)
			mu.Lock()
			checks[result.Name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return &Response{
		Status:    overallStatus(checks),
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Checks:    checks,
		Metadata:  metadata,
	}
}

func checkOne(ctx context.Context, checker Checker) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      checker.Name(),
		Timestamp: start,
	}

	err := checker.Check(ctx)
	result.Duration = time.Since(start)

	switch {
	case err == nil:
		result.Status = StatusHealthy
		result.Message = "OK"
	case errors.Is(err, component.ErrDegraded):
		result.Status = StatusDegraded
		result.Error = err.Error()
		result.Message = "Degraded"
	default:
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "Health check failed"
	}
	return result
}

// overallStatus 任一 unhealthy 即 unhealthy，其次 degraded；没有检查项视为健康
func overallStatus(checks map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range checks {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
