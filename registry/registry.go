// Package registry 组件注册中心：按 DependsOn 分层，逐层 Init / Start，反向 Stop
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrCycle 组件依赖存在环
	ErrCycle = errors.New("检测到循环依赖")

	// ErrNoConfig 未注册实现 ConfigLoader 的配置组件
	ErrNoConfig = errors.New("配置组件未注册或未实现 ConfigLoader")
)

// Registry 组件注册中心
type Registry struct {
	mu         sync.RWMutex
	components map[string]component.Component
	logger     *logger.CtxZapLogger
}

// NewRegistry 创建组件注册中心
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]component.Component),
	}
}

// Register 注册组件，名称唯一
func (r *Registry) Register(comp component.Component) error {
	if comp == nil {
		return fmt.Errorf("组件不能为空")
	}
	name := comp.Name()
	if name == "" {
		return fmt.Errorf("组件名称不能为空")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[name]; exists {
		return fmt.Errorf("组件 '%s' 已存在", name)
	}
	r.components[name] = comp
	return nil
}

// MustRegister 注册组件（失败则 panic）
func (r *Registry) MustRegister(comp component.Component) {
	if err := r.Register(comp); err != nil {
		panic(fmt.Sprintf("注册组件失败: %v", err))
	}
}

// SetLogger 设置日志（可选，未设置时不输出）
func (r *Registry) SetLogger(l *logger.CtxZapLogger) {
	r.logger = l
}

func (r *Registry) logDebug(ctx context.Context, msg string, fields ...zap.Field) {
	if r.logger != nil {
		r.logger.DebugCtx(ctx, msg, fields...)
	}
}

func (r *Registry) logInfo(ctx context.Context, msg string, fields ...zap.Field) {
	if r.logger != nil {
		r.logger.InfoCtx(ctx, msg, fields...)
	}
}

func (r *Registry) logError(ctx context.Context, msg string, fields ...zap.Field) {
	if r.logger != nil {
		r.logger.ErrorCtx(ctx, msg, fields...)
	}
}

// Get 获取组件
func (r *Registry) Get(name string) (component.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	comp, ok := r.components[name]
	return comp, ok
}

// Has 组件是否已注册
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// GetTyped 获取组件并转换为具体类型
//
//	ec, ok := registry.GetTyped[*event.Component](reg, component.ComponentEvent)
func GetTyped[T component.Component](r *Registry, name string) (T, bool) {
	var zero T
	comp, ok := r.Get(name)
	if !ok {
		return zero, false
	}
	typed, ok := comp.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Resolve 拓扑排序后的组件（依赖在前）
func (r *Registry) Resolve() ([]component.Component, error) {
	layers, err := r.resolveLayers()
	if err != nil {
		return nil, err
	}
	var result []component.Component
	for _, layer := range layers {
		result = append(result, layer...)
	}
	return result, nil
}

// Init 按依赖层级初始化，同层并发
// 配置组件本身充当其他组件的 ConfigLoader
func (r *Registry) Init(ctx context.Context) error {
	comp, ok := r.Get(component.ComponentConfig)
	if !ok {
		return ErrNoConfig
	}
	loader, ok := comp.(component.ConfigLoader)
	if !ok {
		return ErrNoConfig
	}

	layers, err := r.resolveLayers()
	if err != nil {
		r.logError(ctx, "❌ 解析组件依赖失败", zap.Error(err))
		return fmt.Errorf("解析组件依赖失败: %w", err)
	}

	for idx, layer := range layers {
		r.logDebug(ctx, "初始化组件层", zap.Int("layer", idx), zap.Strings("components", names(layer)))
		if err := runLayer(ctx, layer, func(ctx context.Context, c component.Component) error {
			return c.Init(ctx, loader)
		}); err != nil {
			r.logError(ctx, "❌ 组件初始化失败", zap.Error(err))
			return err
		}
	}

	r.logInfo(ctx, "✅ 所有组件初始化完成", zap.Int("total", len(r.components)))
	return nil
}

// Start 按依赖层级启动
func (r *Registry) Start(ctx context.Context) error {
	layers, err := r.resolveLayers()
	if err != nil {
		return fmt.Errorf("解析组件依赖失败: %w", err)
	}

	for _, layer := range layers {
		if err := runLayer(ctx, layer, func(ctx context.Context, c component.Component) error {
			return c.Start(ctx)
		}); err != nil {
			r.logError(ctx, "❌ 组件启动失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// Stop 反向逐层停止，所有组件都会被调用，错误合并返回
func (r *Registry) Stop(ctx context.Context) error {
	layers, err := r.resolveLayers()
	if err != nil {
		return fmt.Errorf("解析组件依赖失败: %w", err)
	}

	var errs error
	for i := len(layers) - 1; i >= 0; i-- {
		r.logDebug(ctx, "停止组件层", zap.Int("layer", i), zap.Strings("components", names(layers[i])))
		errs = multierr.Append(errs, stopLayer(ctx, layers[i]))
	}

	r.logInfo(ctx, "✅ 所有组件已停止")
	return errs
}

// runLayer 同层组件并发执行，返回第一个错误
func runLayer(ctx context.Context, layer []component.Component, fn func(context.Context, component.Component) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, comp := range layer {
		g.Go(func() error {
			if err := fn(gctx, comp); err != nil {
				return fmt.Errorf("组件 '%s' 执行失败: %w", comp.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func stopLayer(ctx context.Context, layer []component.Component) error {
	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, comp := range layer {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := comp.Stop(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("组件 '%s' 停止失败: %w", comp.Name(), err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errs
}

// resolveLayers 按入度分层；缺失的可选依赖直接忽略
func (r *Registry) resolveLayers() ([][]component.Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inDegree := make(map[string]int, len(r.components))
	dependents := make(map[string][]string, len(r.components))
	for name := range r.components {
		inDegree[name] = 0
	}

	for name, comp := range r.components {
		for _, dep := range comp.DependsOn() {
			depName, optional := component.ParseDependency(dep)
			if _, ok := r.components[depName]; !ok {
				if optional {
					continue
				}
				return nil, fmt.Errorf("组件 '%s' 依赖 '%s' 未注册", name, depName)
			}
			dependents[depName] = append(dependents[depName], name)
			inDegree[name]++
		}
	}

	var layers [][]component.Component
	done := 0
	for done < len(r.components) {
		var current []string
		for name, degree := range inDegree {
			if degree == 0 {
				current = append(current, name)
			}
		}
		if len(current) == 0 {
			return nil, ErrCycle
		}
		sort.Strings(current)

		layer := make([]component.Component, 0, len(current))
		for _, name := range current {
			layer = append(layer, r.components[name])
			delete(inDegree, name)
			for _, next := range dependents[name] {
				inDegree[next]--
			}
		}
		done += len(current)
		layers = append(layers, layer)
	}

	return layers, nil
}

func names(layer []component.Component) []string {
	out := make([]string, len(layer))
	for i, c := range layer {
		out[i] = c.Name()
	}
	return out
}
