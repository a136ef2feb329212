package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-asyncevent/config"
	"github.com/KOMKZ/go-yogan-asyncevent/errcode"
	"github.com/KOMKZ/go-yogan-asyncevent/event"
	"github.com/KOMKZ/go-yogan-asyncevent/health"
	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"github.com/KOMKZ/go-yogan-asyncevent/registry"
	"github.com/KOMKZ/go-yogan-asyncevent/telemetry"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// AppState 应用状态
type AppState int

const (
	StateInit AppState = iota
	StateSetup
	StateRunning
	StateStopping
	StateStopped
)

// String 状态字符串表示
func (s AppState) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateSetup:
		return "Setup"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Application 异步事件运行时
// samber/do 负责构造组件，Registry 负责按依赖顺序 Init / Start / Stop
type Application struct {
	injector *do.RootScope
	registry *registry.Registry
	logger   *logger.CtxZapLogger

	configOpts    ConfigOptions
	telemetryOpts []telemetry.ComponentOption
	eventOpts     []event.ComponentOption

	state AppState
	mu    sync.RWMutex

	name    string
	version string

	onSetup    func(context.Context, *Application) error
	onReady    func(context.Context, *Application) error
	onShutdown func(context.Context) error
}

// AppOption 应用选项函数
type AppOption func(*Application)

// WithName 设置应用名称（同时是应用 logger 的模块名）
func WithName(name string) AppOption {
	return func(app *Application) {
		app.name = name
	}
}

// WithVersion 设置应用版本
func WithVersion(version string) AppOption {
	return func(app *Application) {
		app.version = version
	}
}

// WithConfig 设置配置来源
func WithConfig(opts ConfigOptions) AppOption {
	return func(app *Application) {
		app.configOpts = opts
	}
}

// WithTelemetryOptions 透传 telemetry 组件选项
func WithTelemetryOptions(opts ...telemetry.ComponentOption) AppOption {
	return func(app *Application) {
		app.telemetryOpts = append(app.telemetryOpts, opts...)
	}
}

// WithEventOptions 透传 event 组件选项
func WithEventOptions(opts ...event.ComponentOption) AppOption {
	return func(app *Application) {
		app.eventOpts = append(app.eventOpts, opts...)
	}
}

// WithOnSetup 所有组件 Init 之后调用
func WithOnSetup(fn func(context.Context, *Application) error) AppOption {
	return func(app *Application) {
		app.onSetup = fn
	}
}

// WithOnReady 所有组件 Start 之后调用
func WithOnReady(fn func(context.Context, *Application) error) AppOption {
	return func(app *Application) {
		app.onReady = fn
	}
}

// WithOnShutdown 组件停止之前调用
func WithOnShutdown(fn func(context.Context) error) AppOption {
	return func(app *Application) {
		app.onShutdown = fn
	}
}

// NewApplication 创建应用并注册全部 Provider（懒加载）
func NewApplication(opts ...AppOption) *Application {
	app := &Application{
		injector: do.New(),
		state:    StateInit,
		name:     "asyncevent",
		version:  "0.0.1",
	}
	for _, opt := range opts {
		opt(app)
	}

	do.Provide(app.injector, ProvideConfigComponent(app.configOpts))
	do.Provide(app.injector, ProvideConfigLoader)
	do.Provide(app.injector, ProvideLoggerComponent)
	do.Provide(app.injector, ProvideCtxLogger(app.name))
	do.Provide(app.injector, ProvideTelemetryComponent(app.telemetryOpts...))
	do.Provide(app.injector, ProvideEventComponent(app.eventOpts...))
	do.Provide(app.injector, ProvideHealthComponent(
		health.WithMetadata("service", app.name),
		health.WithMetadata("version", app.version),
	))
	do.Provide(app.injector, ProvideRegistry)
	return app
}

// Injector 获取 do 注入器
func (app *Application) Injector() *do.RootScope {
	return app.injector
}

// Logger 应用 logger，Setup 之后可用
func (app *Application) Logger() *logger.CtxZapLogger {
	return app.logger
}

// Registry 组件注册中心，Setup 之后可用
func (app *Application) Registry() *registry.Registry {
	return app.registry
}

// ConfigLoader 配置加载器
func (app *Application) ConfigLoader() *config.Loader {
	loader, err := do.Invoke[*config.Loader](app.injector)
	if err != nil {
		return nil
	}
	return loader
}

// Event 事件组件
func (app *Application) Event() *event.Component {
	ec, err := do.Invoke[*event.Component](app.injector)
	if err != nil {
		return nil
	}
	return ec
}

// Telemetry 遥测组件
func (app *Application) Telemetry() *telemetry.Component {
	tc, err := do.Invoke[*telemetry.Component](app.injector)
	if err != nil {
		return nil
	}
	return tc
}

// Health 执行一次健康检查
func (app *Application) Health(ctx context.Context) *health.Response {
	hc, err := do.Invoke[*health.Component](app.injector)
	if err != nil {
		return &health.Response{
			Status:    health.StatusUnhealthy,
			Timestamp: time.Now(),
			Checks:    map[string]health.CheckResult{},
			Metadata:  map[string]interface{}{"error": err.Error()},
		}
	}
	return hc.Check(ctx)
}

// State 当前状态
func (app *Application) State() AppState {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.state
}

func (app *Application) setState(state AppState) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.state = state
}

// Setup 加载配置并按依赖顺序初始化全部组件
// 完成后锁定错误码注册表
func (app *Application) Setup(ctx context.Context) error {
	app.setState(StateSetup)

	reg, err := do.Invoke[*registry.Registry](app.injector)
	if err != nil {
		return fmt.Errorf("组件装配失败: %w", err)
	}
	app.registry = reg

	if err := reg.Init(ctx); err != nil {
		return fmt.Errorf("组件初始化失败: %w", err)
	}

	app.logger, err = do.Invoke[*logger.CtxZapLogger](app.injector)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	reg.SetLogger(logger.GetLogger("registry"))
	errcode.LockGlobalRegistry()

	app.logger.InfoCtx(ctx, "🔧 应用初始化完成",
		zap.String("name", app.name),
		zap.String("version", app.version),
		zap.Strings("config_files", app.ConfigLoader().GetLoadedFiles()),
		zap.Int("error_codes", errcode.GetRegistryCount()))

	if app.onSetup != nil {
		if err := app.onSetup(ctx, app); err != nil {
			return fmt.Errorf("setup 回调失败: %w", err)
		}
	}
	return nil
}

// Start 启动组件
func (app *Application) Start(ctx context.Context) error {
	if err := app.registry.Start(ctx); err != nil {
		return fmt.Errorf("组件启动失败: %w", err)
	}
	app.setState(StateRunning)
	app.logger.InfoCtx(ctx, "✅ 应用启动完成", zap.String("state", app.State().String()))

	if app.onReady != nil {
		if err := app.onReady(ctx, app); err != nil {
			return fmt.Errorf("ready 回调失败: %w", err)
		}
	}
	return nil
}

// Run Setup → Start → fn → Shutdown，适用于 CLI 一次性任务
// fn 的错误优先返回，Shutdown 总会执行
func (app *Application) Run(ctx context.Context, fn func(context.Context, *Application) error) (err error) {
	if err := app.Setup(ctx); err != nil {
		app.shutdownQuietly(ctx)
		return err
	}
	defer func() {
		if serr := app.Shutdown(context.WithoutCancel(ctx)); err == nil {
			err = serr
		}
	}()

	if err := app.Start(ctx); err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	return fn(ctx, app)
}

func (app *Application) shutdownQuietly(ctx context.Context) {
	if app.registry != nil {
		_ = app.registry.Stop(ctx)
	}
	_ = app.injector.Shutdown()
	app.setState(StateStopped)
}

// Shutdown 反向停止全部组件并关闭容器
func (app *Application) Shutdown(ctx context.Context) error {
	app.setState(StateStopping)
	log := app.logger
	if log == nil {
		log = logger.GetLogger(app.name)
	}
	log.InfoCtx(ctx, "🔄 开始优雅关闭...")

	if app.onShutdown != nil {
		if err := app.onShutdown(ctx); err != nil {
			log.WarnCtx(ctx, "shutdown 回调失败", zap.Error(err))
		}
	}

	var stopErr error
	if app.registry != nil {
		stopErr = app.registry.Stop(ctx)
		if stopErr != nil {
			log.ErrorCtx(ctx, "组件停止失败", zap.Error(stopErr))
		}
	}

	if err := app.injector.Shutdown(); err != nil {
		log.WarnCtx(ctx, "injector shutdown 失败", zap.Error(err))
	}

	app.setState(StateStopped)
	return stopErr
}
