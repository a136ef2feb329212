package di

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"github.com/KOMKZ/go-yogan-asyncevent/event"
	"github.com/KOMKZ/go-yogan-asyncevent/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
logger:
  level: debug
  encoding: json
event:
  enabled: true
  pool_size: 4
  default_options: in_order
  metrics: true
  tracing: true
telemetry:
  enabled: true
  service_name: asyncevent-test
  exporter:
    type: stdout
  tracing:
    enabled: true
  metrics:
    enabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

func newTestApp(t *testing.T, content string, opts ...AppOption) (*Application, *bytes.Buffer) {
	t.Helper()
	t.Setenv("APP_ENV", "unit")
	var out bytes.Buffer
	base := []AppOption{
		WithName("di-test"),
		WithConfig(ConfigOptions{ConfigPath: writeConfig(t, content)}),
		WithTelemetryOptions(telemetry.WithWriter(&out), telemetry.WithGlobal(false)),
	}
	return NewApplication(append(base, opts...)...), &out
}

func TestAppState_String(t *testing.T) {
	assert.Equal(t, "Init", StateInit.String())
	assert.Equal(t, "Setup", StateSetup.String())
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Stopping", StateStopping.String())
	assert.Equal(t, "Stopped", StateStopped.String())
	assert.Equal(t, "Unknown", AppState(99).String())
}

func TestNewApplication_Defaults(t *testing.T) {
	app := NewApplication()
	assert.Equal(t, StateInit, app.State())
	assert.Equal(t, "asyncevent", app.name)
	assert.NotNil(t, app.Injector())
	assert.Nil(t, app.Registry())
	assert.Nil(t, app.Logger())
}

func TestApplication_Run(t *testing.T) {
	var setup, ready, shutdown bool
	var ec *event.Component
	app, out := newTestApp(t, testConfig,
		WithOnSetup(func(ctx context.Context, app *Application) error {
			setup = true
			assert.Equal(t, StateSetup, app.State())
			return nil
		}),
		WithOnReady(func(ctx context.Context, app *Application) error {
			ready = true
			return nil
		}),
		WithOnShutdown(func(ctx context.Context) error {
			shutdown = true
			return nil
		}),
	)

	err := app.Run(context.Background(), func(ctx context.Context, app *Application) error {
		assert.Equal(t, StateRunning, app.State())

		ec = app.Event()
		require.NotNil(t, ec)
		require.True(t, ec.IsEnabled())
		assert.Equal(t, event.InvokeInOrder, ec.Config().InvokeOptions())
		assert.True(t, app.Telemetry().MetricsRegistry().IsRegistered("event"))

		report := app.Health(ctx)
		assert.True(t, report.IsHealthy())
		assert.Contains(t, report.Checks, "event")
		assert.Equal(t, "di-test", report.Metadata["service"])

		src := event.NewComponentSource[string](ec)
		var order []int
		src.Subscribe(func(ctx context.Context, sender any, args string) error {
			order = append(order, 1)
			return errors.New("a")
		})
		src.Subscribe(func(ctx context.Context, sender any, args string) error {
			order = append(order, 2)
			return errors.New("b")
		})

		agg, ok := event.AsAggregate(<-src.RaiseAsync(ctx, "x", ec.Config().InvokeOptions()))
		require.True(t, ok)
		assert.Equal(t, 2, agg.Len())
		assert.Equal(t, []int{1, 2}, order)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, setup)
	assert.True(t, ready)
	assert.True(t, shutdown)
	assert.Equal(t, StateStopped, app.State())
	assert.Nil(t, ec.Pool(), "pool released on shutdown")

	// stdout exporter 在 Shutdown 时刷出 span 和指标
	assert.True(t, strings.Contains(out.String(), event.SpanName))
	assert.True(t, strings.Contains(out.String(), "event_invocations_total"))
}

func TestApplication_RunReturnsTaskError(t *testing.T) {
	app, _ := newTestApp(t, testConfig)
	boom := errors.New("boom")

	err := app.Run(context.Background(), func(context.Context, *Application) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateStopped, app.State())
}

func TestApplication_RunNilTask(t *testing.T) {
	var enabled bool
	app, _ := newTestApp(t, "event:\n  enabled: false\n", WithOnReady(func(ctx context.Context, app *Application) error {
		enabled = app.Event().IsEnabled()
		return nil
	}))
	require.NoError(t, app.Run(context.Background(), nil))
	assert.False(t, enabled)
}

func TestApplication_SetupInvalidEventConfig(t *testing.T) {
	app, _ := newTestApp(t, "event:\n  pool_size: -1\n")

	err := app.Run(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, event.ErrInvalidConfig)
	assert.Equal(t, StateStopped, app.State())
}

func TestApplication_SetupBrokenConfigFile(t *testing.T) {
	app, _ := newTestApp(t, "event: [unclosed")

	err := app.Setup(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "组件装配失败")
}

func TestApplication_OnSetupError(t *testing.T) {
	app, _ := newTestApp(t, testConfig, WithOnSetup(func(context.Context, *Application) error {
		return errors.New("nope")
	}))

	err := app.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup 回调失败")
}

func TestApplication_FlagsOverrideFile(t *testing.T) {
	type flags struct {
		PoolSize int `config:"event.pool_size"`
	}
	t.Setenv("APP_ENV", "unit")
	app := NewApplication(
		WithConfig(ConfigOptions{ConfigPath: writeConfig(t, testConfig), Flags: &flags{PoolSize: 9}}),
		WithTelemetryOptions(telemetry.WithWriter(&bytes.Buffer{}), telemetry.WithGlobal(false)),
	)

	require.NoError(t, app.Setup(context.Background()))
	defer app.Shutdown(context.Background())

	assert.Equal(t, 9, app.Event().Config().PoolSize)
	assert.Equal(t, 9, app.ConfigLoader().GetInt("event.pool_size"))
	assert.NotNil(t, app.Logger())

	order, err := app.Registry().Resolve()
	require.NoError(t, err)
	names := make([]string, len(order))
	for i, c := range order {
		names[i] = c.Name()
	}
	assert.Equal(t, []string{
		component.ComponentConfig,
		component.ComponentLogger,
		component.ComponentTelemetry,
		component.ComponentEvent,
		component.ComponentHealth,
	}, names)
}
