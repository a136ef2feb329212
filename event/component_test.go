package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-asyncevent/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// mockConfigLoader 模拟配置加载器
type mockConfigLoader struct {
	data      map[string]interface{}
	shouldErr bool
}

func (m *mockConfigLoader) Unmarshal(key string, v interface{}) error {
	if m.shouldErr {
		return assert.AnError
	}
	if cfg, ok := v.(*Config); ok {
		if ec, ok := m.data[key].(Config); ok {
			*cfg = ec
		}
	}
	return nil
}

func (m *mockConfigLoader) Get(key string) interface{} {
	return m.data[key]
}

func (m *mockConfigLoader) GetString(key string) string {
	if v, ok := m.data[key].(string); ok {
		return v
	}
	return ""
}

func (m *mockConfigLoader) GetInt(key string) int {
	if v, ok := m.data[key].(int); ok {
		return v
	}
	return 0
}

func (m *mockConfigLoader) GetBool(key string) bool {
	if v, ok := m.data[key].(bool); ok {
		return v
	}
	return false
}

func (m *mockConfigLoader) IsSet(key string) bool {
	_, exists := m.data[key]
	return exists
}

func loaderWith(cfg Config) *mockConfigLoader {
	return &mockConfigLoader{data: map[string]interface{}{"event": cfg}}
}

// ===== Component 测试 =====

func TestComponent_Name(t *testing.T) {
	assert.Equal(t, "event", NewComponent().Name())
}

func TestComponent_DependsOn(t *testing.T) {
	deps := NewComponent().DependsOn()
	assert.Contains(t, deps, "config")
	assert.Contains(t, deps, "logger")
	assert.Contains(t, deps, "optional:telemetry")
}

func TestComponent_Init(t *testing.T) {
	c := NewComponent()
	err := c.Init(context.Background(), loaderWith(Config{
		Enabled:        true,
		PoolSize:       50,
		DefaultOptions: "in_order|fail_on_first_exception",
	}))
	require.NoError(t, err)
	defer c.Stop(context.Background())

	assert.True(t, c.IsEnabled())
	assert.NotNil(t, c.Invoker())
	require.NotNil(t, c.Pool())
	assert.Equal(t, 50, c.Pool().Cap())
	assert.Equal(t, InvokeInOrder|FailOnFirstException, c.Config().InvokeOptions())
	assert.Nil(t, c.Metrics())
}

func TestComponent_Init_NoEventSection(t *testing.T) {
	c := NewComponent()
	require.NoError(t, c.Init(context.Background(), &mockConfigLoader{}))
	defer c.Stop(context.Background())

	assert.True(t, c.IsEnabled())
	assert.Equal(t, 100, c.Config().PoolSize)
	assert.Equal(t, InvokeInParallel, c.Config().InvokeOptions())
}

func TestComponent_Init_NilLoader(t *testing.T) {
	c := NewComponent()
	require.NoError(t, c.Init(context.Background(), nil))
	defer c.Stop(context.Background())

	assert.True(t, c.IsEnabled())
}

func TestComponent_Init_UnmarshalError(t *testing.T) {
	c := NewComponent()
	loader := &mockConfigLoader{
		data:      map[string]interface{}{"event": Config{}},
		shouldErr: true,
	}

	err := c.Init(context.Background(), loader)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestComponent_Init_ZeroFieldsGetDefaults(t *testing.T) {
	c := NewComponent()
	require.NoError(t, c.Init(context.Background(), loaderWith(Config{Enabled: true})))
	defer c.Stop(context.Background())

	assert.Equal(t, 100, c.Config().PoolSize)
	assert.Equal(t, "in_parallel", c.Config().DefaultOptions)
}

func TestComponent_Init_Disabled(t *testing.T) {
	c := NewComponent()
	require.NoError(t, c.Init(context.Background(), loaderWith(Config{Enabled: false, PoolSize: 50})))

	assert.False(t, c.IsEnabled())
	assert.Nil(t, c.Invoker())
	assert.Nil(t, c.Pool())
	assert.NoError(t, c.Stop(context.Background()))
}

func TestComponent_Init_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative pool size", Config{Enabled: true, PoolSize: -1}},
		{"unknown option", Config{Enabled: true, PoolSize: 10, DefaultOptions: "sideways"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewComponent()
			err := c.Init(context.Background(), loaderWith(tt.cfg))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var le *errcode.LayeredError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, ErrInvalidConfig.Code(), le.Code())
			assert.Nil(t, c.Pool())
		})
	}
}

func TestComponent_Init_WithMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	c := NewComponent(WithMeterProvider(mp))
	require.NoError(t, c.Init(context.Background(), loaderWith(Config{Enabled: true, PoolSize: 4, Metrics: true})))
	defer c.Stop(context.Background())

	require.NotNil(t, c.Metrics())
	assert.True(t, c.Metrics().IsRegistered())

	s := NewComponentSource[string](c)
	s.Subscribe(noopHandler)
	s.Subscribe(noopHandler)
	require.NoError(t, s.RaiseDefault(context.Background(), "x"))

	assert.Equal(t, int64(1), sumCounter(t, reader, "event_invocations_total"))
	_, ok := findMetric(t, reader, "event_async_pending")
	assert.True(t, ok)
}

func TestComponent_Stop_Idempotent(t *testing.T) {
	c := NewComponent()
	require.NoError(t, c.Init(context.Background(), nil))

	assert.NoError(t, c.Stop(context.Background()))
	assert.NoError(t, c.Stop(context.Background()))
	assert.Nil(t, c.Pool())
}

func TestComponent_Stop_WaitsForAsyncRaise(t *testing.T) {
	c := NewComponent()
	require.NoError(t, c.Init(context.Background(), loaderWith(Config{Enabled: true, PoolSize: 2})))

	var done atomic.Bool
	s := NewComponentSource[string](c)
	s.Subscribe(func(ctx context.Context, sender any, args string) error {
		time.Sleep(50 * time.Millisecond)
		done.Store(true)
		return nil
	})
	ch := s.RaiseAsync(context.Background(), "x", InvokeInParallel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Stop(ctx))

	assert.True(t, done.Load())
	assert.NoError(t, <-ch)
}

func TestNewComponentSource(t *testing.T) {
	t.Run("uses component defaults", func(t *testing.T) {
		c := NewComponent()
		require.NoError(t, c.Init(context.Background(), loaderWith(Config{
			Enabled:        true,
			PoolSize:       2,
			DefaultOptions: "in_order|fail_on_first_exception",
		})))
		defer c.Stop(context.Background())

		var second atomic.Bool
		s := NewComponentSource[string](c)
		s.Subscribe(func(ctx context.Context, sender any, args string) error { return errors.New("first") })
		s.Subscribe(func(ctx context.Context, sender any, args string) error {
			second.Store(true)
			return nil
		})

		err := s.RaiseDefault(context.Background(), "x")
		require.EqualError(t, err, "first")
		assert.False(t, second.Load())
	})

	t.Run("caller options override", func(t *testing.T) {
		c := NewComponent()
		require.NoError(t, c.Init(context.Background(), loaderWith(Config{
			Enabled:        true,
			PoolSize:       2,
			DefaultOptions: "in_order|fail_on_first_exception",
		})))
		defer c.Stop(context.Background())

		s := NewComponentSource[string](c, WithDefaultOptions(InvokeInOrder))
		s.Subscribe(func(ctx context.Context, sender any, args string) error { return errors.New("a") })
		s.Subscribe(func(ctx context.Context, sender any, args string) error { return errors.New("b") })

		agg, ok := AsAggregate(s.RaiseDefault(context.Background(), "x"))
		require.True(t, ok)
		assert.Equal(t, 2, agg.Len())
	})

	t.Run("nil or disabled component", func(t *testing.T) {
		s := NewComponentSource[string](nil)
		s.Subscribe(noopHandler)
		assert.NoError(t, s.RaiseDefault(context.Background(), "x"))

		c := NewComponent()
		require.NoError(t, c.Init(context.Background(), loaderWith(Config{Enabled: false})))
		s = NewComponentSource[string](c)
		s.Subscribe(noopHandler)
		assert.NoError(t, <-s.RaiseAsync(context.Background(), "x", InvokeInParallel))
	})
}
