package di

import (
	"testing"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"github.com/KOMKZ/go-yogan-asyncevent/config"
	"github.com/KOMKZ/go-yogan-asyncevent/event"
	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"github.com/KOMKZ/go-yogan-asyncevent/registry"
	"github.com/KOMKZ/go-yogan-asyncevent/telemetry"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviders_Wiring(t *testing.T) {
	injector := do.New()
	do.Provide(injector, ProvideConfigComponent(ConfigOptions{ConfigPath: writeConfig(t, testConfig)}))
	do.Provide(injector, ProvideConfigLoader)
	do.Provide(injector, ProvideLoggerComponent)
	do.Provide(injector, ProvideCtxLogger("orders"))
	do.Provide(injector, ProvideTelemetryComponent(telemetry.WithGlobal(false)))
	do.Provide(injector, ProvideEventComponent())
	do.Provide(injector, ProvideHealthComponent())
	do.Provide(injector, ProvideRegistry)

	loader := do.MustInvoke[*config.Loader](injector)
	assert.Equal(t, 4, loader.GetInt("event.pool_size"))
	assert.Same(t, do.MustInvoke[*config.Component](injector).Loader, loader)

	log := do.MustInvoke[*logger.CtxZapLogger](injector)
	assert.Equal(t, "orders", log.Module())

	reg := do.MustInvoke[*registry.Registry](injector)
	ec, ok := registry.GetTyped[*event.Component](reg, "event")
	require.True(t, ok)
	assert.Same(t, do.MustInvoke[*event.Component](injector), ec)
	assert.False(t, ec.IsEnabled(), "not initialized until the registry runs Init")
	assert.True(t, reg.Has(component.ComponentHealth))
}

func TestProvideConfigComponent_Error(t *testing.T) {
	injector := do.New()
	do.Provide(injector, ProvideConfigComponent(ConfigOptions{ConfigPath: writeConfig(t, "event: [unclosed")}))
	do.Provide(injector, ProvideConfigLoader)

	_, err := do.Invoke[*config.Loader](injector)
	assert.Error(t, err)
}
