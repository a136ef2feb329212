package telemetry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/KOMKZ/go-yogan-asyncevent/component"
	"github.com/KOMKZ/go-yogan-asyncevent/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MetricsRegistry hands each MetricsProvider its own Meter and remembers who registered.
type MetricsRegistry struct {
	meterProvider metric.MeterProvider
	meters        map[string]metric.Meter
	providers     map[string]component.MetricsProvider
	namespace     string
	logger        *logger.CtxZapLogger
	mu            sync.RWMutex
}

// MetricsRegistryOption configures the MetricsRegistry.
type MetricsRegistryOption func(*MetricsRegistry)

// WithNamespace sets the meter name prefix.
func WithNamespace(namespace string) MetricsRegistryOption {
	return func(r *MetricsRegistry) {
		r.namespace = namespace
	}
}

// WithLogger sets the logger for the registry.
func WithLogger(l *logger.CtxZapLogger) MetricsRegistryOption {
	return func(r *MetricsRegistry) {
		r.logger = l
	}
}

// NewMetricsRegistry creates a new MetricsRegistry.
// If meterProvider is nil, the global MeterProvider will be used.
func NewMetricsRegistry(mp metric.MeterProvider, opts ...MetricsRegistryOption) *MetricsRegistry {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	r := &MetricsRegistry{
		meterProvider: mp,
		meters:        make(map[string]metric.Meter),
		providers:     make(map[string]component.MetricsProvider),
		namespace:     "asyncevent",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.GetLogger("telemetry")
	}
	return r
}

// Register creates a Meter for the provider and calls RegisterMetrics.
// Disabled providers are skipped; a name can only be registered once.
func (r *MetricsRegistry) Register(provider component.MetricsProvider) error {
	if provider == nil {
		return errors.New("metrics provider is nil")
	}
	name := provider.MetricsName()
	if name == "" {
		return errors.New("metrics provider name is empty")
	}
	if !provider.IsMetricsEnabled() {
		r.logger.Debug("metrics disabled for provider", zap.String("provider", name))
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[name]; ok {
		return fmt.Errorf("metrics provider %q already registered", name)
	}
	if err := provider.RegisterMetrics(r.getMeterLocked(name)); err != nil {
		return fmt.Errorf("register metrics for %q failed: %w", name, err)
	}

	r.providers[name] = provider
	r.logger.Info("metrics provider registered", zap.String("provider", name))
	return nil
}

// GetMeter returns the Meter named {namespace}_{name}.
func (r *MetricsRegistry) GetMeter(name string) metric.Meter {
	r.mu.RLock()
	if meter, ok := r.meters[name]; ok {
		r.mu.RUnlock()
		return meter
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getMeterLocked(name)
}

func (r *MetricsRegistry) getMeterLocked(name string) metric.Meter {
	if meter, ok := r.meters[name]; ok {
		return meter
	}
	meterName := name
	if r.namespace != "" {
		meterName = r.namespace + "_" + name
	}
	meter := r.meterProvider.Meter(meterName)
	r.meters[name] = meter
	return meter
}

// IsRegistered reports whether a provider with this name was registered.
func (r *MetricsRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// ProviderCount returns the number of registered providers.
func (r *MetricsRegistry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

var _ component.MetricsCollector = (*MetricsRegistry)(nil)
