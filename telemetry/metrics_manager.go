package telemetry

import (
	"context"
	"fmt"
	"io"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// newMeterProvider 创建 MeterProvider（周期导出）
// noop 类型不挂载 reader，仪表可用但不导出
func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource, w io.Writer) (*sdkmetric.MeterProvider, error) {
	exporter, err := newMetricExporter(ctx, cfg.Exporter, w)
	if err != nil {
		return nil, fmt.Errorf("create metrics exporter failed: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if exporter != nil {
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter,
				sdkmetric.WithInterval(cfg.Metrics.ExportInterval),
				sdkmetric.WithTimeout(cfg.Metrics.ExportTimeout),
			),
		))
	}

	return sdkmetric.NewMeterProvider(opts...), nil
}
