package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newTracerProvider 创建 TracerProvider
// stdout 使用同步导出，otlp 使用批处理
func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource, w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := newSpanExporter(ctx, cfg.Exporter, w)
	if err != nil {
		return nil, fmt.Errorf("create span exporter failed: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.Sampler)),
	}
	if exporter != nil {
		if cfg.Exporter.Type == "otlp" {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		} else {
			opts = append(opts, sdktrace.WithSyncer(exporter))
		}
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

func newSampler(cfg SamplerConfig) sdktrace.Sampler {
	switch cfg.Type {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "trace_id_ratio":
		return sdktrace.TraceIDRatioBased(cfg.Ratio)
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}
