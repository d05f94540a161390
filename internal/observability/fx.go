package observability

import (
	"github.com/smallbiznis/shipdesk/internal/observability/logger"
	"github.com/smallbiznis/shipdesk/internal/observability/metrics"
	"github.com/smallbiznis/shipdesk/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// Module provides the process logger, the gorm SQL logger, the tracer
// provider and the metrics instruments.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		func(cfg Config) logger.Config {
			out := logger.Config{
				ServiceName: cfg.ServiceName,
				Environment: cfg.Environment,
				Version:     cfg.Version,
				Level:       cfg.LogLevel,
				Format:      cfg.LogFormat,
				Debug:       cfg.Debug(),
			}
			if cfg.LogSampling {
				out.SamplingInitial, out.SamplingThereafter = 100, 100
			}
			return out
		},
		logger.New,
		newSQLLogger,
		func(cfg Config) tracing.Config {
			return tracing.Config{
				Enabled:          cfg.OtelEnabled,
				ServiceName:      cfg.ServiceName,
				ServiceVersion:   cfg.Version,
				Environment:      cfg.Environment,
				ExporterEndpoint: cfg.OtelExporterEndpoint,
				ExporterProtocol: cfg.OtelExporterProtocol,
				SamplingRatio:    cfg.OtelSamplingRatio,
			}
		},
		tracing.NewProvider,
		func(cfg Config) metrics.Config {
			return metrics.Config{
				Enabled:          cfg.OtelEnabled,
				ExporterEndpoint: cfg.OtelExporterEndpoint,
				ExporterProtocol: cfg.OtelExporterProtocol,
				ServiceName:      cfg.ServiceName,
				Environment:      cfg.Environment,
			}
		},
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// The tracer provider is only consumed through the otel globals.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func newSQLLogger(cfg Config, log *zap.Logger) gormlogger.Interface {
	return logger.NewSQLLogger(log, logger.SQLConfig{
		Verbose:       cfg.LogSQL,
		SlowThreshold: cfg.SlowQueryThreshold,
	})
}
