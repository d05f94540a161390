package observability

import (
	"strings"
	"time"

	"github.com/smallbiznis/shipdesk/internal/config"
	"github.com/spf13/viper"
)

// Config holds logging, tracing and metrics settings.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string
	// LogSQL logs every statement at debug level instead of only failures
	// and slow queries.
	LogSQL             bool
	LogSampling        bool
	SlowQueryThreshold time.Duration
	// QuietRoutes are logged at debug level.
	QuietRoutes []string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// LoadConfig layers observability environment variables over the
// application config.
func LoadConfig(cfg config.Config) Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DEPLOYMENT_ENV", cfg.Environment)
	v.SetDefault("SERVICE_VERSION", cfg.AppVersion)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_SQL", false)
	v.SetDefault("LOG_SAMPLING", false)
	v.SetDefault("DB_SLOW_QUERY_MS", 200)
	v.SetDefault("LOG_QUIET_ROUTES", "/health,/metrics")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	v.SetDefault("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	v.SetDefault("OTEL_SAMPLING_RATIO", 0.1)

	protocol := v.GetString("OTEL_EXPORTER_OTLP_PROTOCOL")
	if traces := strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		protocol = traces
	}

	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "shipdesk"
	}

	return Config{
		ServiceName:          name,
		Environment:          strings.TrimSpace(v.GetString("DEPLOYMENT_ENV")),
		Version:              strings.TrimSpace(v.GetString("SERVICE_VERSION")),
		LogLevel:             lower(v.GetString("LOG_LEVEL")),
		LogFormat:            lower(v.GetString("LOG_FORMAT")),
		LogSQL:               v.GetBool("LOG_SQL"),
		LogSampling:          v.GetBool("LOG_SAMPLING"),
		SlowQueryThreshold:   time.Duration(v.GetInt("DB_SLOW_QUERY_MS")) * time.Millisecond,
		QuietRoutes:          splitList(v.GetString("LOG_QUIET_ROUTES")),
		OtelEnabled:          v.GetBool("OTEL_ENABLED"),
		OtelExporterEndpoint: strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OtelExporterProtocol: lower(protocol),
		OtelSamplingRatio:    v.GetFloat64("OTEL_SAMPLING_RATIO"),
	}
}

// Debug reports whether verbose logging and gin debug mode apply.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch lower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
