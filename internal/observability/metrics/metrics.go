package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures OTLP metric export.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics holds the business counters. A nil *Metrics records nothing.
type Metrics struct {
	settingsChanges metric.Int64Counter
	importRows      metric.Int64Counter
	exports         metric.Int64Counter
	demoOrders      metric.Int64Counter
	statusChanges   metric.Int64Counter
}

// NewProvider returns an OTLP-backed meter provider, or a no-op one when
// export is disabled. It becomes the otel global either way.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, fmt.Errorf("metrics exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName(cfg)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		)),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.StopHook(provider.Shutdown))
	}
	if log != nil {
		log.Info("exporting metrics", zap.String("endpoint", cfg.ExporterEndpoint), zap.String("protocol", cfg.ExporterProtocol))
	}
	return provider, nil
}

// New registers the counters on provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(serviceName(cfg))
	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.settingsChanges, "shipdesk_settings_changes_total", "Catalog, user and settings writes."},
		{&m.importRows, "shipdesk_import_rows_total", "Spreadsheet rows imported by outcome."},
		{&m.exports, "shipdesk_exports_total", "Files exported by entity and format."},
		{&m.demoOrders, "shipdesk_demo_orders_total", "Demo orders generated."},
		{&m.statusChanges, "shipdesk_order_status_changes_total", "Order status transitions by target status."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return m, nil
}

// NewNoop returns counters backed by a no-op provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordSettingsChange(ctx context.Context, entity, action string) {
	if m == nil {
		return
	}
	m.settingsChanges.Add(ctx, 1, labels("entity", entity, "action", action))
}

// RecordImportRows adds n rows with the given outcome: added, updated or skipped.
func (m *Metrics) RecordImportRows(ctx context.Context, entity, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.Add(ctx, int64(n), labels("entity", entity, "outcome", outcome))
}

func (m *Metrics) RecordExport(ctx context.Context, entity, format string) {
	if m == nil {
		return
	}
	m.exports.Add(ctx, 1, labels("entity", entity, "format", format))
}

func (m *Metrics) RecordDemoOrders(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.demoOrders.Add(ctx, int64(n))
}

func (m *Metrics) RecordStatusChange(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.statusChanges.Add(ctx, 1, labels("status", status))
}

// labels builds a filtered attribute option from key/value pairs.
func labels(kv ...string) metric.AddOption {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], strings.TrimSpace(kv[i+1])))
	}
	return metric.WithAttributes(FilterAttributes(attrs...)...)
}

func serviceName(cfg Config) string {
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		return name
	}
	return "shipdesk"
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// Only these label keys survive; anything else could carry client data.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"entity":      {},
	"action":      {},
	"outcome":     {},
	"format":      {},
	"status":      {},
	"route":       {},
	"status_code": {},
}

// FilterAttributes drops labels outside the allowed set.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; ok {
			filtered = append(filtered, attr)
		}
	}
	return filtered
}
