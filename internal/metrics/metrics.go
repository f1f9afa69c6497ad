package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SigNoz/storefront-go-client/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// AppMetrics holds all application metrics
type AppMetrics struct {
	// Backend API client
	APIRequestsTotal   metric.Int64Counter
	APIRequestsErrors  metric.Int64Counter
	APIRequestDuration metric.Float64Histogram

	// Query caches
	CacheHits          metric.Int64Counter
	CacheMisses        metric.Int64Counter
	CacheInvalidations metric.Int64Counter

	// Storefront workflows
	CheckoutOutcomes metric.Int64Counter
	OrdersPlaced     metric.Int64Counter
	RevenueTotal     metric.Float64Counter
	CouponsRedeemed  metric.Int64Counter
	ReviewsSubmitted metric.Int64Counter
	CartItemsCount   metric.Int64Gauge

	// Sandbox HTTP server
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Service name for adding to all metrics
	serviceName string
}

// InitMetrics builds an OTLP/HTTP meter provider and the application instruments
func InitMetrics(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*AppMetrics, *sdkmetric.MeterProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Environment attributes first, explicit attributes take precedence
	envRes, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		envRes = resource.Empty()
	}
	explicitRes, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.OTELDeploymentEnvironment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create explicit resource: %w", err)
	}
	res, err := resource.Merge(envRes, explicitRes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to merge resources: %w", err)
	}

	// WithEndpoint expects host:port without a scheme
	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.OTELExporterOTLPEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.OTELExporterOTLPHeaders != "" {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(parseHeaders(cfg.OTELExporterOTLPHeaders)))
	}
	if cfg.OTELExporterOTLPInsecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	logger.Info("metrics exporter configured",
		zap.String("endpoint", cfg.OTELExporterOTLPEndpoint),
		zap.String("path", "/v1/metrics"),
		zap.Bool("insecure", cfg.OTELExporterOTLPInsecure),
		zap.String("service", cfg.OTELServiceName),
	)

	appMetrics, err := New(meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		return nil, nil, err
	}
	return appMetrics, meterProvider, nil
}

// NewNoop returns instruments that record nothing
func NewNoop() *AppMetrics {
	m, err := New(noop.NewMeterProvider().Meter("noop"), "noop")
	if err != nil {
		// the noop meter never fails to create instruments
		panic(err)
	}
	return m
}

// New creates the application instruments on the given meter
func New(meter metric.Meter, serviceName string) (*AppMetrics, error) {
	// SigNoz default histogram buckets in milliseconds, expanded to 60s
	buckets := []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000, 15000, 20000, 30000, 45000, 60000}

	m := &AppMetrics{serviceName: serviceName}
	var err error

	if m.APIRequestsTotal, err = meter.Int64Counter(
		"api.client.request.count",
		metric.WithDescription("Total number of backend API requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create api requests counter: %w", err)
	}
	if m.APIRequestsErrors, err = meter.Int64Counter(
		"api.client.request.error.count",
		metric.WithDescription("Total number of failed backend API requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create api errors counter: %w", err)
	}
	if m.APIRequestDuration, err = meter.Float64Histogram(
		"api.client.request.duration",
		metric.WithDescription("Backend API request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create api duration histogram: %w", err)
	}

	if m.CacheHits, err = meter.Int64Counter(
		"cache_hits_total",
		metric.WithDescription("Total number of query cache hits"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}
	if m.CacheMisses, err = meter.Int64Counter(
		"cache_misses_total",
		metric.WithDescription("Total number of query cache misses"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}
	if m.CacheInvalidations, err = meter.Int64Counter(
		"cache_invalidations_total",
		metric.WithDescription("Total number of query cache invalidations"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache invalidations counter: %w", err)
	}

	if m.CheckoutOutcomes, err = meter.Int64Counter(
		"checkout_outcomes_total",
		metric.WithDescription("Checkout flows by terminal outcome"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create checkout outcomes counter: %w", err)
	}
	if m.OrdersPlaced, err = meter.Int64Counter(
		"orders_placed_total",
		metric.WithDescription("Total number of orders paid through checkout"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}
	if m.RevenueTotal, err = meter.Float64Counter(
		"revenue_total",
		metric.WithDescription("Total amount charged through checkout"),
		metric.WithUnit("USD"),
	); err != nil {
		return nil, fmt.Errorf("failed to create revenue counter: %w", err)
	}
	if m.CouponsRedeemed, err = meter.Int64Counter(
		"coupons_redeemed_total",
		metric.WithDescription("Total number of coupons redeemed with coins"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create coupons counter: %w", err)
	}
	if m.ReviewsSubmitted, err = meter.Int64Counter(
		"reviews_submitted_total",
		metric.WithDescription("Review submissions by status"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create reviews counter: %w", err)
	}
	if m.CartItemsCount, err = meter.Int64Gauge(
		"cart_items_count",
		metric.WithDescription("Current number of items in the cart"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cart items gauge: %w", err)
	}

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}
	if m.HTTPRequestsErrors, err = meter.Int64Counter(
		"http.server.request.error.count",
		metric.WithDescription("Total number of HTTP error requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http errors counter: %w", err)
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	return m, nil
}

// WithServiceName adds service.name to attributes
func (m *AppMetrics) WithServiceName(attrs []attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, attribute.String("service.name", m.serviceName))
}

// RecordAPIRequest records one backend call; status 0 means no HTTP response
func (m *AppMetrics) RecordAPIRequest(ctx context.Context, method, path string, status int, start time.Time) {
	duration := time.Since(start).Milliseconds()

	attrs := m.WithServiceName([]attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", status),
	})

	m.APIRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if status == 0 || status >= 400 {
		m.APIRequestsErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.APIRequestDuration.Record(ctx, float64(duration), metric.WithAttributes(attrs...))
}

// RecordCacheLookup counts a hit or a miss for a query key
func (m *AppMetrics) RecordCacheLookup(ctx context.Context, key string, hit bool) {
	attrs := metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{attribute.String("cache.key", key)})...)
	if hit {
		m.CacheHits.Add(ctx, 1, attrs)
		return
	}
	m.CacheMisses.Add(ctx, 1, attrs)
}

// RecordInvalidation counts a stale mark for a query key
func (m *AppMetrics) RecordInvalidation(ctx context.Context, key string) {
	m.CacheInvalidations.Add(ctx, 1, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("cache.key", key),
	})...))
}

// RecordCheckout records the terminal outcome of a checkout flow
func (m *AppMetrics) RecordCheckout(ctx context.Context, outcome string, total float64) {
	attrs := metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{attribute.String("outcome", outcome)})...)
	m.CheckoutOutcomes.Add(ctx, 1, attrs)
	if outcome == "succeeded" {
		m.OrdersPlaced.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(nil)...))
		m.RevenueTotal.Add(ctx, total, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
			attribute.String("currency", "USD"),
		})...))
	}
}

// RecordReview counts one review submission outcome
func (m *AppMetrics) RecordReview(ctx context.Context, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ReviewsSubmitted.Add(ctx, 1, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("status", status),
	})...))
}

// RecordRedemption counts a coupon redemption by tier
func (m *AppMetrics) RecordRedemption(ctx context.Context, tier string) {
	m.CouponsRedeemed.Add(ctx, 1, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("coupon.type", tier),
	})...))
}

// RecordServerRequest records one request handled by the sandbox backend
func (m *AppMetrics) RecordServerRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	attrs := m.WithServiceName([]attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	})
	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if status >= 400 {
		m.HTTPRequestsErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.HTTPRequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// parseHeaders parses header string in format "key1=value1,key2=value2"
// and returns a map of headers
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}

	pairs := strings.Split(headerStr, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
