package metrics

import (
	"context"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics methods are safe to call on a nil receiver so callers can run
// with metrics disabled.
type Metrics struct {
	HTTPRequests     metric.Int64Counter
	HTTPDuration     metric.Float64Histogram
	CacheHits        metric.Int64Counter
	CacheMisses      metric.Int64Counter
	EngagementErrors metric.Int64Counter
	EventsPublished  metric.Int64Counter
}

// Setup builds a meter provider exporting to a private prometheus registry and
// returns the handler serving it.
func Setup(serviceName string) (*Metrics, http.Handler, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	m := &Metrics{}

	m.HTTPRequests, err = meter.Int64Counter(
		"social_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"social_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.CacheHits, err = meter.Int64Counter(
		"social_cache_hits_total",
		metric.WithDescription("Total number of user cache hits"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.CacheMisses, err = meter.Int64Counter(
		"social_cache_misses_total",
		metric.WithDescription("Total number of user cache misses"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EngagementErrors, err = meter.Int64Counter(
		"social_engagement_lookup_errors_total",
		metric.WithDescription("Engagement lookups that failed and degraded to zero counts"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EventsPublished, err = meter.Int64Counter(
		"social_events_published_total",
		metric.WithDescription("Social events handed to the event bus"),
	)
	if err != nil {
		return nil, nil, err
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m, handler, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

func (m *Metrics) RecordCacheHit(ctx context.Context, cache string) {
	if m == nil {
		return
	}
	m.CacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", cache)))
}

func (m *Metrics) RecordCacheMiss(ctx context.Context, cache string) {
	if m == nil {
		return
	}
	m.CacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", cache)))
}

func (m *Metrics) RecordEngagementError(ctx context.Context, aggregate string) {
	if m == nil {
		return
	}
	m.EngagementErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("aggregate", aggregate)))
}

func (m *Metrics) RecordEventPublished(ctx context.Context, eventType string, ok bool) {
	if m == nil {
		return
	}
	m.EventsPublished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.Bool("ok", ok),
	))
}
