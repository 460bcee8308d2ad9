package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupExportsRecordedMetrics(t *testing.T) {
	m, handler, err := Setup("social-feed-test")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordHTTPRequest(ctx, "GET", "/api/v1/feed", 200, 15*time.Millisecond)
	m.RecordCacheHit(ctx, "user")
	m.RecordCacheMiss(ctx, "user")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "social_http_requests_total")
	assert.Contains(t, string(body), "social_cache_hits_total")
}

func TestSetupTwice(t *testing.T) {
	_, _, err := Setup("a")
	require.NoError(t, err)
	_, _, err = Setup("b")
	assert.NoError(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest(context.Background(), "GET", "/", 200, time.Second)
		m.RecordCacheHit(context.Background(), "user")
		m.RecordEngagementError(context.Background(), "likes")
		m.RecordEventPublished(context.Background(), "like_created", true)
	})
}
