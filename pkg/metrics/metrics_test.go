package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCounterRoundTrip(t *testing.T) {
	c := NewSimpleMetricsCollector(zap.NewNop())

	labels := map[string]string{"provider": "yahoo", "operation": "quote"}
	c.IncrementCounter("feed_requests_total", labels)
	c.IncrementCounter("feed_requests_total", labels)

	assert.Equal(t, 2.0, c.Counter("feed_requests_total", labels))
	assert.Equal(t, 0.0, c.Counter("feed_requests_total", map[string]string{"provider": "local"}))
}

func TestMetricKeyIsLabelOrderIndependent(t *testing.T) {
	a := buildMetricKey("m", map[string]string{"a": "1", "b": "2", "c": "3"})
	b := buildMetricKey("m", map[string]string{"c": "3", "a": "1", "b": "2"})
	assert.Equal(t, a, b)
}

func TestApplicationMetricsRecordsRequests(t *testing.T) {
	c := NewSimpleMetricsCollector(zap.NewNop())
	am := NewApplicationMetrics(c, zap.NewNop())

	am.RecordHTTPRequest("GET", "/stocks/AAPL", 200, 10*time.Millisecond)
	am.RecordFeedRequest("yahoo", "quote", true, 20*time.Millisecond)
	am.RecordRateLimited("/stocks/AAPL")

	assert.Equal(t, 1.0, c.Counter("http_requests_total",
		map[string]string{"method": "GET", "path": "/stocks/AAPL", "status": "200"}))
	assert.Equal(t, 1.0, c.Counter("feed_requests_total",
		map[string]string{"provider": "yahoo", "operation": "quote", "success": "true"}))
	assert.Equal(t, 1.0, c.Counter("http_requests_rate_limited_total",
		map[string]string{"path": "/stocks/AAPL"}))
}
