package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marketdash/marketdash/model"
	"github.com/marketdash/marketdash/pkg/endpoint"
	apperrors "github.com/marketdash/marketdash/pkg/errors"
	"github.com/marketdash/marketdash/pkg/service"
)

// stubFeed serves canned data so transport tests never leave the process.
type stubFeed struct{}

func (stubFeed) ProviderName() string { return "stub" }

func (stubFeed) FetchQuote(_ context.Context, symbol string) (*model.StockInfo, error) {
	if symbol == "XXXX" {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "symbol not found").WithDetails(symbol)
	}
	return &model.StockInfo{
		Symbol:        symbol,
		Name:          symbol + " Inc.",
		Price:         101.5,
		ChangePercent: 2.5,
		Volume:        1_000_000,
		AsOf:          time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC),
	}, nil
}

func (stubFeed) FetchHistory(_ context.Context, symbol, rng string) (*model.MarketData, error) {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return &model.MarketData{
		MetaData: &model.MetaData{Symbol: symbol, Range: rng, LastRefreshed: base, TimeZone: "UTC"},
		TimeSeries: []*model.PricePoint{
			{Date: base, Open: 100, High: 105, Low: 99, Close: 101.5, Volume: 1000},
			{Date: base.AddDate(0, 0, 1), Open: 101, High: 106, Low: 100, Close: 103, Volume: 1100},
		},
	}, nil
}

func newTestServer(t *testing.T, cfg HTTPConfig) *httptest.Server {
	t.Helper()
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 100
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 100
	}

	svc := service.NewStockService(stubFeed{}, service.DefaultOptions(), zap.NewNop(), nil)
	health := service.NewHealthService(stubFeed{}, zap.NewNop(), "test")
	endpoints := endpoint.MakeEndpoints(svc, health)

	server := httptest.NewServer(NewHTTPHandler(endpoints, cfg))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestGetStockEndpoint(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var info model.StockInfo
	resp := getJSON(t, server.URL+"/stocks/AAPL", &info)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "AAPL", info.Symbol)
	assert.Equal(t, 101.5, info.Price)
}

func TestGetStockEndpointNotFound(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var body apperrors.ErrorResponse
	resp := getJSON(t, server.URL+"/stocks/XXXX", &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperrors.ErrCodeNotFound, body.Code)
	assert.False(t, body.Retryable)
}

func TestGetStockEndpointBadSymbol(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var body apperrors.ErrorResponse
	resp := getJSON(t, server.URL+"/stocks/NOT-A-TICKER", &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.ErrCodeBadRequest, body.Code)
}

func TestGetChartEndpoint(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var chart service.ChartResponse
	resp := getJSON(t, server.URL+"/stocks/AAPL/chart?period=1Y", &chart)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.Period1Y, chart.Period)
	assert.Equal(t, "1y", chart.Range)
	require.Len(t, chart.Points, 2)
	assert.Equal(t, "2025-05-01", chart.Points[0].Date)
}

func TestGetChartEndpointDefaultsPeriod(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var chart service.ChartResponse
	resp := getJSON(t, server.URL+"/stocks/AAPL/chart", &chart)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.Period1M, chart.Period)
	assert.Equal(t, "1mo", chart.Range)
}

func TestGetTrendEndpoint(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var trend model.TrendSummary
	resp := getJSON(t, server.URL+"/stocks/AAPL/trend", &trend)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "AAPL", trend.Symbol)
	assert.Equal(t, 105.0, trend.PeriodHigh)
}

func TestSearchEndpoint(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var result service.SearchResponse
	resp := getJSON(t, server.URL+"/search?q=aapl", &result)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "AAPL", result.Term)
	assert.Contains(t, result.Suggestions, "AAPL")
}

func TestTopMoversEndpointInvalidLimit(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var body apperrors.ErrorResponse
	resp := getJSON(t, server.URL+"/top-movers?limit=abc", &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.ErrCodeBadRequest, body.Code)
}

func TestTopMoversEndpoint(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var result service.TopMoversResponse
	resp := getJSON(t, server.URL+"/top-movers?limit=3", &result)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, result.Stocks, 3)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	var health service.HealthResponse
	resp := getJSON(t, server.URL+"/health", &health)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, service.HealthStatusHealthy, health.Status)
	assert.Equal(t, "test", health.Version)
}

func TestCacheStatsEndpoint(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	getJSON(t, server.URL+"/stocks/AAPL", nil)

	var stats service.CacheStatsResponse
	resp := getJSON(t, server.URL+"/cache/stats", &stats)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, stats.Quotes.Size)
}

func TestRequestIDEchoed(t *testing.T) {
	server := newTestServer(t, HTTPConfig{})

	req, err := http.NewRequest(http.MethodGet, server.URL+"/stocks/AAPL", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "test-correlation-id")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "test-correlation-id", resp.Header.Get("X-Request-ID"))
}

func TestRateLimitExceeded(t *testing.T) {
	server := newTestServer(t, HTTPConfig{RequestsPerSecond: 1, BurstSize: 2})

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		resp, err := http.Get(server.URL + "/stocks/AAPL")
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}

	assert.Contains(t, statuses, http.StatusTooManyRequests)
	assert.Equal(t, http.StatusOK, statuses[0])
}
