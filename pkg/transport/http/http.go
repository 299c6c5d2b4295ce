package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	httptransport "github.com/go-kit/kit/transport/http"
	"go.uber.org/zap"

	"github.com/marketdash/marketdash/model"
	"github.com/marketdash/marketdash/pkg/endpoint"
	apperrors "github.com/marketdash/marketdash/pkg/errors"
	"github.com/marketdash/marketdash/pkg/metrics"
	"github.com/marketdash/marketdash/pkg/middleware"
)

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	RequestsPerSecond int
	BurstSize         int
	Logger            *zap.Logger
	Metrics           *metrics.ApplicationMetrics
}

// NewHTTPHandler sets up HTTP handlers for the endpoints with middleware.
func NewHTTPHandler(endpoints endpoint.Endpoints, config HTTPConfig) http.Handler {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	opts := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
	}

	mux := http.NewServeMux()

	mux.Handle("GET /stocks/{symbol}", httptransport.NewServer(
		endpoints.GetStock,
		decodeGetStockRequest,
		encodeResponse,
		opts...,
	))

	mux.Handle("GET /stocks/{symbol}/chart", httptransport.NewServer(
		endpoints.GetChart,
		decodeGetChartRequest,
		encodeResponse,
		opts...,
	))

	mux.Handle("GET /stocks/{symbol}/trend", httptransport.NewServer(
		endpoints.GetTrend,
		decodeGetTrendRequest,
		encodeResponse,
		opts...,
	))

	mux.Handle("GET /search", httptransport.NewServer(
		endpoints.Search,
		decodeSearchRequest,
		encodeResponse,
		opts...,
	))

	mux.Handle("GET /top-movers", httptransport.NewServer(
		endpoints.TopMovers,
		decodeTopMoversRequest,
		encodeResponse,
		opts...,
	))

	mux.Handle("GET /cache/stats", httptransport.NewServer(
		endpoints.CacheStats,
		decodeEmptyRequest,
		encodeResponse,
		opts...,
	))

	mux.Handle("GET /health", httptransport.NewServer(
		endpoints.CheckHealth,
		decodeEmptyRequest,
		encodeResponse,
		opts...,
	))

	// Middleware stack, outermost first: recovery, request ID, request
	// logging, rate limiting.
	limiter := middleware.NewTokenBucketLimiter(config.RequestsPerSecond, config.BurstSize, config.Logger)

	var handler http.Handler = mux
	handler = middleware.RateLimit(limiter, config.Logger, config.Metrics)(handler)
	handler = middleware.RequestLogging(config.Logger, config.Metrics)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.Recovery(config.Logger)(handler)

	return handler
}

func decodeGetStockRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.GetStockRequest{Symbol: r.PathValue("symbol")}, nil
}

func decodeGetChartRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.GetChartRequest{
		Symbol: r.PathValue("symbol"),
		Period: model.Period(r.URL.Query().Get("period")),
	}, nil
}

func decodeGetTrendRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.GetTrendRequest{Symbol: r.PathValue("symbol")}, nil
}

func decodeSearchRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return endpoint.SearchRequest{Term: r.URL.Query().Get("q")}, nil
}

func decodeTopMoversRequest(_ context.Context, r *http.Request) (interface{}, error) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, apperrors.NewAppError(apperrors.ErrCodeBadRequest, "invalid limit").WithDetails(raw)
		}
		limit = n
	}
	return endpoint.TopMoversRequest{Limit: limit}, nil
}

func decodeEmptyRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return nil, nil
}

func encodeResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

// encodeError maps AppError codes onto HTTP statuses. Anything outside the
// AppError hierarchy is reported as a plain 500.
func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		appErr = apperrors.NewAppError(apperrors.ErrCodeInternal, "internal server error").WithCause(err)
	}
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		appErr = appErr.WithRequestID(requestID)
	}

	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(appErr.ToErrorResponse())
}
