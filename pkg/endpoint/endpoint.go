package endpoint

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/marketdash/marketdash/model"
	"github.com/marketdash/marketdash/pkg/service"
)

// Endpoints holds all Go-Kit endpoints.
type Endpoints struct {
	GetStock    endpoint.Endpoint
	GetChart    endpoint.Endpoint
	GetTrend    endpoint.Endpoint
	Search      endpoint.Endpoint
	TopMovers   endpoint.Endpoint
	CacheStats  endpoint.Endpoint
	CheckHealth endpoint.Endpoint
}

// GetStockRequest asks for a single quote.
type GetStockRequest struct {
	Symbol string
}

// GetChartRequest asks for a chart window.
type GetChartRequest struct {
	Symbol string
	Period model.Period
}

// GetTrendRequest asks for the trend summary.
type GetTrendRequest struct {
	Symbol string
}

// SearchRequest asks for ticker suggestions.
type SearchRequest struct {
	Term string
}

// TopMoversRequest asks for the gainers table.
type TopMoversRequest struct {
	Limit int
}

// MakeEndpoints creates endpoints for the service.
func MakeEndpoints(s service.Service, h service.HealthService) Endpoints {
	return Endpoints{
		GetStock:    makeGetStockEndpoint(s),
		GetChart:    makeGetChartEndpoint(s),
		GetTrend:    makeGetTrendEndpoint(s),
		Search:      makeSearchEndpoint(s),
		TopMovers:   makeTopMoversEndpoint(s),
		CacheStats:  makeCacheStatsEndpoint(s),
		CheckHealth: makeCheckHealthEndpoint(h),
	}
}

func makeGetStockEndpoint(s service.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(GetStockRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}
		return s.GetStock(ctx, req.Symbol)
	}
}

func makeGetChartEndpoint(s service.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(GetChartRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}
		return s.GetChart(ctx, req.Symbol, req.Period)
	}
}

func makeGetTrendEndpoint(s service.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(GetTrendRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}
		return s.GetTrend(ctx, req.Symbol)
	}
}

func makeSearchEndpoint(s service.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(SearchRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}
		return s.Suggest(req.Term), nil
	}
}

func makeTopMoversEndpoint(s service.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(TopMoversRequest)
		if !ok {
			return nil, errors.New("invalid request")
		}
		return s.TopMovers(ctx, req.Limit)
	}
}

func makeCacheStatsEndpoint(s service.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return s.CacheStats(), nil
	}
}

func makeCheckHealthEndpoint(h service.HealthService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return h.CheckHealth(ctx), nil
	}
}
