package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/marketdash/marketdash/feed"
	"github.com/marketdash/marketdash/model"
	"github.com/marketdash/marketdash/pkg/cache"
	apperrors "github.com/marketdash/marketdash/pkg/errors"
	"github.com/marketdash/marketdash/pkg/metrics"
	"github.com/marketdash/marketdash/pkg/retry"
	"github.com/marketdash/marketdash/pkg/symbols"
)

// ChartPoint is one rendered point of the price chart, date on the x axis
// and closing price on the y axis.
type ChartPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// ChartResponse defines the response for a chart request
type ChartResponse struct {
	Symbol string       `json:"symbol"`
	Period model.Period `json:"period"`
	Range  string       `json:"range"`
	Points []ChartPoint `json:"points"`
}

// SearchResponse defines the response for a suggestion request
type SearchResponse struct {
	Term        string   `json:"term"`
	Suggestions []string `json:"suggestions"`
}

// TopMoversResponse defines the response for the top-movers table
type TopMoversResponse struct {
	Stocks []*model.StockInfo `json:"stocks"`
}

// CacheStatsResponse is a snapshot across all service caches.
type CacheStatsResponse struct {
	Quotes   cache.Stats `json:"quotes"`
	Charts   cache.Stats `json:"charts"`
	Searches cache.Stats `json:"searches"`
}

// Service is the dashboard-facing API.
type Service interface {
	GetStock(ctx context.Context, symbol string) (*model.StockInfo, error)
	GetChart(ctx context.Context, symbol string, period model.Period) (*ChartResponse, error)
	GetTrend(ctx context.Context, symbol string) (*model.TrendSummary, error)
	Suggest(term string) SearchResponse
	TopMovers(ctx context.Context, limit int) (*TopMoversResponse, error)
	CacheStats() CacheStatsResponse
}

// Options tunes the service caches and retry policy.
type Options struct {
	QuoteCacheTTL  time.Duration
	ChartCacheTTL  time.Duration
	SearchCacheTTL time.Duration
	SearchCacheMax int
	TopMoversCount int
	FeedRetryMax   int

	// Clock overrides the cache time source in tests.
	Clock func() time.Time
}

// DefaultOptions mirror the dashboard's original freshness windows.
func DefaultOptions() Options {
	return Options{
		QuoteCacheTTL:  5 * time.Minute,
		ChartCacheTTL:  10 * time.Minute,
		SearchCacheTTL: 30 * time.Minute,
		SearchCacheMax: 100,
		TopMoversCount: 5,
		FeedRetryMax:   1,
	}
}

type stockService struct {
	feed     feed.FeedConsumer
	quotes   *cache.Cache
	charts   *cache.Cache
	searches *cache.Cache

	retryCfg retry.RetryConfig
	topCount int
	logger   *zap.Logger
	metrics  *metrics.ApplicationMetrics
}

// NewStockService wires the cache-backed fetch layer around a feed.
func NewStockService(f feed.FeedConsumer, opts Options, logger *zap.Logger, appMetrics *metrics.ApplicationMetrics) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopMoversCount <= 0 {
		opts.TopMoversCount = DefaultOptions().TopMoversCount
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	retryCfg := retry.DefaultRetryConfig()
	retryCfg.MaxAttempts = opts.FeedRetryMax
	retryCfg.Logger = logger

	return &stockService{
		feed:     f,
		quotes:   cache.New(opts.QuoteCacheTTL, cache.WithClock(clock)),
		charts:   cache.New(opts.ChartCacheTTL, cache.WithClock(clock)),
		searches: cache.New(opts.SearchCacheTTL, cache.WithClock(clock), cache.WithMaxEntries(opts.SearchCacheMax)),
		retryCfg: retryCfg,
		topCount: opts.TopMoversCount,
		logger:   logger,
		metrics:  appMetrics,
	}
}

func (s *stockService) GetStock(ctx context.Context, symbol string) (*model.StockInfo, error) {
	sym := symbols.Normalize(symbol)
	if !symbols.IsValid(sym) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeBadRequest, "invalid ticker symbol").WithDetails(symbol)
	}

	payload, err := s.quotes.GetOrLoad(ctx, sym, func(ctx context.Context) (interface{}, error) {
		return s.fetchQuote(ctx, sym)
	})
	if err != nil {
		return nil, err
	}
	return payload.(*model.StockInfo), nil
}

func (s *stockService) GetChart(ctx context.Context, symbol string, period model.Period) (*ChartResponse, error) {
	sym := symbols.Normalize(symbol)
	if !symbols.IsValid(sym) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeBadRequest, "invalid ticker symbol").WithDetails(symbol)
	}
	if !period.Known() {
		period = model.Period1M
	}

	data, err := s.history(ctx, sym, period.Range())
	if err != nil {
		return nil, err
	}

	points := make([]ChartPoint, 0, len(data.TimeSeries))
	for _, bar := range data.TimeSeries {
		points = append(points, ChartPoint{
			Date:  bar.Date.Format("2006-01-02"),
			Close: math.Round(bar.Close*100) / 100,
		})
	}

	return &ChartResponse{
		Symbol: sym,
		Period: period,
		Range:  period.Range(),
		Points: points,
	}, nil
}

func (s *stockService) GetTrend(ctx context.Context, symbol string) (*model.TrendSummary, error) {
	sym := symbols.Normalize(symbol)
	if !symbols.IsValid(sym) {
		return nil, apperrors.NewAppError(apperrors.ErrCodeBadRequest, "invalid ticker symbol").WithDetails(symbol)
	}

	data, err := s.history(ctx, sym, model.Period1M.Range())
	if err != nil {
		return nil, err
	}
	if len(data.TimeSeries) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "no data returned").WithDetails(sym)
	}

	return buildTrendSummary(sym, data.TimeSeries), nil
}

func (s *stockService) Suggest(term string) SearchResponse {
	normalized := symbols.Normalize(term)

	payload, err := s.searches.GetOrLoad(context.Background(), normalized, func(context.Context) (interface{}, error) {
		return symbols.Suggest(normalized), nil
	})
	if err != nil {
		// The suggestion loader never returns an error.
		return SearchResponse{Term: normalized, Suggestions: symbols.Suggest(normalized)}
	}
	return SearchResponse{Term: normalized, Suggestions: payload.([]string)}
}

func (s *stockService) TopMovers(ctx context.Context, limit int) (*TopMoversResponse, error) {
	if limit <= 0 || limit > len(symbols.PopularTickers) {
		limit = s.topCount
	}

	stocks := make([]*model.StockInfo, 0, len(symbols.PopularTickers))
	for _, ticker := range symbols.PopularTickers {
		info, err := s.GetStock(ctx, ticker)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("skipping ticker in top movers",
				zap.String("symbol", ticker),
				zap.Error(err))
			continue
		}
		stocks = append(stocks, info)
	}

	sort.SliceStable(stocks, func(i, j int) bool {
		return stocks[i].ChangePercent > stocks[j].ChangePercent
	})
	if len(stocks) > limit {
		stocks = stocks[:limit]
	}
	return &TopMoversResponse{Stocks: stocks}, nil
}

func (s *stockService) CacheStats() CacheStatsResponse {
	return CacheStatsResponse{
		Quotes:   s.quotes.Stats(),
		Charts:   s.charts.Stats(),
		Searches: s.searches.Stats(),
	}
}

func (s *stockService) fetchQuote(ctx context.Context, sym string) (*model.StockInfo, error) {
	start := time.Now()
	result, err := retry.RetryWithResultFunc(ctx, s.retryCfg, func() (interface{}, error) {
		return s.feed.FetchQuote(ctx, sym)
	})
	s.recordFeed("quote", err == nil, time.Since(start))
	if err != nil {
		s.logger.Warn("quote fetch failed", zap.String("symbol", sym), zap.Error(err))
		return nil, err
	}
	return result.(*model.StockInfo), nil
}

// history returns the cached series for symbol+range, fetching on a miss.
// The chart cache is keyed by the concrete provider range so "1M" and an
// unknown label that falls back to 1mo share an entry.
func (s *stockService) history(ctx context.Context, sym, rng string) (*model.MarketData, error) {
	key := sym + ":" + rng
	payload, err := s.charts.GetOrLoad(ctx, key, func(ctx context.Context) (interface{}, error) {
		start := time.Now()
		result, err := retry.RetryWithResultFunc(ctx, s.retryCfg, func() (interface{}, error) {
			return s.feed.FetchHistory(ctx, sym, rng)
		})
		s.recordFeed("history", err == nil, time.Since(start))
		if err != nil {
			s.logger.Warn("history fetch failed",
				zap.String("symbol", sym),
				zap.String("range", rng),
				zap.Error(err))
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return payload.(*model.MarketData), nil
}

func (s *stockService) recordFeed(operation string, success bool, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordFeedRequest(s.feed.ProviderName(), operation, success, duration)
}

func buildTrendSummary(sym string, series []*model.PricePoint) *model.TrendSummary {
	summary := &model.TrendSummary{
		Symbol:       sym,
		StartPrice:   series[0].Close,
		CurrentPrice: series[len(series)-1].Close,
	}

	var volumeSum float64
	for _, bar := range series {
		if bar.High > summary.PeriodHigh {
			summary.PeriodHigh = bar.High
		}
		if bar.Low > 0 && (summary.PeriodLow == 0 || bar.Low < summary.PeriodLow) {
			summary.PeriodLow = bar.Low
		}
		volumeSum += float64(bar.Volume)
	}
	summary.AvgVolume = volumeSum / float64(len(series))

	if summary.StartPrice != 0 {
		summary.TrendChange = (summary.CurrentPrice - summary.StartPrice) / summary.StartPrice * 100
	}
	if summary.AvgVolume != 0 {
		recent := float64(series[len(series)-1].Volume)
		summary.VolumeTrend = (recent - summary.AvgVolume) / summary.AvgVolume * 100
	}
	return summary
}
