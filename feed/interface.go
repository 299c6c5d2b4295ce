package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/marketdash/marketdash/model"
)

const (
	DataFeedProviderYahoo        = "yahoo"
	DataFeedProviderAlphaVantage = "alphavantage"
	DataFeedProviderLocal        = "local"
)

// FeedConsumer is a market-data provider. Implementations classify upstream
// failures: unknown tickers surface as NOT_FOUND and are never retried,
// transient faults surface as retryable errors.
type FeedConsumer interface {
	FetchQuote(ctx context.Context, symbol string) (*model.StockInfo, error)
	FetchHistory(ctx context.Context, symbol, rng string) (*model.MarketData, error)
	ProviderName() string
}

// Options carries provider construction settings.
type Options struct {
	Timeout         time.Duration
	AlphaVantageKey string
	LocalDataDir    string
}

// NewFeedConsumer builds the provider selected by name.
func NewFeedConsumer(provider string, opts Options) (FeedConsumer, error) {
	switch provider {
	case DataFeedProviderYahoo:
		return NewYahooDataFeed(opts.Timeout), nil
	case DataFeedProviderAlphaVantage:
		return NewAlphaVantageFeed(opts.AlphaVantageKey, opts.Timeout)
	case DataFeedProviderLocal:
		return NewLocalDataFeed(opts.LocalDataDir), nil
	default:
		return nil, fmt.Errorf("unsupported data feed provider: %s", provider)
	}
}
