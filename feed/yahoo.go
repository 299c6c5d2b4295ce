package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/marketdash/marketdash/model"
	apperrors "github.com/marketdash/marketdash/pkg/errors"
	"github.com/marketdash/marketdash/utils"
)

const (
	financeYahooBaseURL = "https://query2.finance.yahoo.com"
	yahooChartPath      = "%s/v8/finance/chart/%s?interval=1d&range=%s"
	yahooQuotePath      = "%s/v7/finance/quote?symbols=%s"
	userAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/91.0.4472.124"
)

type yahooFeed struct {
	client  *http.Client
	baseURL string
}

// NewYahooDataFeed creates the Yahoo Finance provider. Retries stay off on
// the HTTP client, retry policy belongs to the caller.
func NewYahooDataFeed(timeout time.Duration) FeedConsumer {
	return newYahooFeed(financeYahooBaseURL, timeout)
}

func newYahooFeed(baseURL string, timeout time.Duration) *yahooFeed {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	r := retryablehttp.NewClient()
	r.RetryMax = 0
	r.Logger = nil
	r.HTTPClient.Timeout = timeout
	return &yahooFeed{
		client:  r.StandardClient(),
		baseURL: baseURL,
	}
}

func (y *yahooFeed) ProviderName() string {
	return DataFeedProviderYahoo
}

func (y *yahooFeed) FetchQuote(ctx context.Context, symbol string) (*model.StockInfo, error) {
	url := fmt.Sprintf(yahooQuotePath, y.baseURL, symbol)
	resp, err := y.makeHTTPRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := y.checkResponseStatus(resp, symbol); err != nil {
		return nil, err
	}

	var quote model.YahooQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "failed to decode quote response").WithCause(err)
	}
	if quote.QuoteResponse.Error != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "quote API error").
			WithDetails(fmt.Sprintf("%v", quote.QuoteResponse.Error))
	}
	if len(quote.QuoteResponse.Result) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "symbol not found").WithDetails(symbol)
	}

	return y.extractQuote(&quote.QuoteResponse.Result[0], symbol), nil
}

func (y *yahooFeed) FetchHistory(ctx context.Context, symbol, rng string) (*model.MarketData, error) {
	url := fmt.Sprintf(yahooChartPath, y.baseURL, symbol, rng)
	resp, err := y.makeHTTPRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := y.checkResponseStatus(resp, symbol); err != nil {
		return nil, err
	}

	chart, err := y.parseChartResponse(resp, symbol)
	if err != nil {
		return nil, err
	}

	return y.extractOHLCVData(chart, symbol, rng), nil
}

func (y *yahooFeed) makeHTTPRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInternal, "failed to create request").WithCause(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewAppError(apperrors.ErrCodeTimeout, "upstream request timed out").WithCause(err)
		}
		return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "failed to fetch data").WithCause(err)
	}
	return resp, nil
}

func (y *yahooFeed) checkResponseStatus(resp *http.Response, symbol string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NewAppError(apperrors.ErrCodeNotFound, "symbol not found").WithDetails(symbol)
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.NewAppError(apperrors.ErrCodeRateLimit, "upstream rate limit exceeded")
	default:
		return apperrors.NewAppError(apperrors.ErrCodeUpstream, "unexpected status code").
			WithDetails(fmt.Sprintf("%d", resp.StatusCode))
	}
}

func (y *yahooFeed) parseChartResponse(resp *http.Response, symbol string) (*model.YahooChartResponse, error) {
	var chart model.YahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "failed to decode chart response").WithCause(err)
	}

	// Yahoo reports unknown symbols inside the envelope, not via HTTP status.
	if chart.Chart.Error != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "symbol not found").
			WithDetails(symbol).
			WithMetadata("api_error", chart.Chart.Error)
	}

	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "no data returned").WithDetails(symbol)
	}

	return &chart, nil
}

func (y *yahooFeed) extractQuote(q *model.YahooQuote, symbol string) *model.StockInfo {
	name := q.ShortName
	if name == "" {
		name = symbol
	}
	asOf := time.Now().UTC()
	if q.RegularMarketTime > 0 {
		asOf = time.Unix(q.RegularMarketTime, 0).UTC()
	}
	return &model.StockInfo{
		Symbol:           symbol,
		Name:             name,
		Price:            utils.NullToZero(q.RegularMarketPrice),
		ChangePercent:    utils.NullToZero(q.RegularMarketChangePercent),
		DayHigh:          utils.NullToZero(q.RegularMarketDayHigh),
		DayLow:           utils.NullToZero(q.RegularMarketDayLow),
		FiftyTwoWeekHigh: utils.NullToZero(q.FiftyTwoWeekHigh),
		FiftyTwoWeekLow:  utils.NullToZero(q.FiftyTwoWeekLow),
		MarketCap:        utils.NullToZero(q.MarketCap),
		Volume:           q.RegularMarketVolume,
		PERatio:          utils.NullToZero(q.TrailingPE),
		AsOf:             asOf,
	}
}

func (y *yahooFeed) extractOHLCVData(chart *model.YahooChartResponse, symbol, rng string) *model.MarketData {
	chartResult := chart.Chart.Result[0]
	quote := chartResult.Indicators.Quote[0]
	result := &model.MarketData{
		MetaData: &model.MetaData{
			Symbol:        symbol,
			Range:         rng,
			LastRefreshed: time.Unix(chartResult.Timestamp[len(chartResult.Timestamp)-1], 0).UTC(),
			TimeZone:      "UTC",
		},
	}
	result.TimeSeries = make([]*model.PricePoint, len(chartResult.Timestamp))
	for i := range chartResult.Timestamp {
		var volume int64
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}
		result.TimeSeries[i] = &model.PricePoint{
			Date:   time.Unix(chartResult.Timestamp[i], 0).UTC(),
			Open:   seriesValue(quote.Open, i),
			High:   seriesValue(quote.High, i),
			Low:    seriesValue(quote.Low, i),
			Close:  seriesValue(quote.Close, i),
			Volume: volume,
		}
	}
	zap.L().Debug("downloaded market data",
		zap.String("symbol", symbol),
		zap.String("range", rng),
		zap.Int("points", len(result.TimeSeries)))
	return result
}

// seriesValue guards against Yahoo's occasionally ragged indicator arrays.
func seriesValue(series []float64, i int) float64 {
	if i >= len(series) {
		return 0
	}
	return utils.NullToZero(series[i])
}
