package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/marketdash/marketdash/model"
	apperrors "github.com/marketdash/marketdash/pkg/errors"
)

const (
	alphaVantageBaseURL = "https://www.alphavantage.co/query"

	fieldQuoteSymbol  = "01. symbol"
	fieldQuoteHigh    = "03. high"
	fieldQuoteLow     = "04. low"
	fieldQuotePrice   = "05. price"
	fieldQuoteVolume  = "06. volume"
	fieldQuoteDay     = "07. latest trading day"
	fieldQuoteChange  = "10. change percent"
	fieldSeriesOpen   = "1. open"
	fieldSeriesHigh   = "2. high"
	fieldSeriesLow    = "3. low"
	fieldSeriesClose  = "4. close"
	fieldSeriesVolume = "5. volume"

	alphaDateLayout = "2006-01-02"
)

// rangeDays approximates provider range labels as trailing calendar days for
// the daily series. "max" keeps everything the API returns.
var rangeDays = map[string]int{
	"5d":  5,
	"1mo": 31,
	"6mo": 183,
	"1y":  366,
	"5y":  1827,
}

type alphaVantageFeed struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewAlphaVantageFeed creates the Alpha Vantage provider. The free tier has
// no market cap, PE or 52-week fields, those stay zero in quotes.
func NewAlphaVantageFeed(apiKey string, timeout time.Duration) (FeedConsumer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("alpha vantage API key is missing")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	r := retryablehttp.NewClient()
	r.RetryMax = 0
	r.Logger = nil
	r.HTTPClient.Timeout = timeout
	return &alphaVantageFeed{
		client:  r.StandardClient(),
		baseURL: alphaVantageBaseURL,
		apiKey:  apiKey,
	}, nil
}

func (s *alphaVantageFeed) ProviderName() string {
	return DataFeedProviderAlphaVantage
}

type alphaQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	ErrorMsg    string            `json:"Error Message"`
}

type alphaSeriesResponse struct {
	MetaData   map[string]string            `json:"Meta Data"`
	TimeSeries map[string]map[string]string `json:"Time Series (Daily)"`
	Note       string                       `json:"Note"`
	ErrorMsg   string                       `json:"Error Message"`
}

func (s *alphaVantageFeed) FetchQuote(ctx context.Context, symbol string) (*model.StockInfo, error) {
	queryURL := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s&apikey=%s", s.baseURL, symbol, s.apiKey)

	body, err := s.get(ctx, queryURL)
	if err != nil {
		return nil, err
	}

	var resp alphaQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "failed to parse quote response").WithCause(err)
	}
	if err := alphaEnvelopeError(resp.Note, resp.ErrorMsg, symbol); err != nil {
		return nil, err
	}
	if len(resp.GlobalQuote) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "symbol not found").WithDetails(symbol)
	}

	price := parseAlphaFloat(resp.GlobalQuote[fieldQuotePrice])
	volume, _ := strconv.ParseInt(resp.GlobalQuote[fieldQuoteVolume], 10, 64)
	asOf := time.Now().UTC()
	if day, err := time.Parse(alphaDateLayout, resp.GlobalQuote[fieldQuoteDay]); err == nil {
		asOf = day
	}

	info := &model.StockInfo{
		Symbol:        symbol,
		Name:          resp.GlobalQuote[fieldQuoteSymbol],
		Price:         price,
		ChangePercent: parseAlphaFloat(strings.TrimSuffix(resp.GlobalQuote[fieldQuoteChange], "%")),
		DayHigh:       parseAlphaFloat(resp.GlobalQuote[fieldQuoteHigh]),
		DayLow:        parseAlphaFloat(resp.GlobalQuote[fieldQuoteLow]),
		Volume:        volume,
		AsOf:          asOf,
	}
	zap.L().Debug("downloaded quote", zap.String("symbol", symbol), zap.String("provider", s.ProviderName()))
	return info, nil
}

func (s *alphaVantageFeed) FetchHistory(ctx context.Context, symbol, rng string) (*model.MarketData, error) {
	queryURL := fmt.Sprintf("%s?function=TIME_SERIES_DAILY&symbol=%s&outputsize=full&apikey=%s",
		s.baseURL, symbol, s.apiKey)

	body, err := s.get(ctx, queryURL)
	if err != nil {
		return nil, err
	}

	var resp alphaSeriesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "failed to parse series response").WithCause(err)
	}
	if err := alphaEnvelopeError(resp.Note, resp.ErrorMsg, symbol); err != nil {
		return nil, err
	}
	if len(resp.TimeSeries) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNotFound, "no data returned").WithDetails(symbol)
	}

	cutoff := time.Time{}
	if days, ok := rangeDays[rng]; ok {
		cutoff = time.Now().UTC().AddDate(0, 0, -days)
	}

	result := &model.MarketData{
		MetaData: &model.MetaData{
			Symbol:   symbol,
			Range:    rng,
			TimeZone: "UTC",
		},
	}
	for day, bar := range resp.TimeSeries {
		date, err := time.Parse(alphaDateLayout, day)
		if err != nil {
			return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "failed to parse series timestamp").WithCause(err)
		}
		if !cutoff.IsZero() && date.Before(cutoff) {
			continue
		}
		volume, _ := strconv.ParseInt(bar[fieldSeriesVolume], 10, 64)
		result.TimeSeries = append(result.TimeSeries, &model.PricePoint{
			Date:   date,
			Open:   parseAlphaFloat(bar[fieldSeriesOpen]),
			High:   parseAlphaFloat(bar[fieldSeriesHigh]),
			Low:    parseAlphaFloat(bar[fieldSeriesLow]),
			Close:  parseAlphaFloat(bar[fieldSeriesClose]),
			Volume: volume,
		})
	}
	sort.Slice(result.TimeSeries, func(i, j int) bool {
		return result.TimeSeries[i].Date.Before(result.TimeSeries[j].Date)
	})
	if n := len(result.TimeSeries); n > 0 {
		result.MetaData.LastRefreshed = result.TimeSeries[n-1].Date
	}
	return result, nil
}

func (s *alphaVantageFeed) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeInternal, "failed to create request").WithCause(err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewAppError(apperrors.ErrCodeTimeout, "upstream request timed out").WithCause(err)
		}
		return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "HTTP request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "non-200 response").WithDetails(resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeUpstream, "error reading response body").WithCause(err)
	}
	return body, nil
}

// alphaEnvelopeError maps Alpha Vantage's in-band failure fields. A "Note"
// means the request budget for the key is exhausted.
func alphaEnvelopeError(note, errorMsg, symbol string) error {
	if note != "" {
		return apperrors.NewAppError(apperrors.ErrCodeRateLimit, "upstream rate limit exceeded").WithDetails(note)
	}
	if errorMsg != "" {
		return apperrors.NewAppError(apperrors.ErrCodeNotFound, "symbol not found").
			WithDetails(symbol).
			WithMetadata("api_error", errorMsg)
	}
	return nil
}

func parseAlphaFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
