package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/marketdash/marketdash/pkg/errors"
)

func newAlphaTestFeed(t *testing.T, handler http.HandlerFunc) *alphaVantageFeed {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &alphaVantageFeed{
		client:  server.Client(),
		baseURL: server.URL,
		apiKey:  "testkey",
	}
}

func TestAlphaVantageRequiresAPIKey(t *testing.T) {
	_, err := NewAlphaVantageFeed("", time.Second)
	require.Error(t, err)

	f, err := NewAlphaVantageFeed("demo", time.Second)
	require.NoError(t, err)
	assert.Equal(t, DataFeedProviderAlphaVantage, f.ProviderName())
}

func TestAlphaVantageFetchQuote(t *testing.T) {
	f := newAlphaTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "IBM", r.URL.Query().Get("symbol"))
		assert.Equal(t, "testkey", r.URL.Query().Get("apikey"))
		fmt.Fprint(w, `{
			"Global Quote": {
				"01. symbol": "IBM",
				"03. high": "172.5",
				"04. low": "169.1",
				"05. price": "171.25",
				"06. volume": "4200000",
				"07. latest trading day": "2025-06-02",
				"10. change percent": "1.75%"
			}
		}`)
	})

	info, err := f.FetchQuote(context.Background(), "IBM")
	require.NoError(t, err)

	assert.Equal(t, "IBM", info.Symbol)
	assert.Equal(t, 171.25, info.Price)
	assert.Equal(t, 1.75, info.ChangePercent)
	assert.Equal(t, 172.5, info.DayHigh)
	assert.Equal(t, int64(4200000), info.Volume)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), info.AsOf)
}

func TestAlphaVantageNoteIsRateLimit(t *testing.T) {
	f := newAlphaTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)
	})

	_, err := f.FetchQuote(context.Background(), "IBM")
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeRateLimit, appErr.Code)
}

func TestAlphaVantageErrorMessageIsNotFound(t *testing.T) {
	f := newAlphaTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Error Message": "Invalid API call."}`)
	})

	_, err := f.FetchQuote(context.Background(), "XXXX")
	require.Error(t, err)
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}

func TestAlphaVantageFetchHistorySortsAscending(t *testing.T) {
	f := newAlphaTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TIME_SERIES_DAILY", r.URL.Query().Get("function"))
		fmt.Fprint(w, `{
			"Meta Data": {"2. Symbol": "IBM"},
			"Time Series (Daily)": {
				"2025-06-02": {"1. open": "170.0", "2. high": "172.5", "3. low": "169.1", "4. close": "171.25", "5. volume": "4200000"},
				"2025-05-30": {"1. open": "168.0", "2. high": "170.0", "3. low": "167.5", "4. close": "169.8", "5. volume": "3900000"}
			}
		}`)
	})

	data, err := f.FetchHistory(context.Background(), "IBM", "max")
	require.NoError(t, err)

	require.Len(t, data.TimeSeries, 2)
	assert.True(t, data.TimeSeries[0].Date.Before(data.TimeSeries[1].Date))
	assert.Equal(t, 169.8, data.TimeSeries[0].Close)
	assert.Equal(t, data.TimeSeries[1].Date, data.MetaData.LastRefreshed)
}

func TestAlphaVantageFetchHistoryTrimsRange(t *testing.T) {
	recent := time.Now().UTC().AddDate(0, 0, -1).Format(alphaDateLayout)
	stale := time.Now().UTC().AddDate(0, 0, -40).Format(alphaDateLayout)

	f := newAlphaTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"Time Series (Daily)": {
				"%s": {"1. open": "170.0", "2. high": "172.5", "3. low": "169.1", "4. close": "171.25", "5. volume": "4200000"},
				"%s": {"1. open": "150.0", "2. high": "152.0", "3. low": "149.0", "4. close": "151.0", "5. volume": "3000000"}
			}
		}`, recent, stale)
	})

	data, err := f.FetchHistory(context.Background(), "IBM", "1mo")
	require.NoError(t, err)

	require.Len(t, data.TimeSeries, 1)
	assert.Equal(t, 171.25, data.TimeSeries[0].Close)
}
