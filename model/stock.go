package model

import "time"

// StockInfo is a normalized quote snapshot for a single ticker. It is
// constructed once by the data layer and read-only afterwards.
type StockInfo struct {
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Price            float64   `json:"price"`
	ChangePercent    float64   `json:"change_percent"`
	DayHigh          float64   `json:"day_high"`
	DayLow           float64   `json:"day_low"`
	FiftyTwoWeekHigh float64   `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64   `json:"fifty_two_week_low"`
	MarketCap        float64   `json:"market_cap"`
	Volume           int64     `json:"volume"`
	PERatio          float64   `json:"pe_ratio"`
	AsOf             time.Time `json:"as_of"`
}

type MarketData struct {
	MetaData   *MetaData     `json:"meta_data"`
	TimeSeries []*PricePoint `json:"time_series"`
}

type MetaData struct {
	Symbol        string    `json:"symbol"`
	Range         string    `json:"range"`
	LastRefreshed time.Time `json:"last_refreshed"`
	TimeZone      string    `json:"time_zone"`
}

// PricePoint is one bar of a historical series.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// TrendSummary aggregates a historical window for the single-stock detail view.
type TrendSummary struct {
	Symbol       string  `json:"symbol"`
	TrendChange  float64 `json:"trend_change"`
	VolumeTrend  float64 `json:"volume_trend"`
	PeriodHigh   float64 `json:"period_high"`
	PeriodLow    float64 `json:"period_low"`
	AvgVolume    float64 `json:"avg_volume"`
	StartPrice   float64 `json:"start_price"`
	CurrentPrice float64 `json:"current_price"`
}
