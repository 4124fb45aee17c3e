package dto

import (
	"time"
)

// GetHistoryParam identifies one historical-bar query against the market
// data provider. Range and Interval use the provider's notation ("3mo",
// "1d", ...).
type GetHistoryParam struct {
	Symbol   string
	Range    string
	Interval string
}

// Bar is one day's OHLCV observation for a symbol.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// LatestQuote carries the last two closes for a symbol from a batch fetch.
// Available is false when the symbol could not be fetched or had fewer than
// two observations; the rest of the batch is unaffected.
type LatestQuote struct {
	LastClose float64
	PrevClose float64
	Available bool
}

// PricePoint is one (date, close) sample for charting.
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}
