package dto

import (
	"time"
)

// Trend signals.
const (
	SignalUp      = "UP"
	SignalDown    = "DOWN"
	SignalNeutral = "NEUTRAL"
	SignalUnknown = "UNKNOWN"
	SignalError   = "ERROR"
)

// PredictionDetail carries the rounded inputs of an UP/DOWN call.
type PredictionDetail struct {
	CurrentPrice float64 `json:"current_price"`
	SMA50        float64 `json:"sma_50"`
}

// PredictionResult is the outcome of a trend prediction. Every failure mode
// resolves to a well-formed result; the predictor never returns an error.
type PredictionResult struct {
	Symbol     string            `json:"symbol"`
	Signal     string            `json:"prediction"`
	Confidence float64           `json:"confidence"`
	Date       time.Time         `json:"date"`
	Detail     *PredictionDetail `json:"details,omitempty"`
	Message    string            `json:"message,omitempty"`
	Err        string            `json:"error,omitempty"`
}

// SentimentResult is the aggregated market sentiment verdict.
type SentimentResult struct {
	Sentiment      string  `json:"sentiment"`
	Confidence     int     `json:"confidence"`
	VIX            float64 `json:"vix"`
	BenchmarkPrice float64 `json:"benchmark_price"`
	Err            string  `json:"error,omitempty"`
}
