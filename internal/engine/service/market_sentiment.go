package service

import (
	"context"

	"golang-stock-trend/internal/engine/config"
	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/internal/engine/repository"
	"golang-stock-trend/pkg/logger"
	"golang-stock-trend/pkg/utils"
)

type MarketSentimentService interface {
	// MarketSentiment combines the volatility index with the benchmark
	// index trend. It never returns an error; failures degrade to a
	// Neutral verdict.
	MarketSentiment(ctx context.Context) dto.SentimentResult
}

type marketSentimentService struct {
	cfg          *config.Config
	log          *logger.Logger
	yahooFinance repository.YahooFinanceRepository
	predictor    TrendPredictor
}

func NewMarketSentimentService(
	cfg *config.Config,
	log *logger.Logger,
	yahooFinance repository.YahooFinanceRepository,
	predictor TrendPredictor,
) MarketSentimentService {
	return &marketSentimentService{
		cfg:          cfg,
		log:          log,
		yahooFinance: yahooFinance,
		predictor:    predictor,
	}
}

func (s *marketSentimentService) MarketSentiment(ctx context.Context) (result dto.SentimentResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Recovered from panic during sentiment aggregation", logger.Field("panic", r))
			result = dto.SentimentResult{Sentiment: "Neutral", Confidence: 0, VIX: 0.0, Err: "internal error"}
		}
	}()

	vix := 0.0
	vixBars, err := s.yahooFinance.GetHistory(ctx, dto.GetHistoryParam{
		Symbol:   s.cfg.Market.VolatilitySymbol,
		Range:    "1d",
		Interval: "1d",
	})
	if err != nil {
		// A missing volatility read degrades to 0.0, it does not fail the call.
		s.log.Error("Failed to fetch volatility index", logger.ErrorField(err),
			logger.StringField("symbol", s.cfg.Market.VolatilitySymbol))
	} else if len(vixBars) > 0 {
		vix = vixBars[len(vixBars)-1].Close
	}

	prediction := s.predictor.Predict(ctx, s.cfg.Market.BenchmarkSymbol)

	sentiment := "Neutral"
	switch prediction.Signal {
	case dto.SignalUp:
		sentiment = "Bullish"
	case dto.SignalDown:
		sentiment = "Bearish"
	}

	benchmarkPrice := 0.0
	if prediction.Detail != nil {
		benchmarkPrice = prediction.Detail.CurrentPrice
	}

	return dto.SentimentResult{
		Sentiment:      sentiment,
		Confidence:     int(prediction.Confidence * 100),
		VIX:            utils.Round2(vix),
		BenchmarkPrice: benchmarkPrice,
	}
}
