package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/internal/engine/repository"
	"golang-stock-trend/internal/entity"
	"golang-stock-trend/pkg/logger"
	"golang-stock-trend/pkg/utils"

	"gorm.io/datatypes"
)

// smaWindow is the number of trailing closes in the moving average.
const smaWindow = 50

type TrendPredictor interface {
	// Predict computes the SMA-crossover signal for a symbol. It never
	// returns an error: every failure path resolves to a degraded result.
	Predict(ctx context.Context, symbol string) dto.PredictionResult
	// PredictAndStore runs Predict under a find-or-created stock row and
	// appends a prediction record (best-effort).
	PredictAndStore(ctx context.Context, symbol string) dto.PredictionResult
	// History returns (date, close) points for charting.
	History(ctx context.Context, symbol, rng string) ([]dto.PricePoint, error)
}

type trendPredictor struct {
	log             *logger.Logger
	yahooFinance    repository.YahooFinanceRepository
	stocksRepo      repository.StocksRepository
	predictionsRepo repository.PredictionsRepository
	priceSync       PriceSyncService
}

func NewTrendPredictor(
	log *logger.Logger,
	yahooFinance repository.YahooFinanceRepository,
	stocksRepo repository.StocksRepository,
	predictionsRepo repository.PredictionsRepository,
	priceSync PriceSyncService,
) TrendPredictor {
	return &trendPredictor{
		log:             log,
		yahooFinance:    yahooFinance,
		stocksRepo:      stocksRepo,
		predictionsRepo: predictionsRepo,
		priceSync:       priceSync,
	}
}

func (s *trendPredictor) Predict(ctx context.Context, symbol string) (result dto.PredictionResult) {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	today := utils.DateOf(utils.TimeNowIST())

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Recovered from panic during prediction",
				logger.Field("panic", r), logger.StringField("symbol", upper))
			result = dto.PredictionResult{
				Symbol:     upper,
				Signal:     dto.SignalError,
				Confidence: 0.0,
				Date:       today,
			}
		}
	}()

	chosen, bars := s.fetchWithFallback(ctx, upper)
	if len(bars) == 0 {
		return dto.PredictionResult{
			Symbol:     upper,
			Signal:     dto.SignalUnknown,
			Confidence: 0.0,
			Date:       today,
			Err:        "no data found",
		}
	}

	// Persistence is best-effort: the signal is computed from the fetched
	// series regardless of what the store did with it.
	s.syncBestEffort(ctx, upper, bars)

	if len(bars) < smaWindow {
		return dto.PredictionResult{
			Symbol:     chosen,
			Signal:     dto.SignalNeutral,
			Confidence: 0.5,
			Date:       today,
			Message:    "insufficient historical data",
		}
	}

	lastClose := bars[len(bars)-1].Close
	sma := trailingSMA(bars, smaWindow)

	signal := dto.SignalDown // ties fall through to DOWN
	if lastClose > sma {
		signal = dto.SignalUp
	}
	deviation := math.Abs(lastClose-sma) / sma
	confidence := math.Min(0.5+deviation*5, 0.95)

	return dto.PredictionResult{
		Symbol:     chosen,
		Signal:     signal,
		Confidence: utils.Round2(confidence),
		Date:       today,
		Detail: &dto.PredictionDetail{
			CurrentPrice: utils.Round2(lastClose),
			SMA50:        utils.Round2(sma),
		},
	}
}

func (s *trendPredictor) PredictAndStore(ctx context.Context, symbol string) dto.PredictionResult {
	upper := strings.ToUpper(strings.TrimSpace(symbol))

	stock, err := s.stocksRepo.FindOrCreate(ctx, &entity.Stock{
		Symbol:      upper,
		CompanyName: upper,
		IsIndex:     strings.HasPrefix(upper, "^"),
	})
	if err != nil {
		s.log.Error("Failed to find or create stock", logger.ErrorField(err), logger.StringField("symbol", upper))
	}

	result := s.Predict(ctx, upper)

	if stock != nil {
		var detail datatypes.JSON
		if result.Detail != nil {
			if raw, err := json.Marshal(result.Detail); err == nil {
				detail = raw
			}
		}
		record := &entity.Prediction{
			StockID:    stock.ID,
			Date:       result.Date,
			Signal:     result.Signal,
			Confidence: result.Confidence,
			Detail:     detail,
		}
		if err := s.predictionsRepo.Create(ctx, record); err != nil {
			s.log.Error("Failed to store prediction record", logger.ErrorField(err), logger.StringField("symbol", upper))
		}
	}

	return result
}

func (s *trendPredictor) History(ctx context.Context, symbol, rng string) ([]dto.PricePoint, error) {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	switch upper {
	case "NIFTY_50":
		upper = "^NSEI"
	case "SENSEX":
		upper = "^BSESN"
	}
	if !hasExchangeSuffix(upper) && !strings.HasPrefix(upper, "^") && !strings.Contains(upper, ".") {
		upper += ".NS"
	}
	if rng == "" {
		rng = "1mo"
	}

	bars, err := s.yahooFinance.GetHistory(ctx, dto.GetHistoryParam{Symbol: upper, Range: rng, Interval: "1d"})
	if err != nil {
		return nil, err
	}

	points := make([]dto.PricePoint, 0, len(bars))
	for _, b := range bars {
		points = append(points, dto.PricePoint{
			Date:  b.Date.Format("2006-01-02"),
			Price: utils.Round2(b.Close),
		})
	}
	return points, nil
}

// fetchWithFallback probes the ordered candidate chain and returns the first
// symbol with a non-empty 3-month daily series. Index symbols (^ prefix) and
// dotted symbols are taken as-is.
func (s *trendPredictor) fetchWithFallback(ctx context.Context, symbol string) (string, []dto.Bar) {
	chosen := symbol
	if !hasExchangeSuffix(symbol) && !strings.HasPrefix(symbol, "^") && !strings.Contains(symbol, ".") {
		chosen = symbol + ".NS"
	}

	candidates := []string{chosen}
	if strings.HasSuffix(chosen, ".NS") {
		candidates = append(candidates, strings.TrimSuffix(chosen, ".NS")+".BO")
	}
	if chosen != symbol {
		candidates = append(candidates, symbol)
	}

	for _, candidate := range candidates {
		bars, err := s.yahooFinance.GetHistory(ctx, dto.GetHistoryParam{
			Symbol:   candidate,
			Range:    "3mo",
			Interval: "1d",
		})
		if err != nil {
			s.log.Error("History fetch failed, trying next candidate",
				logger.ErrorField(err), logger.StringField("candidate", candidate))
			continue
		}
		if len(bars) > 0 {
			return candidate, bars
		}
		s.log.DebugContext(ctx, "No data for candidate", logger.StringField("candidate", candidate))
	}
	return "", nil
}

func (s *trendPredictor) syncBestEffort(ctx context.Context, symbol string, bars []dto.Bar) {
	stock, err := s.stocksRepo.GetBySymbol(ctx, symbol)
	if err != nil {
		s.log.Error("Stock lookup failed during sync", logger.ErrorField(err), logger.StringField("symbol", symbol))
		return
	}
	if stock == nil {
		return
	}
	// Sync already logs its own failures.
	_, _ = s.priceSync.Sync(ctx, stock, bars)
}

func trailingSMA(bars []dto.Bar, window int) float64 {
	sum := 0.0
	for _, b := range bars[len(bars)-window:] {
		sum += b.Close
	}
	return sum / float64(window)
}
