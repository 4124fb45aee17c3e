package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/internal/engine/repository"
	"golang-stock-trend/pkg/logger"

	"github.com/patrickmn/go-cache"
)

// ErrSymbolNotFound is returned when no candidate symbol has market data.
// Callers must reject stock creation under the input symbol.
var ErrSymbolNotFound = errors.New("symbol not found on any exchange")

type SymbolResolver interface {
	// Resolve maps a free-form ticker to its canonical exchange symbol
	// (e.g. "reliance" -> "RELIANCE.NS") or returns ErrSymbolNotFound.
	Resolve(ctx context.Context, input string) (string, error)
}

type symbolResolver struct {
	log          *logger.Logger
	yahooFinance repository.YahooFinanceRepository
	memo         *cache.Cache
}

func NewSymbolResolver(log *logger.Logger, yahooFinance repository.YahooFinanceRepository) SymbolResolver {
	return &symbolResolver{
		log:          log,
		yahooFinance: yahooFinance,
		memo:         cache.New(5*time.Minute, 10*time.Minute),
	}
}

func hasExchangeSuffix(symbol string) bool {
	return strings.HasSuffix(symbol, ".NS") || strings.HasSuffix(symbol, ".BO")
}

func (s *symbolResolver) Resolve(ctx context.Context, input string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input))
	if symbol == "" {
		return "", ErrSymbolNotFound
	}

	if cached, ok := s.memo.Get(symbol); ok {
		return cached.(string), nil
	}

	candidates := []string{symbol}
	if !hasExchangeSuffix(symbol) {
		candidates = append(candidates, symbol+".NS", symbol+".BO")
	}

	for _, candidate := range candidates {
		bars, err := s.yahooFinance.GetHistory(ctx, dto.GetHistoryParam{
			Symbol:   candidate,
			Range:    "1d",
			Interval: "1d",
		})
		if err != nil {
			// A provider failure on one candidate must not short-circuit
			// the remaining candidates.
			s.log.Error("Symbol probe failed", logger.ErrorField(err), logger.StringField("candidate", candidate))
			continue
		}
		if len(bars) > 0 {
			s.memo.SetDefault(symbol, candidate)
			return candidate, nil
		}
	}

	return "", ErrSymbolNotFound
}
