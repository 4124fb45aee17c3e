package service

import (
	"context"

	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/internal/engine/repository"
	"golang-stock-trend/internal/entity"
	"golang-stock-trend/pkg/logger"
)

type PriceSyncService interface {
	// Sync persists the bars that are not yet stored for the stock and
	// returns the number of newly inserted rows. The batch commits in a
	// single transaction; on failure nothing is stored and the error is
	// reported for the caller to absorb.
	Sync(ctx context.Context, stock *entity.Stock, bars []dto.Bar) (int, error)
}

type priceSyncService struct {
	log             *logger.Logger
	stockPricesRepo repository.StockPricesRepository
}

func NewPriceSyncService(log *logger.Logger, stockPricesRepo repository.StockPricesRepository) PriceSyncService {
	return &priceSyncService{
		log:             log,
		stockPricesRepo: stockPricesRepo,
	}
}

func (s *priceSyncService) Sync(ctx context.Context, stock *entity.Stock, bars []dto.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	inserted, err := s.stockPricesRepo.InsertMissing(ctx, stock.ID, bars)
	if err != nil {
		s.log.Error("Failed to sync price bars",
			logger.ErrorField(err),
			logger.StringField("symbol", stock.Symbol),
			logger.IntField("bars", len(bars)))
		return 0, err
	}

	if inserted > 0 {
		s.log.DebugContext(ctx, "Synced price bars",
			logger.StringField("symbol", stock.Symbol),
			logger.IntField("inserted", inserted))
	}
	return inserted, nil
}
