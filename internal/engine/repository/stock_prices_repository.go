package repository

import (
	"context"
	"time"

	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/internal/entity"
	"golang-stock-trend/pkg/utils"

	"gorm.io/gorm"
)

type StockPricesRepository interface {
	// InsertMissing stores the bars whose date has no row yet for the stock
	// and returns how many were inserted. The whole batch commits in one
	// transaction; existing rows are never touched.
	InsertMissing(ctx context.Context, stockID uint, bars []dto.Bar) (int, error)
}

type stockPricesRepository struct {
	db *gorm.DB
}

func NewStockPricesRepository(db *gorm.DB) StockPricesRepository {
	return &stockPricesRepository{db: db}
}

func (s *stockPricesRepository) InsertMissing(ctx context.Context, stockID uint, bars []dto.Bar) (int, error) {
	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []time.Time
		if err := tx.Model(&entity.StockPrice{}).
			Where("stock_id = ?", stockID).
			Pluck("date", &existing).Error; err != nil {
			return err
		}

		rows := FilterNewBars(stockID, existing, bars)
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		inserted = len(rows)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// FilterNewBars maps the bars whose calendar date is not already stored to
// price rows, dropping in-batch duplicate dates as well.
func FilterNewBars(stockID uint, existing []time.Time, bars []dto.Bar) []entity.StockPrice {
	seen := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		seen[utils.DateOf(d).Format("2006-01-02")] = struct{}{}
	}

	rows := make([]entity.StockPrice, 0, len(bars))
	for _, b := range bars {
		key := utils.DateOf(b.Date).Format("2006-01-02")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, entity.StockPrice{
			StockID: stockID,
			Date:    utils.DateOf(b.Date),
			Open:    b.Open,
			High:    b.High,
			Low:     b.Low,
			Close:   b.Close,
			Volume:  b.Volume,
		})
	}
	return rows
}
