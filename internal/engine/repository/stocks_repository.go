package repository

import (
	"context"
	"errors"

	"golang-stock-trend/internal/entity"

	"gorm.io/gorm"
)

type StocksRepository interface {
	GetBySymbol(ctx context.Context, symbol string) (*entity.Stock, error)
	FindOrCreate(ctx context.Context, stock *entity.Stock) (*entity.Stock, error)
	GetStocks(ctx context.Context) ([]entity.Stock, error)
}

type stocksRepository struct {
	db *gorm.DB
}

func NewStocksRepository(db *gorm.DB) StocksRepository {
	return &stocksRepository{db: db}
}

// GetBySymbol returns the stock for a canonical symbol, or (nil, nil) when
// no such stock exists.
func (s *stocksRepository) GetBySymbol(ctx context.Context, symbol string) (*entity.Stock, error) {
	var stock entity.Stock
	err := s.db.WithContext(ctx).Where("symbol = ?", symbol).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// FindOrCreate returns the existing stock with the given symbol or inserts
// the provided row. Stocks are never deleted, so a second lookup after a
// unique-violation race is not needed in practice.
func (s *stocksRepository) FindOrCreate(ctx context.Context, stock *entity.Stock) (*entity.Stock, error) {
	existing, err := s.GetBySymbol(ctx, stock.Symbol)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if err := s.db.WithContext(ctx).Create(stock).Error; err != nil {
		return nil, err
	}
	return stock, nil
}

func (s *stocksRepository) GetStocks(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := s.db.WithContext(ctx).Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}
