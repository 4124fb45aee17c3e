package entity

import (
	"time"
)

// StockPrice is one daily OHLCV bar. At most one row exists per
// (stock_id, date); rows are never updated once stored.
type StockPrice struct {
	ID        uint      `gorm:"primaryKey"`
	StockID   uint      `gorm:"uniqueIndex:idx_stock_prices_stock_date;not null"`
	Date      time.Time `gorm:"uniqueIndex:idx_stock_prices_stock_date;type:date;not null"`
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (StockPrice) TableName() string {
	return "stock_prices"
}
