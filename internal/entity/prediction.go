package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Prediction is one stored trend call for a stock. Rows are append-only and
// deliberately not deduplicated by date.
type Prediction struct {
	ID         int64          `json:"id"`
	StockID    uint           `json:"stock_id" gorm:"not null"`
	Date       time.Time      `json:"date" gorm:"type:date"`
	Signal     string         `json:"signal"`
	Confidence float64        `json:"confidence"`
	Detail     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (Prediction) TableName() string {
	return "predictions"
}
