package entity

import (
	"time"
)

// Stock is a tracked instrument, keyed by its canonical exchange symbol.
type Stock struct {
	ID          uint      `gorm:"primaryKey"`
	Symbol      string    `gorm:"uniqueIndex;not null"`
	CompanyName string    `json:"company_name"`
	Exchange    string    `gorm:"default:NSE"`
	IsIndex     bool      `gorm:"default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Stock) TableName() string {
	return "stocks"
}
