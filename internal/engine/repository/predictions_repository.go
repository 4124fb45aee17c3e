package repository

import (
	"context"

	"golang-stock-trend/internal/entity"

	"gorm.io/gorm"
)

type PredictionsRepository interface {
	Create(ctx context.Context, prediction *entity.Prediction) error
}

type predictionsRepository struct {
	db *gorm.DB
}

func NewPredictionsRepository(db *gorm.DB) PredictionsRepository {
	return &predictionsRepository{db: db}
}

func (p *predictionsRepository) Create(ctx context.Context, prediction *entity.Prediction) error {
	return p.db.WithContext(ctx).Create(prediction).Error
}
