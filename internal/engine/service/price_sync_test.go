package service

import (
	"context"
	"errors"
	"testing"

	"golang-stock-trend/internal/entity"
	"golang-stock-trend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncIsIdempotent(t *testing.T) {
	prices := newFakePricesRepo()
	svc := NewPriceSyncService(logger.NewNop(), prices)
	stock := &entity.Stock{ID: 7, Symbol: "TCS.NS"}
	series := flatSeries(10, 3800)

	first, err := svc.Sync(context.Background(), stock, series)
	require.NoError(t, err)
	assert.Equal(t, 10, first)
	assert.Equal(t, 10, prices.count(stock.ID))

	second, err := svc.Sync(context.Background(), stock, series)
	require.NoError(t, err)
	assert.Equal(t, 0, second)
	assert.Equal(t, 10, prices.count(stock.ID), "re-syncing the same series must not add rows")
}

func TestSyncInsertsOnlyNewDates(t *testing.T) {
	prices := newFakePricesRepo()
	svc := NewPriceSyncService(logger.NewNop(), prices)
	stock := &entity.Stock{ID: 3, Symbol: "INFY.NS"}

	_, err := svc.Sync(context.Background(), stock, flatSeries(5, 1500))
	require.NoError(t, err)

	// Same window extended by five fresh days.
	inserted, err := svc.Sync(context.Background(), stock, flatSeries(10, 1510))
	require.NoError(t, err)

	assert.Equal(t, 5, inserted)
	assert.Equal(t, 10, prices.count(stock.ID))
}

func TestSyncReportsRepositoryFailure(t *testing.T) {
	prices := newFakePricesRepo()
	prices.err = errors.New("commit failed")
	svc := NewPriceSyncService(logger.NewNop(), prices)

	inserted, err := svc.Sync(context.Background(), &entity.Stock{ID: 1, Symbol: "SBIN.NS"}, flatSeries(3, 620))

	assert.Error(t, err)
	assert.Equal(t, 0, inserted)
}

func TestSyncEmptySeriesIsNoop(t *testing.T) {
	prices := newFakePricesRepo()
	svc := NewPriceSyncService(logger.NewNop(), prices)

	inserted, err := svc.Sync(context.Background(), &entity.Stock{ID: 1, Symbol: "SBIN.NS"}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
}
