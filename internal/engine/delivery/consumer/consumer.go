package consumer

import (
	"context"
	"sync"
	"time"

	"golang-stock-trend/internal/engine/service"
	"golang-stock-trend/pkg/common"
	"golang-stock-trend/pkg/logger"
	"golang-stock-trend/pkg/utils"
)

// RedisConsumer manages the consumption of catalog sync tasks from the
// Redis stream.
type RedisConsumer struct {
	catalogSyncService service.CatalogSyncService
	logger             *logger.Logger
	taskTimeout        time.Duration
	stopChan           chan struct{}
	wg                 sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(catalogSyncService service.CatalogSyncService, log *logger.Logger, taskTimeout time.Duration) *RedisConsumer {
	if taskTimeout <= 0 {
		taskTimeout = time.Minute
	}
	return &RedisConsumer{
		catalogSyncService: catalogSyncService,
		logger:             log,
		taskTimeout:        taskTimeout,
		stopChan:           make(chan struct{}),
	}
}

// Start begins the consumer's task processing loop.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started", logger.Field("stream", common.RedisStreamCatalogSync))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, c.taskTimeout)
				c.catalogSyncService.ProcessTask(ctxTimeout)
				cancel()
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
