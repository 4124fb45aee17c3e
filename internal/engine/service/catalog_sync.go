package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang-stock-trend/internal/engine/config"
	"golang-stock-trend/internal/engine/dto"
	"golang-stock-trend/internal/engine/repository"
	"golang-stock-trend/internal/entity"
	"golang-stock-trend/pkg/common"
	"golang-stock-trend/pkg/logger"
	"golang-stock-trend/pkg/telegram"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// CatalogSyncService keeps the durable store backfilled for every catalog
// symbol. The publisher side enqueues one task per symbol whenever the cron
// schedule is due; the consumer side resolves, fetches and syncs.
type CatalogSyncService interface {
	Start(ctx context.Context)
	ProcessTask(ctx context.Context)
}

type catalogSyncService struct {
	cfg          *config.Config
	log          *logger.Logger
	redisClient  *redis.Client
	resolver     SymbolResolver
	yahooFinance repository.YahooFinanceRepository
	stocksRepo   repository.StocksRepository
	priceSync    PriceSyncService
	notifier     telegram.Notifier
	cronParser   cron.Parser
}

func NewCatalogSyncService(
	cfg *config.Config,
	log *logger.Logger,
	redisClient *redis.Client,
	resolver SymbolResolver,
	yahooFinance repository.YahooFinanceRepository,
	stocksRepo repository.StocksRepository,
	priceSync PriceSyncService,
	notifier telegram.Notifier,
) CatalogSyncService {
	return &catalogSyncService{
		cfg:          cfg,
		log:          log,
		redisClient:  redisClient,
		resolver:     resolver,
		yahooFinance: yahooFinance,
		stocksRepo:   stocksRepo,
		priceSync:    priceSync,
		notifier:     notifier,
		cronParser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Start runs the publisher loop until the context is canceled.
func (s *catalogSyncService) Start(ctx context.Context) {
	schedule, err := s.cronParser.Parse(s.cfg.Sync.CronExpression)
	if err != nil {
		s.log.Error("Invalid sync cron expression, catalog sync disabled",
			logger.ErrorField(err), logger.StringField("cron_expression", s.cfg.Sync.CronExpression))
		return
	}

	nextRun := schedule.Next(time.Now())
	ticker := time.NewTicker(s.cfg.Sync.PollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Catalog sync publisher stopping")
			return
		case <-ticker.C:
			now := time.Now()
			if now.Before(nextRun) {
				continue
			}
			s.publishTasks(ctx)
			nextRun = schedule.Next(now)
		}
	}
}

func (s *catalogSyncService) publishTasks(ctx context.Context) {
	published := 0
	for _, sector := range s.cfg.Catalog {
		for _, entry := range sector.Stocks {
			payload, err := json.Marshal(dto.SyncTask{Symbol: entry.Symbol, Name: entry.Name})
			if err != nil {
				s.log.Error("Failed to marshal sync task", logger.ErrorField(err), logger.StringField("symbol", entry.Symbol))
				continue
			}
			err = s.redisClient.XAdd(ctx, &redis.XAddArgs{
				Stream: common.RedisStreamCatalogSync,
				MaxLen: s.cfg.Redis.StreamMaxLen,
				Approx: true,
				Values: map[string]interface{}{"payload": string(payload)},
			}).Err()
			if err != nil {
				s.log.Error("Failed to publish sync task", logger.ErrorField(err), logger.StringField("symbol", entry.Symbol))
				continue
			}
			published++
		}
	}
	s.log.Info("Published catalog sync tasks", logger.IntField("count", published))
}

// ProcessTask consumes and handles a single sync task. Failures are logged
// and acknowledged so one bad symbol cannot wedge the stream.
func (s *catalogSyncService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamCatalogSync, ">"}, // ">" means only new messages
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, redis.Nil) {
			return
		}
		s.log.Error("Failed to read from sync stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}
	message := streams[0].Messages[0]

	taskData, ok := message.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		s.ackAndDelete(ctx, message.ID)
		return
	}

	var task dto.SyncTask
	if err := json.Unmarshal([]byte(taskData), &task); err != nil {
		s.log.Error("Failed to unmarshal sync task", logger.ErrorField(err), logger.Field("message_id", message.ID))
		s.ackAndDelete(ctx, message.ID)
		return
	}

	if err := s.syncSymbol(ctx, task); err != nil {
		s.log.Error("Catalog sync failed", logger.ErrorField(err), logger.StringField("symbol", task.Symbol))
		if notifyErr := s.notifier.SendMessage(fmt.Sprintf("Catalog sync failed for %s: %v", task.Symbol, err)); notifyErr != nil {
			s.log.Error("Failed to send sync failure notification", logger.ErrorField(notifyErr))
		}
	}
	s.ackAndDelete(ctx, message.ID)
}

func (s *catalogSyncService) syncSymbol(ctx context.Context, task dto.SyncTask) error {
	canonical, err := s.resolver.Resolve(ctx, task.Symbol)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", task.Symbol, err)
	}

	bars, err := s.yahooFinance.GetHistory(ctx, dto.GetHistoryParam{
		Symbol:   canonical,
		Range:    s.cfg.Sync.HistoryRange,
		Interval: "1d",
	})
	if err != nil {
		return fmt.Errorf("fetch history %s: %w", canonical, err)
	}
	if len(bars) == 0 {
		s.log.DebugContext(ctx, "No bars to sync", logger.StringField("symbol", canonical))
		return nil
	}

	exchange := "NSE"
	if strings.HasSuffix(canonical, ".BO") {
		exchange = "BSE"
	}
	stock, err := s.stocksRepo.FindOrCreate(ctx, &entity.Stock{
		Symbol:      canonical,
		CompanyName: task.Name,
		Exchange:    exchange,
		IsIndex:     strings.HasPrefix(canonical, "^"),
	})
	if err != nil {
		return fmt.Errorf("find or create stock %s: %w", canonical, err)
	}

	inserted, err := s.priceSync.Sync(ctx, stock, bars)
	if err != nil {
		return fmt.Errorf("sync bars %s: %w", canonical, err)
	}

	s.log.Info("Catalog symbol synced",
		logger.StringField("symbol", canonical),
		logger.IntField("inserted", inserted),
		logger.IntField("fetched", len(bars)))
	return nil
}

func (s *catalogSyncService) ackAndDelete(ctx context.Context, messageID string) {
	if err := s.redisClient.XAck(ctx, common.RedisStreamCatalogSync, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to ack sync task", logger.ErrorField(err), logger.Field("message_id", messageID))
		return
	}
	if err := s.redisClient.XDel(ctx, common.RedisStreamCatalogSync, messageID).Err(); err != nil {
		s.log.Error("Failed to delete sync task", logger.ErrorField(err), logger.Field("message_id", messageID))
	}
}
