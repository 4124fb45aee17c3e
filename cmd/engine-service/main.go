package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-stock-trend/internal/engine/config"
	"golang-stock-trend/internal/engine/delivery/consumer"
	"golang-stock-trend/internal/engine/repository"
	"golang-stock-trend/internal/engine/service"
	"golang-stock-trend/pkg/common"
	"golang-stock-trend/pkg/logger"
	"golang-stock-trend/pkg/postgres"
	redisPkg "golang-stock-trend/pkg/redis"
	"golang-stock-trend/pkg/telegram"
	"golang-stock-trend/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

// engine bundles the wired services for the CLI commands.
type engine struct {
	cfg       *config.Config
	log       *logger.Logger
	resolver  service.SymbolResolver
	predictor service.TrendPredictor
	sentiment service.MarketSentimentService
	quotes    *service.QuoteCache
	syncSvc   func(redisClient *redisPkg.Client) service.CatalogSyncService
	close     func()
}

func buildEngine() (*engine, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	stocksRepo := repository.NewStocksRepository(db.DB)
	stockPricesRepo := repository.NewStockPricesRepository(db.DB)
	predictionsRepo := repository.NewPredictionsRepository(db.DB)
	yahooFinanceRepo, err := repository.NewYahooFinanceRepository(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Yahoo Finance repository: %w", err)
	}

	resolver := service.NewSymbolResolver(appLogger, yahooFinanceRepo)
	priceSync := service.NewPriceSyncService(appLogger, stockPricesRepo)
	predictor := service.NewTrendPredictor(appLogger, yahooFinanceRepo, stocksRepo, predictionsRepo, priceSync)
	sentiment := service.NewMarketSentimentService(cfg, appLogger, yahooFinanceRepo, predictor)
	quotes := service.NewQuoteCache(cfg, appLogger, yahooFinanceRepo)

	notifier := telegram.NewNoopNotifier()
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Telegram notifier: %w", err)
		}
	}

	return &engine{
		cfg:       cfg,
		log:       appLogger,
		resolver:  resolver,
		predictor: predictor,
		sentiment: sentiment,
		quotes:    quotes,
		syncSvc: func(redisClient *redisPkg.Client) service.CatalogSyncService {
			return service.NewCatalogSyncService(cfg, appLogger, redisClient.Client, resolver, yahooFinanceRepo, stocksRepo, priceSync, notifier)
		},
		close: func() {
			_ = appLogger.Sync()
			if sqlDB, err := db.DB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	}, nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render result: %v", err)
	}
	fmt.Println(string(out))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the market engine daemon",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := buildEngine()
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer eng.close()

	appLogger := eng.log
	appLogger.Info("Starting Engine Service", zap.String("name", eng.cfg.App.Name))

	redisCfg := redisPkg.Config{
		Host:     eng.cfg.Redis.Host,
		Port:     eng.cfg.Redis.Port,
		Password: eng.cfg.Redis.Password,
		DB:       eng.cfg.Redis.DB,
		PoolSize: eng.cfg.Redis.PoolSize,
	}
	redisClient, err := redisPkg.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// MKSTREAM creates the stream if it doesn't exist.
	if err := redisClient.XGroupCreateMkStream(ctx, common.RedisStreamCatalogSync, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	catalogSync := eng.syncSvc(redisClient)
	if eng.cfg.Sync.Enabled {
		utils.GoSafe(func() {
			catalogSync.Start(ctx)
		})
	}

	redisConsumer := consumer.NewRedisConsumer(catalogSync, appLogger, eng.cfg.Sync.PollingInterval)
	redisConsumer.Start(ctx)

	appLogger.Info("Engine service started. Waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down engine service...")
	cancel()
	redisConsumer.Stop()
	appLogger.Info("Engine service stopped.")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [symbol]",
	Short: "Resolves a ticker to its canonical exchange symbol",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := buildEngine()
		if err != nil {
			log.Fatalf("Failed to start engine: %v", err)
		}
		defer eng.close()

		canonical, err := eng.resolver.Resolve(cmd.Context(), args[0])
		if err != nil {
			log.Fatalf("Could not resolve %q: %v", args[0], err)
		}
		printJSON(map[string]string{"symbol": canonical})
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict [symbol]",
	Short: "Runs a trend prediction and stores the record",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := buildEngine()
		if err != nil {
			log.Fatalf("Failed to start engine: %v", err)
		}
		defer eng.close()

		printJSON(eng.predictor.PredictAndStore(cmd.Context(), args[0]))
	},
}

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Prints the aggregated market sentiment",
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := buildEngine()
		if err != nil {
			log.Fatalf("Failed to start engine: %v", err)
		}
		defer eng.close()

		printJSON(eng.sentiment.MarketSentiment(cmd.Context()))
	},
}

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Prints the sector-grouped popular quotes",
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := buildEngine()
		if err != nil {
			log.Fatalf("Failed to start engine: %v", err)
		}
		defer eng.close()

		printJSON(eng.quotes.PopularQuotes(cmd.Context()))
	},
}

func main() {
	rootCmd := &cobra.Command{Use: "engine-service"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-engine.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, resolveCmd, predictCmd, sentimentCmd, quotesCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing engine-service CLI: %s\n", err)
		os.Exit(1)
	}
}
