package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jphelps/day-trading-api/internal/api"
	"github.com/jphelps/day-trading-api/internal/config"
	"github.com/jphelps/day-trading-api/internal/database"
	"github.com/jphelps/day-trading-api/internal/kafka"
	"github.com/jphelps/day-trading-api/internal/logger"
	redisstore "github.com/jphelps/day-trading-api/internal/redis"
	"github.com/jphelps/day-trading-api/internal/service"
	"github.com/jphelps/day-trading-api/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer log.Sync()

	cfg := config.Load()

	var positions service.PositionStore
	var ledger service.TradeLedger

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.New(cfg.Database.ConnectionString())
		if err != nil {
			log.Fatal("failed to connect to postgres", logger.Error(err))
		}
		defer db.Close()

		if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
			log.Fatal("failed to run migrations", logger.Error(err))
		}
		positions, ledger = db, db

	case config.BackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("failed to connect to redis", logger.Error(err))
		}
		defer client.Close()
		positions, ledger = client, client

	case config.BackendMemory:
		mem := store.NewMemoryStore()
		positions, ledger = mem, mem

	default:
		log.Fatal("unknown store backend", logger.String("backend", cfg.Store.Backend))
	}

	log.Info("store ready", logger.String("backend", cfg.Store.Backend))

	svc := service.New(positions, ledger, log.Component("service"), cfg.Store.Timeout)

	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TradesTopic)
		defer producer.Close()

		if cfg.Kafka.FeedTopic != "" {
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.FeedTopic,
				cfg.Kafka.FeedGroupID, svc, log.Component("kafka"))
			go func() {
				if err := consumer.Start(ctx); err != nil {
					log.Error("broker feed consumer stopped", logger.Error(err))
				}
			}()
		}
	}

	handler := api.NewHandler(svc, producer, log.Component("api"))
	router := api.SetupRoutes(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", logger.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", logger.Error(err))
	}
}
