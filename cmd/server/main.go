package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"esnafdefter/backend/internal/cache"
	"esnafdefter/backend/internal/config"
	"esnafdefter/backend/internal/events"
	"esnafdefter/backend/internal/httpapi"
	"esnafdefter/backend/internal/logger"
	"esnafdefter/backend/internal/metrics"
	"esnafdefter/backend/internal/render"
	"esnafdefter/backend/internal/service"
	"esnafdefter/backend/internal/store"
	"esnafdefter/backend/internal/store/memory"
	pgstore "esnafdefter/backend/internal/store/postgres"
	sqlitestore "esnafdefter/backend/internal/store/sqlite"
	"esnafdefter/backend/internal/xid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Mode)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := xid.SetNode(cfg.SnowflakeNode); err != nil {
		zlog.Fatal("invalid snowflake node", zap.Int64("node", cfg.SnowflakeNode), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 3)

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		zlog.Fatal("repository unavailable", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}
	zlog.Info("repository ready", zap.String("driver", cfg.StorageDriver))

	replays := cache.ReplayCache(cache.NewMemoryReplayCache())
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReplayCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			zlog.Warn("redis unavailable, using in-process replay cache", zap.Error(err))
			_ = redisCache.Close()
		} else {
			replays = redisCache
			closers = append(closers, redisCache.Close)
			zlog.Info("replay cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		zlog.Info("replay cache: in-process")
	}

	publisher := events.Publisher(events.NoopPublisher{})
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		closers = append(closers, publisher.Close)
		zlog.Info("events: kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		zlog.Info("events: disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := service.New(repo, publisher, zlog)
	api := httpapi.New(svc, replays, metrics.NewHTTPMetrics(registry), zlog, httpapi.Options{
		AllowedOrigin:  cfg.AllowedOrigin,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Render: render.Options{
			Currency:     cfg.Currency,
			BusinessName: cfg.BusinessName,
		},
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		zlog.Info("esnaf defter backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			zlog.Error("close error", zap.Error(err))
		}
	}

	zlog.Info("server stopped")
}

func openRepository(ctx context.Context, cfg config.Config) (store.Repository, func() error, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return pg, pg.Close, nil
	case config.DriverSQLite:
		lite, err := sqlitestore.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := lite.Migrate(ctx); err != nil {
			_ = lite.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return lite, lite.Close, nil
	default:
		return memory.New(), nil, nil
	}
}

func validateConfig(cfg config.Config) error {
	switch cfg.StorageDriver {
	case config.DriverMemory:
	case config.DriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH must be set for the sqlite driver")
		}
	case config.DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.IdempotencyTTLSeconds <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_SECONDS must be positive")
	}
	if len(cfg.KafkaBrokers) > 0 && strings.TrimSpace(cfg.KafkaTopic) == "" {
		return fmt.Errorf("KAFKA_TOPIC must be set when KAFKA_BROKERS is")
	}
	return nil
}
