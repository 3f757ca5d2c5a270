// Package app 按配置组装采集流程所需的各个组件。
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LJTian/WeiboTrending/internal/collector"
	"github.com/LJTian/WeiboTrending/internal/config"
	"github.com/LJTian/WeiboTrending/internal/digest"
	"github.com/LJTian/WeiboTrending/internal/notify"
	"github.com/LJTian/WeiboTrending/internal/processor"
	"github.com/LJTian/WeiboTrending/internal/scheduler"
	"github.com/LJTian/WeiboTrending/internal/storage"
)

const redisPingTimeout = 3 * time.Second

type App struct {
	Config *config.Config
	Logger *zap.Logger

	Blobs        storage.BlobStore
	Records      *storage.DailyStore
	Redis        *redis.Client
	Pipeline     *scheduler.Pipeline
	Orchestrator *scheduler.Orchestrator

	closers []func() error
}

// New Redis 不可用时只告警并关闭缓存；存储初始化失败直接返回错误
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}

	if err := a.initStorage(); err != nil {
		return nil, err
	}
	a.initRedis(ctx)

	ua := cfg.Weibo.UserAgent
	var enricher collector.Enricher = collector.NewDetailEnricher(cfg.Weibo.DetailURL, ua, cfg.HTTPTimeout, logger)
	if a.Redis != nil {
		enricher = collector.NewCachedEnricher(enricher, a.Redis, cfg.Cache.TTL, logger)
	}

	a.Records = storage.NewDailyStore(a.Blobs, logger)
	a.Pipeline = &scheduler.Pipeline{
		Fetcher:           collector.NewWeiboHotFetcher(cfg.Weibo.IndexURL, ua, cfg.HTTPTimeout, logger),
		Processor:         processor.NewSimpleProcessor(),
		Enricher:          enricher,
		Records:           a.Records,
		Digest:            digest.NewRenderer(a.Records, a.Blobs, logger),
		Sender:            notify.NewTelegramSender(cfg.Telegram.Token, cfg.Telegram.ChannelID, cfg.Telegram.APIEndpoint, &http.Client{Timeout: cfg.HTTPTimeout}, logger),
		EnrichConcurrency: cfg.EnrichConcurrency,
		Location:          loc,
		Logger:            logger,
	}
	a.Orchestrator = scheduler.NewOrchestrator(a.Pipeline, cfg.RetryAttempts, logger)

	logger.Info("app initialised",
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("detail_cache", a.Redis != nil),
		zap.Int("retry_attempts", cfg.RetryAttempts),
		zap.String("timezone", loc.String()))
	return a, nil
}

func (a *App) initStorage() error {
	switch a.Config.Storage.Driver {
	case config.DriverPostgres:
		store, err := storage.NewStore(a.Config.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("init postgres store: %w", err)
		}
		sqlDB, err := store.DB.DB()
		if err != nil {
			return fmt.Errorf("postgres handle: %w", err)
		}
		a.Blobs = store
		a.closers = append(a.closers, sqlDB.Close)
	default:
		fs, err := storage.NewFileStore(a.Config.Storage.BaseDir)
		if err != nil {
			return fmt.Errorf("init file store: %w", err)
		}
		a.Blobs = fs
	}
	return nil
}

func (a *App) initRedis(ctx context.Context) {
	addr := a.Config.Cache.RedisAddr
	if addr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.Logger.Warn("redis unavailable, detail cache disabled", zap.String("addr", addr), zap.Error(err))
		_ = rdb.Close()
		return
	}
	a.Redis = rdb
	a.closers = append(a.closers, rdb.Close)
}

// Run 执行一次带重试的完整流程
func (a *App) Run(ctx context.Context) scheduler.Result {
	return a.Orchestrator.Run(ctx)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
