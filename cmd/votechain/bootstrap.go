package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"votechain-client/cache"
	"votechain-client/client"
	"votechain-client/config"
	"votechain-client/database"
	"votechain-client/logger"
	"votechain-client/metrics"
	"votechain-client/migrations"
	"votechain-client/repository"
	"votechain-client/service"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// env 一次命令执行所需的全部组件
type env struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	recorder *metrics.Recorder
	client   *client.Client
	snapshot *cache.Snapshot
	db       *gorm.DB
	receipts *repository.GormReceiptRepository
}

// bootstrap 读取配置并创建组件；回执存档或快照缓存不可用时降级而不是失败
func bootstrap(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := logger.ParseLevel(cfg.Log.Level)
	log := logger.NewLogger(level)
	if cfg.Log.SentryDSN != "" {
		if log, err = logger.NewLoggerWithSentry(level, cfg.Log.SentryDSN); err != nil {
			return nil, err
		}
	}
	slog.SetDefault(log)

	rt := &env{cfg: cfg, log: log, registry: prometheus.NewRegistry()}
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.recorder = metrics.NewRecorder(rt.registry)

	rt.client, err = client.New(client.Config{
		BaseURL:   cfg.ServiceURL,
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.RateBurst,
	}, client.WithRecorder(rt.recorder), client.WithLogger(log))
	if err != nil {
		return nil, err
	}

	rt.snapshot = cache.Open(ctx, cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Mock:     cfg.Redis.Mock,
		TTL:      cfg.Redis.TTL,
	}, log)

	if database.Enabled(cfg.Database.Driver) {
		db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
		if err == nil {
			err = migrations.Migrate(db, log)
		}
		if err != nil {
			log.Warn("receipt archive disabled", "driver", cfg.Database.Driver, "error", err)
		} else {
			rt.db = db
			rt.receipts = repository.NewReceiptRepository(db)
		}
	}
	return rt, nil
}

// controller 按可用组件创建同步控制器
func (rt *env) controller(extra ...service.Option) *service.SyncController {
	opts := []service.Option{
		service.WithLogger(rt.log),
		service.WithRecorder(rt.recorder),
		service.WithPublicBaseURL(rt.cfg.PublicBaseURL),
	}
	if rt.snapshot != nil {
		opts = append(opts, service.WithSnapshotCache(rt.snapshot))
	}
	if rt.receipts != nil {
		opts = append(opts, service.WithReceiptArchive(rt.receipts))
	}
	return service.New(rt.client, append(opts, extra...)...)
}

func (rt *env) Close() {
	if rt.snapshot != nil {
		if err := rt.snapshot.Close(); err != nil {
			rt.log.Warn("close snapshot cache failed", "error", err)
		}
	}
	if rt.db != nil {
		if err := database.Close(rt.db); err != nil {
			rt.log.Warn("close receipt archive failed", "error", err)
		}
	}
	logger.Flush()
}

// withRuntime 创建组件、执行命令并在结束后释放
func withRuntime(ctx context.Context, fn func(rt *env) error) error {
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

// userError 命令行只显示用户可见信息，完整错误写入日志
func userError(rt *env, err error) error {
	if err == nil {
		return nil
	}
	rt.log.Debug("command failed", "error", err)
	return errors.New(service.UserMessage(err))
}

func dumpJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
