package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/BaSui01/agenthub/agent/archive"
	"github.com/BaSui01/agenthub/agent/artifacts"
	"github.com/BaSui01/agenthub/agent/exchange"
	"github.com/BaSui01/agenthub/config"
	"github.com/BaSui01/agenthub/internal/database"
	"github.com/BaSui01/agenthub/internal/metrics"
	"github.com/BaSui01/agenthub/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// app 持有一次命令执行期间的全部依赖
type app struct {
	command   string
	cfg       *config.Config
	logger    *zap.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Collector
	telemetry *telemetry.Providers
	service   *exchange.Service
	manager   *artifacts.Manager
	closers   []func() error
}

// configFlag 注册所有命令共用的 --config 参数
func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", "", "Path to configuration file (YAML)")
}

// loadConfig 加载并校验配置
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.NewLoader().
		WithConfigPath(path).
		WithValidator(func(c *config.Config) error { return c.Validate() }).
		Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newApp(command, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := initLogger(cfg.Log).With(zap.String("command", command))
	a := &app{command: command, cfg: cfg, logger: logger}

	tp, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		// 遥测不可用时不阻断命令
		logger.Warn("failed to initialize telemetry, continuing without it", zap.Error(err))
		tp = &telemetry.Providers{}
	}
	a.telemetry = tp

	opts := []exchange.Option{}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.metrics = metrics.NewCollector(cfg.Metrics.Namespace, a.registry, logger)
		opts = append(opts, exchange.WithMetrics(a.metrics))
	}

	ids, err := archive.NewSnowflakeGenerator(cfg.Archive.NodeID)
	if err != nil {
		return nil, err
	}
	opts = append(opts, exchange.WithIDGenerator(ids))
	a.service = exchange.NewService(logger, opts...)

	return a, nil
}

// assets 按配置打开资产库，同一次执行内只打开一次
func (a *app) assets(ctx context.Context) (*artifacts.Manager, error) {
	if a.manager != nil {
		return a.manager, nil
	}

	maxSize, err := a.cfg.Storage.MaxAssetSizeBytes()
	if err != nil {
		return nil, err
	}

	var store artifacts.ArtifactStore
	switch a.cfg.Storage.Backend {
	case config.StorageBackendFile:
		store, err = artifacts.NewFileStore(a.cfg.Storage.BasePath)
	case config.StorageBackendDatabase:
		store, err = a.openDBStore(ctx)
	default:
		err = fmt.Errorf("unsupported storage backend %q", a.cfg.Storage.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open asset store: %w", err)
	}

	a.manager = artifacts.NewManager(artifacts.ManagerConfig{
		MaxSize:    maxSize,
		DefaultTTL: a.cfg.Storage.DefaultTTL,
	}, store, a.logger)
	return a.manager, nil
}

func (a *app) openDBStore(ctx context.Context) (*artifacts.DBStore, error) {
	dbCfg := a.cfg.Database
	db, err := database.Open(dbCfg, a.logger)
	if err != nil {
		return nil, err
	}

	var opts []database.PoolOption
	if a.metrics != nil {
		opts = append(opts, database.WithStatsRecorder(dbCfg.Driver, a.metrics))
		if err := database.Instrument(db, dbCfg.Driver, a.metrics); err != nil {
			return nil, fmt.Errorf("instrument database: %w", err)
		}
	}

	pool, err := database.NewPoolManager(db, database.PoolConfigFrom(dbCfg), a.logger, opts...)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database not reachable: %w", err)
	}

	store, err := artifacts.NewDBStore(pool.DB(), a.logger)
	if err != nil {
		return nil, err
	}
	if dbCfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return store, nil
}

// Close 推送指标、关闭数据库并刷新遥测
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.registry != nil && a.cfg.Metrics.PushGateway != "" {
		err := push.New(a.cfg.Metrics.PushGateway, a.cfg.Metrics.Namespace).
			Gatherer(a.registry).
			Grouping("command", a.command).
			PushContext(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("push metrics: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
