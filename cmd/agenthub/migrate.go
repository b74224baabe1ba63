package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/BaSui01/agenthub/internal/migration"
)

// =============================================================================
// 🗄️ 数据库迁移命令
// =============================================================================

func runMigrate(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("migrate", out)
	configPath := configFlag(fs)
	dbType := fs.String("db-type", "", "Database type (postgres, mysql, sqlite)")
	dbURL := fs.String("db-url", "", "Database URL (overrides config)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(out, "Usage: agenthub migrate [--config path] [--db-type t --db-url u] <up|down|down-all|steps|goto|force|version|status|info>")
		return errUsage
	}

	migrator, logger, err := createMigrator(*configPath, *dbType, *dbURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrator.Close(); cerr != nil {
			logger.Warn("failed to close migrator", zap.Error(cerr))
		}
		_ = logger.Sync()
	}()

	cli := migration.NewCLI(migrator)
	cli.SetOutput(out)
	return cli.Run(ctx, fs.Args())
}

// createMigrator 优先使用命令行连接串，否则读取配置中的数据库
func createMigrator(configPath, dbType, dbURL string) (migration.Migrator, *zap.Logger, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := initLogger(cfg.Log).With(zap.String("command", "migrate"))

	var m migration.Migrator
	if dbURL != "" {
		if dbType == "" {
			dbType = cfg.Database.Driver
		}
		m, err = migration.NewMigratorFromURL(dbType, dbURL, logger)
	} else {
		m, err = migration.NewMigratorFromDatabaseConfig(cfg.Database, logger)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, logger, nil
}
