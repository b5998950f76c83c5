package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/config"
	"github.com/kpcnc-co/seminar/internal/repository"
	"github.com/kpcnc-co/seminar/pkg/database"
)

// openStorage 打开配置的主存储；不可达时切换到 storage.fallback
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Repository, error) {
	repo, err := openDriver(ctx, cfg, cfg.Storage.Driver, logger)
	if err == nil {
		return repo, nil
	}
	if cfg.Storage.Fallback == "" {
		return nil, err
	}

	logger.Warn("主存储不可用，切换到降级存储",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("fallback", cfg.Storage.Fallback),
		zap.Error(err),
	)
	return openDriver(ctx, cfg, cfg.Storage.Fallback, logger)
}

func openDriver(ctx context.Context, cfg *config.Config, driver string, logger *zap.Logger) (*repository.Repository, error) {
	switch driver {
	case config.DriverPostgres:
		db, err := database.NewDB(&cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		return repository.NewGormRepository(db), nil

	case config.DriverMongo:
		db, err := database.NewMongo(ctx, &cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewMongoRepository(db), nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(&cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLiteRepository(db), nil

	case config.DriverMemory:
		logger.Warn("使用内存存储，进程退出后数据不会保留")
		return repository.NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("不支持的存储驱动: %s", driver)
}
