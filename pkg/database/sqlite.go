package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kpcnc-co/seminar/config"
)

// sqliteSchema 本地降级存储表结构，与 PostgreSQL 迁移保持同一形状（body 为 JSON 文本）
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS seminar_plans (
    seq           INTEGER PRIMARY KEY AUTOINCREMENT,
    id            TEXT NOT NULL UNIQUE,
    session       TEXT NOT NULL DEFAULT '',
    datetime      TEXT NOT NULL DEFAULT '',
    composite_key TEXT,
    body          TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_seminar_plans_composite_key ON seminar_plans(composite_key);

CREATE TABLE IF NOT EXISTS seminar_results (
    seq           INTEGER PRIMARY KEY AUTOINCREMENT,
    id            TEXT NOT NULL UNIQUE,
    session       TEXT NOT NULL DEFAULT '',
    datetime      TEXT NOT NULL DEFAULT '',
    composite_key TEXT,
    body          TEXT NOT NULL,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_seminar_results_composite_key ON seminar_results(composite_key);
`

// OpenSQLite 打开本地 SQLite 文件并建表（纯 Go 驱动，无需 cgo）
func OpenSQLite(cfg *config.SQLiteConfig, logger *zap.Logger) (*sql.DB, error) {
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建 SQLite 目录失败: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 失败: %w", err)
	}
	// 单连接：避免 database/sql 连接池下 :memory: 各连接各自一份数据，也避免写锁竞争
	db.SetMaxOpenConns(1)

	if err := MigrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("SQLite 本地存储已就绪", zap.String("path", cfg.Path))
	}
	return db, nil
}

// MigrateSQLite 建表（幂等）
func MigrateSQLite(db *sql.DB) error {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("SQLite 建表失败: %w", err)
	}
	return nil
}
