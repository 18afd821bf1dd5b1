package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"autoeda/backend/go/internal/config"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Path 把 sqlite:///./dev.db 形式的 URL 转换为文件路径。
func Path(raw string) string {
	if p, ok := strings.CutPrefix(raw, "sqlite:///"); ok {
		return p
	}
	return strings.TrimPrefix(raw, "sqlite://")
}

func inMemory(path string) bool {
	return strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}

// Open 打开一个 SQLite 数据库，文件所在目录不存在时会自动创建。
// 内存数据库只使用一个连接，否则每个连接都会看到不同的库。
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	path := Path(cfg.DSN)
	if path == "" {
		path = "dev.db"
	}
	if !inMemory(path) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建 SQLite 目录失败: %w", err)
			}
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("无法打开 SQLite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("无法获取底层 SQL DB 实例: %w", err)
	}
	if inMemory(path) {
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return db, nil
}
