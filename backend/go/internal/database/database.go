// Package database opens the relational store selected by configuration and
// migrates the schema.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/database/mysql"
	"autoeda/backend/go/internal/database/sqlite"
	"autoeda/backend/go/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrUnavailable 表示数据库未配置或无法连接。
var ErrUnavailable = errors.New("database unavailable")

// Driver 返回实际使用的驱动。DATABASE_URL 的协议前缀优先于 driver 字段。
func Driver(cfg *config.DatabaseConfig) string {
	switch {
	case strings.HasPrefix(cfg.DSN, "mysql"):
		return "mysql"
	case strings.HasPrefix(cfg.DSN, "sqlite"):
		return "sqlite"
	case cfg.Driver != "":
		return strings.ToLower(cfg.Driver)
	}
	return "sqlite"
}

// Open 根据配置打开数据库并执行迁移，每次调用都会新建连接。
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch drv := Driver(cfg); drv {
	case "mysql":
		db, err = mysql.Open(cfg)
	case "sqlite":
		db, err = sqlite.Open(cfg)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", drv)
	}
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	logrus.WithField("driver", Driver(cfg)).Info("database connected")
	return db, nil
}

// Migrate 创建或更新表结构。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Dataset{}, &models.JobRecord{}); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	return nil
}

// HealthCheck 检查给定连接是否可用。
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return ErrUnavailable
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("无法获取底层 SQL DB 实例进行健康检查: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
