package mongo

import (
	"context"
	"fmt"
	"time"

	"autoeda/backend/go/internal/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect 连接 MongoDB 并 Ping 一次。调用方负责 Disconnect。
func Connect(ctx context.Context, cfg *config.MongoConfig) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" && cfg.Password != "" {
		clientOptions.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("无法连接到 MongoDB: %w", err)
	}
	if err = c.Ping(ctx, nil); err != nil {
		_ = c.Disconnect(ctx)
		return nil, fmt.Errorf("无法 Ping MongoDB: %w", err)
	}
	logrus.WithField("database", cfg.Database).Info("mongodb connected")
	return c, nil
}

// Collection 返回配置中的任务集合。
func Collection(c *mongo.Client, cfg *config.MongoConfig) *mongo.Collection {
	return c.Database(cfg.Database).Collection(cfg.Collection)
}
