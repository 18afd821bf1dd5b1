// Package bootstrap 根据配置组装 Service 及其依赖，供 API 和 worker 进程共用。
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/database"
	edakafka "autoeda/backend/go/internal/database/kafka"
	edaminio "autoeda/backend/go/internal/database/minio"
	edamongo "autoeda/backend/go/internal/database/mongo"
	edaredis "autoeda/backend/go/internal/database/redis"
	"autoeda/backend/go/internal/deck"
	"autoeda/backend/go/internal/eda"
	"autoeda/backend/go/internal/eda_service/queue"
	"autoeda/backend/go/internal/eda_service/service"
	"autoeda/backend/go/internal/eda_service/store"
	"autoeda/backend/go/internal/narrative"
	"autoeda/backend/go/internal/pipeline"
	"autoeda/backend/go/pkg/logger"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// redisJobTTL 是 Redis 中任务记录的保留时间。
const redisJobTTL = 7 * 24 * time.Hour

// App 持有组装好的 Service 以及需要在退出时释放的资源。
type App struct {
	Service *service.Service
	Queue   queue.Queue
	Files   *store.FileStore

	closers []func() error
}

// Close 按注册的逆序释放资源。
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EDAOptions 把配置转换为 eda.Options，未设置的字段使用默认值。
func EDAOptions(cfg config.EDAConfig) eda.Options {
	opts := eda.DefaultOptions()
	if cfg.SampleRows != 0 {
		opts.SampleRows = cfg.SampleRows
	}
	if cfg.MaxCols > 0 {
		opts.MaxCols = cfg.MaxCols
	}
	if cfg.MaxNumericHists > 0 {
		opts.MaxNumericHists = cfg.MaxNumericHists
	}
	if cfg.MaxCategoricalBars > 0 {
		opts.MaxCategoricalBars = cfg.MaxCategoricalBars
	}
	if cfg.CorrTopK > 0 {
		opts.CorrTopK = cfg.CorrTopK
	}
	return opts
}

// NewPipeline 按配置创建 EDA → 叙述 → PPTX 流水线。
func NewPipeline(cfg *config.AppConfig, log *logger.Logger) *pipeline.Pipeline {
	builder := deck.NewBuilder(cfg.Office.LicenseKey)
	log.WithPayload(map[string]any{"engine": builder.Engine()}).Info("pptx renderer selected")
	return pipeline.New(
		eda.NewRunner(cfg.Storage.Dir, EDAOptions(cfg.EDA), cfg.EDA.CacheSize),
		narrative.NewGenerator(cfg.Narrative, log),
		builder,
	)
}

// Build 组装 Service。关系数据库不可用时只记录警告，相关接口返回 503；
// 队列模式下依赖的组件不可用时返回错误。
func Build(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*App, error) {
	app := &App{}
	fail := func(err error) (*App, error) {
		_ = app.Close()
		return nil, err
	}

	db, err := database.Open(&cfg.Databases.SQL)
	if err != nil {
		log.Warn("database unavailable, auth and dataset records disabled: " + err.Error())
		db = nil
	} else {
		app.closers = append(app.closers, func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
	}

	var mirror store.Mirror
	if cfg.Storage.MinIO.Enabled {
		mc, err := edaminio.NewClient(ctx, &cfg.Storage.MinIO)
		if err != nil {
			return fail(err)
		}
		mirror = store.NewMinIOMirror(mc, cfg.Storage.MinIO.Bucket)
	}
	app.Files = store.NewFileStore(cfg.Storage.Dir, mirror)
	if err := app.Files.EnsureDirs(); err != nil {
		return fail(err)
	}

	deps := service.Deps{
		Config:   cfg,
		DB:       db,
		Files:    app.Files,
		Pipeline: NewPipeline(cfg, log),
		Logger:   log,
	}

	if cfg.Queue.QueueEnabled() {
		var rdb *redis.Client
		redisClient := func() (*redis.Client, error) {
			if rdb != nil {
				return rdb, nil
			}
			c, err := edaredis.NewClient(ctx, &cfg.Databases.Redis)
			if err != nil {
				return nil, err
			}
			rdb = c
			app.closers = append(app.closers, rdb.Close)
			return rdb, nil
		}

		q, err := newQueue(cfg, log, redisClient)
		if err != nil {
			return fail(err)
		}
		app.Queue = q
		app.closers = append(app.closers, q.Close)
		deps.Queue = q

		jobs, err := app.newJobStore(ctx, cfg, db, redisClient)
		if err != nil {
			return fail(err)
		}
		deps.Jobs = jobs

		if cfg.Queue.Events {
			pub := edakafka.NewEventPublisher(&cfg.Databases.Kafka)
			app.closers = append(app.closers, pub.Close)
			deps.Events = pub
		}
	}

	app.Service = service.NewService(deps)
	return app, nil
}

func newQueue(cfg *config.AppConfig, log *logger.Logger, redisClient func() (*redis.Client, error)) (queue.Queue, error) {
	switch cfg.Queue.Backend {
	case "", "redis":
		rdb, err := redisClient()
		if err != nil {
			return nil, err
		}
		return queue.NewRedisQueue(rdb, cfg.Queue.Name, log), nil
	case "kafka":
		kc := &cfg.Databases.Kafka
		if err := edakafka.EnsureTopics(kc, kc.JobsTopic, kc.EventsTopic); err != nil {
			return nil, err
		}
		return queue.NewKafkaQueue(kc, log), nil
	default:
		return nil, fmt.Errorf("未知的队列后端: %s", cfg.Queue.Backend)
	}
}

func (app *App) newJobStore(ctx context.Context, cfg *config.AppConfig, db *gorm.DB, redisClient func() (*redis.Client, error)) (store.JobStore, error) {
	switch cfg.Queue.JobStore {
	case "", "sql":
		if db == nil {
			return nil, fmt.Errorf("任务存储为 sql 但数据库不可用: %w", database.ErrUnavailable)
		}
		return store.NewSQLJobStore(db), nil
	case "redis":
		rdb, err := redisClient()
		if err != nil {
			return nil, err
		}
		return store.NewRedisJobStore(rdb, redisJobTTL), nil
	case "mongo":
		mc, err := edamongo.Connect(ctx, &cfg.Databases.MongoDB)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() error { return mc.Disconnect(context.Background()) })
		return store.NewMongoJobStore(edamongo.Collection(mc, &cfg.Databases.MongoDB)), nil
	default:
		return nil, fmt.Errorf("未知的任务存储: %s", cfg.Queue.JobStore)
	}
}
