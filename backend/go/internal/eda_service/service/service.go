package service

import (
	"context"
	"errors"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/database"
	"autoeda/backend/go/internal/eda_service/queue"
	"autoeda/backend/go/internal/eda_service/store"
	"autoeda/backend/go/internal/pipeline"
	"autoeda/backend/go/pkg/logger"

	"gorm.io/gorm"
)

// Deps 汇集 Service 依赖的组件。DB、Jobs、Queue 可以为 nil，
// 对应功能会降级或返回 database.ErrUnavailable。
type Deps struct {
	Config   *config.AppConfig
	DB       *gorm.DB
	Jobs     store.JobStore
	Files    *store.FileStore
	Queue    queue.Queue
	Events   queue.EventSink
	Pipeline *pipeline.Pipeline
	Logger   *logger.Logger
}

// Service 封装了业务逻辑。
type Service struct {
	cfg      *config.AppConfig
	db       *gorm.DB
	store    *store.Store
	jobs     store.JobStore
	files    *store.FileStore
	queue    queue.Queue
	events   queue.EventSink
	pipeline *pipeline.Pipeline
	log      *logger.Logger
}

// NewService 创建一个新的 Service 实例。
func NewService(d Deps) *Service {
	s := &Service{
		cfg:      d.Config,
		db:       d.DB,
		jobs:     d.Jobs,
		files:    d.Files,
		queue:    d.Queue,
		events:   d.Events,
		pipeline: d.Pipeline,
		log:      d.Logger,
	}
	if d.DB != nil {
		s.store = store.NewStore(d.DB)
	}
	if s.events == nil {
		s.events = queue.NopSink{}
	}
	return s
}

// DBAvailable 表示关系数据库是否可用。
func (s *Service) DBAvailable() bool {
	return s.store != nil
}

func (s *Service) requireStore() (*store.Store, error) {
	if s.store == nil {
		return nil, database.ErrUnavailable
	}
	return s.store, nil
}

// Info 对应 GET /。
func (s *Service) Info() map[string]any {
	return map[string]any{
		"app":     s.cfg.App.Name,
		"version": s.cfg.App.Version,
		"env":     s.cfg.App.Environment,
		"status":  "ok",
	}
}

// ReadyDetails 列出各依赖的可用性。
type ReadyDetails struct {
	DB      bool `json:"db"`
	Queue   bool `json:"queue"`
	Storage bool `json:"storage"`
}

// Readiness 是 /readyz 的响应。
type Readiness struct {
	Ready   bool         `json:"ready"`
	Details ReadyDetails `json:"details"`
}

// Ready 检查存储、数据库和（启用时）队列。
func (s *Service) Ready(ctx context.Context) Readiness {
	d := ReadyDetails{
		DB:      database.HealthCheck(ctx, s.db) == nil,
		Storage: s.files.Writable(),
	}
	if s.queue != nil {
		d.Queue = s.queue.Ping(ctx) == nil
	}
	ready := d.Storage && d.DB && (d.Queue || !s.cfg.Queue.QueueEnabled())
	return Readiness{Ready: ready, Details: d}
}

func mapNotFound(err, to error) error {
	if errors.Is(err, store.ErrNotFound) {
		return to
	}
	return err
}
