package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autoeda/backend/go/internal/models"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleStatus 表示状态更新会让任务倒退。
var ErrStaleStatus = errors.New("job status cannot move backwards")

// JobStore defines the interface for job persistence.
type JobStore interface {
	Create(ctx context.Context, job *models.JobRecord) error
	Get(ctx context.Context, id string) (*models.JobRecord, error)
	Advance(ctx context.Context, id string, u JobUpdate) error
}

// JobUpdate 描述一次状态变更。
type JobUpdate struct {
	Status models.JobStatus
	Result datatypes.JSON
	Error  string
	At     time.Time
}

// apply 把更新写入记录，只允许状态向前推进。
func apply(job *models.JobRecord, u JobUpdate) error {
	if u.Status.Rank() <= job.Status.Rank() {
		return fmt.Errorf("%w: %s -> %s", ErrStaleStatus, job.Status, u.Status)
	}
	at := u.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	job.Status = u.Status
	switch u.Status {
	case models.JobStatusStarted:
		job.StartedAt = &at
	case models.JobStatusFinished, models.JobStatusFailed:
		job.EndedAt = &at
		job.Result = u.Result
		job.Error = u.Error
	}
	return nil
}

// --- SQL ---

// SQLJobStore 把任务保存在 jobs 表中。
type SQLJobStore struct {
	db *gorm.DB
}

func NewSQLJobStore(db *gorm.DB) *SQLJobStore {
	return &SQLJobStore{db: db}
}

func (s *SQLJobStore) Create(ctx context.Context, job *models.JobRecord) error {
	return s.db.WithContext(ctx).Create(job).Error
}

func (s *SQLJobStore) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	var job models.JobRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, notFound(err)
	}
	return &job, nil
}

func (s *SQLJobStore) Advance(ctx context.Context, id string, u JobUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.JobRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&job).Error; err != nil {
			return notFound(err)
		}
		if err := apply(&job, u); err != nil {
			return err
		}
		return tx.Save(&job).Error
	})
}

// --- MongoDB ---

// MongoJobStore is an implementation of JobStore using MongoDB.
type MongoJobStore struct {
	collection *mongo.Collection
}

// NewMongoJobStore creates a new MongoJobStore.
func NewMongoJobStore(collection *mongo.Collection) *MongoJobStore {
	return &MongoJobStore{collection: collection}
}

// Create inserts a new job record into the database.
func (s *MongoJobStore) Create(ctx context.Context, job *models.JobRecord) error {
	_, err := s.collection.InsertOne(ctx, job)
	return err
}

// Get retrieves a job by its ID.
func (s *MongoJobStore) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	var job models.JobRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Advance updates the job only if its status has not changed since it was read.
func (s *MongoJobStore) Advance(ctx context.Context, id string, u JobUpdate) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	prev := job.Status
	if err := apply(job, u); err != nil {
		return err
	}
	filter := bson.M{"_id": id, "status": prev}
	update := bson.M{
		"$set": bson.M{
			"status":     job.Status,
			"result":     job.Result,
			"error":      job.Error,
			"started_at": job.StartedAt,
			"ended_at":   job.EndedAt,
		},
	}
	res, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: concurrent update of %s", ErrStaleStatus, id)
	}
	return nil
}

// --- Redis ---

// RedisJobStore 把每个任务以 JSON 形式保存在 eda:job:<id> 中。
type RedisJobStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisJobStore 创建 RedisJobStore。ttl 为 0 时记录不过期。
func NewRedisJobStore(rdb *redis.Client, ttl time.Duration) *RedisJobStore {
	return &RedisJobStore{rdb: rdb, ttl: ttl}
}

func jobKey(id string) string {
	return "eda:job:" + id
}

func (s *RedisJobStore) Create(ctx context.Context, job *models.JobRecord) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, jobKey(job.ID), data, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	return nil
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	return s.get(ctx, s.rdb, id)
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisJobStore) get(ctx context.Context, c stringGetter, id string) (*models.JobRecord, error) {
	data, err := c.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var job models.JobRecord
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("解析任务记录失败: %w", err)
	}
	return &job, nil
}

// Advance 在 WATCH 保护下读取、校验并写回记录。
func (s *RedisJobStore) Advance(ctx context.Context, id string, u JobUpdate) error {
	key := jobKey(id)
	return s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		job, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := apply(job, u); err != nil {
			return err
		}
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
}
