package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"autoeda/backend/go/internal/eda_service/store"
	"autoeda/backend/go/internal/models"
	"autoeda/backend/go/internal/pipeline"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SyncJobID 是同步执行时返回的任务 ID。
const SyncJobID = "sync"

// RunResponse 是 POST /jobs/run 的响应。同步执行时带 Result，排队时带 DatasetPath。
type RunResponse struct {
	JobID       string           `json:"job_id"`
	Status      models.JobStatus `json:"status"`
	DatasetPath string           `json:"dataset_path,omitempty"`
	Result      *pipeline.Result `json:"result,omitempty"`
}

// JobView 是 GET /jobs/:id 的响应。
type JobView struct {
	ID         string           `json:"id"`
	Status     models.JobStatus `json:"status"`
	Result     json.RawMessage  `json:"result"`
	EnqueuedAt *time.Time       `json:"enqueued_at,omitempty"`
	EndedAt    *time.Time       `json:"ended_at,omitempty"`
}

// QueueActive 表示任务是否走异步队列。
func (s *Service) QueueActive() bool {
	return s.cfg.Queue.QueueEnabled() && s.queue != nil && s.jobs != nil
}

// RunJob 解析数据集并执行流水线：启用队列时入队，否则同步执行。
func (s *Service) RunJob(ctx context.Context, datasetID string, opts pipeline.Options) (*RunResponse, error) {
	path, err := s.files.ResolveDataset(datasetID)
	if err != nil {
		return nil, mapNotFound(err, ErrDatasetNotFound)
	}
	opts = s.withDeckDefaults(opts)

	if !s.QueueActive() {
		res := s.pipeline.Run(ctx, path, s.files.Root(), opts)
		s.mirrorReport(ctx, res)
		return &RunResponse{JobID: SyncJobID, Status: models.JobStatusFinished, Result: &res}, nil
	}

	job := &models.JobRecord{
		ID:          uuid.NewString(),
		DatasetID:   datasetID,
		DatasetPath: path,
		Status:      models.JobStatusQueued,
		EnqueuedAt:  time.Now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("创建任务记录失败: %w", err)
	}
	msg := models.JobMessage{
		JobID:       job.ID,
		DatasetID:   datasetID,
		DatasetPath: path,
		StorageRoot: s.files.Root(),
		Theme:       opts.Theme,
		Color:       opts.Color,
	}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		s.finish(ctx, job.ID, models.JobStatusFailed, nil, err.Error())
		return nil, err
	}
	s.publish(ctx, job.ID, models.JobStatusQueued, "")
	return &RunResponse{JobID: job.ID, Status: models.JobStatusQueued, DatasetPath: path}, nil
}

// GetJob 查询任务状态。
func (s *Service) GetJob(ctx context.Context, id string) (*JobView, error) {
	if id == SyncJobID {
		return &JobView{ID: SyncJobID, Status: models.JobStatusFinished}, nil
	}
	if s.jobs == nil {
		return nil, ErrJobNotFound
	}
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrJobNotFound)
	}
	view := &JobView{ID: job.ID, Status: job.Status, EnqueuedAt: &job.EnqueuedAt, EndedAt: job.EndedAt}
	if len(job.Result) > 0 {
		view.Result = json.RawMessage(job.Result)
	}
	return view, nil
}

// ProcessJob 是 worker 的消息处理函数：started → 执行流水线 → finished|failed。
func (s *Service) ProcessJob(ctx context.Context, msg models.JobMessage) error {
	if err := s.jobs.Advance(ctx, msg.JobID, store.JobUpdate{Status: models.JobStatusStarted}); err != nil {
		if errors.Is(err, store.ErrStaleStatus) {
			s.log.WithPayload(map[string]interface{}{"job_id": msg.JobID}).Warn("job already handled, skipping")
			return nil
		}
		return fmt.Errorf("标记任务开始失败: %w", err)
	}
	s.publish(ctx, msg.JobID, models.JobStatusStarted, "")

	runCtx, cancel := context.WithTimeout(ctx, s.jobTimeout())
	defer cancel()

	root := msg.StorageRoot
	if root == "" {
		root = s.files.Root()
	}
	res := s.pipeline.Run(runCtx, msg.DatasetPath, root, s.withDeckDefaults(pipeline.Options{Theme: msg.Theme, Color: msg.Color}))
	s.mirrorReport(ctx, res)

	data, err := json.Marshal(res)
	if err != nil {
		return s.finish(ctx, msg.JobID, models.JobStatusFailed, nil, err.Error())
	}
	if res.Error != nil {
		return s.finish(ctx, msg.JobID, models.JobStatusFailed, data, res.Error.Message)
	}
	return s.finish(ctx, msg.JobID, models.JobStatusFinished, data, "")
}

func (s *Service) finish(ctx context.Context, id string, status models.JobStatus, result datatypes.JSON, errMsg string) error {
	// 任务超时后 ctx 可能已取消，状态仍然需要落库
	ctx = context.WithoutCancel(ctx)
	if err := s.jobs.Advance(ctx, id, store.JobUpdate{Status: status, Result: result, Error: errMsg}); err != nil {
		return fmt.Errorf("更新任务状态失败: %w", err)
	}
	s.publish(ctx, id, status, errMsg)
	return nil
}

func (s *Service) publish(ctx context.Context, id string, status models.JobStatus, message string) {
	ev := models.JobEvent{JobID: id, Timestamp: time.Now().UTC(), Status: status, Message: message}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "event_error"}).
			WithPayload(map[string]interface{}{"job_id": id, "status": status}).
			Warn("job event not published")
	}
}

func (s *Service) jobTimeout() time.Duration {
	if s.cfg.Queue.JobTimeout <= 0 {
		return 900 * time.Second
	}
	return time.Duration(s.cfg.Queue.JobTimeout) * time.Second
}

func (s *Service) withDeckDefaults(opts pipeline.Options) pipeline.Options {
	if opts.Theme == "" {
		opts.Theme = s.cfg.Office.Theme
	}
	if opts.Color == "" {
		opts.Color = s.cfg.Office.Color
	}
	return opts
}

func (s *Service) mirrorReport(ctx context.Context, res pipeline.Result) {
	if res.PptxPath == nil {
		return
	}
	name := *res.PptxPath
	path := filepath.Join(s.files.ReportsDir(), name)
	if err := s.files.Mirror(ctx, store.ReportKey(name), path); err != nil {
		s.log.WithPayload(map[string]interface{}{"report": name, "error": err.Error()}).Warn("report mirror failed")
	}
}
