package models

import (
	"time"

	"gorm.io/datatypes"
)

// JobStatus 定义了任务的几种可能状态。状态只会向前推进。
type JobStatus string

const (
	JobStatusQueued   JobStatus = "queued"
	JobStatusStarted  JobStatus = "started"
	JobStatusFinished JobStatus = "finished"
	JobStatusFailed   JobStatus = "failed"
)

// Rank 返回状态的先后顺序，用于拒绝倒退的状态更新。
func (s JobStatus) Rank() int {
	switch s {
	case JobStatusQueued:
		return 0
	case JobStatusStarted:
		return 1
	case JobStatusFinished, JobStatusFailed:
		return 2
	default:
		return -1
	}
}

// Terminal 表示任务已经结束。
func (s JobStatus) Terminal() bool {
	return s == JobStatusFinished || s == JobStatusFailed
}

// JobRecord 代表一个持久化的 EDA 任务记录，同时用于 SQL 和 MongoDB。
type JobRecord struct {
	ID          string         `gorm:"primaryKey;size:50" bson:"_id" json:"id"`
	DatasetID   string         `gorm:"index;size:255" bson:"dataset_id" json:"dataset_id"`
	DatasetPath string         `gorm:"size:1024" bson:"dataset_path" json:"dataset_path"`
	Status      JobStatus      `gorm:"type:varchar(20);index;not null" bson:"status" json:"status"`
	Result      datatypes.JSON `bson:"result" json:"result"`
	Error       string         `gorm:"size:4096" bson:"error" json:"error,omitempty"`
	EnqueuedAt  time.Time      `bson:"enqueued_at" json:"enqueued_at"`
	StartedAt   *time.Time     `bson:"started_at" json:"started_at,omitempty"`
	EndedAt     *time.Time     `bson:"ended_at" json:"ended_at"`
}

func (JobRecord) TableName() string {
	return "jobs"
}

// JobMessage 是写入队列的消息体。
type JobMessage struct {
	JobID       string `json:"job_id"`
	DatasetID   string `json:"dataset_id"`
	DatasetPath string `json:"dataset_path"`
	StorageRoot string `json:"storage_root"`
	Theme       string `json:"theme,omitempty"`
	Color       string `json:"color,omitempty"`
}

// JobEvent 是发送到 Kafka 的任务状态变更事件。
type JobEvent struct {
	JobID     string    `json:"job_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    JobStatus `json:"status"`
	Message   string    `json:"message,omitempty"`
}
