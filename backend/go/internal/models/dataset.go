package models

import (
	"time"
)

// Dataset 记录一次上传的数据集文件及其基本元数据。
type Dataset struct {
	ID           string    `gorm:"primaryKey;size:50" json:"id"`
	UserID       *string   `gorm:"index;size:50" json:"user_id,omitempty"`
	OriginalName string    `gorm:"index;size:255" json:"original_name"`
	StoredPath   string    `gorm:"size:1024" json:"stored_path"`
	Ext          string    `gorm:"index;size:16" json:"ext"`
	MimeType     string    `gorm:"size:100" json:"mime_type,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	Rows         int       `json:"rows"`
	Cols         int       `json:"cols"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (Dataset) TableName() string {
	return "datasets"
}
