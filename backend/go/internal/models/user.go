package models

import (
	"time"
)

// User 代表一个可以登录的账户。密码只保存 bcrypt 哈希。
type User struct {
	ID           string    `gorm:"primaryKey;size:50" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName 保持与旧版 schema 一致。
func (User) TableName() string {
	return "user"
}
