package store

import (
	"errors"
	"fmt"

	"autoeda/backend/go/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound 表示记录不存在。
var ErrNotFound = errors.New("record not found")

// Store 封装了关系数据库上的用户与数据集操作。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- User Management ---

// CreateUser 在数据库中创建一个新用户。
func (s *Store) CreateUser(user *models.User) error {
	if err := s.DB.Create(user).Error; err != nil {
		return fmt.Errorf("创建用户失败: %w", err)
	}
	return nil
}

// GetUserByEmail 通过邮箱地址查找用户。
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByID 通过 ID 查找用户。
func (s *Store) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// --- Datasets ---

// CreateDataset 记录一次上传。
func (s *Store) CreateDataset(ds *models.Dataset) error {
	if err := s.DB.Create(ds).Error; err != nil {
		return fmt.Errorf("保存数据集记录失败: %w", err)
	}
	return nil
}

// GetDataset 按 ID 查找数据集记录。
func (s *Store) GetDataset(id string) (*models.Dataset, error) {
	var ds models.Dataset
	if err := s.DB.Where("id = ?", id).First(&ds).Error; err != nil {
		return nil, notFound(err)
	}
	return &ds, nil
}

// DeleteDataset 删除数据集记录，不存在时返回 ErrNotFound。
func (s *Store) DeleteDataset(id string) error {
	res := s.DB.Where("id = ?", id).Delete(&models.Dataset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
