package minio

import (
	"context"
	"fmt"
	"time"

	"autoeda/backend/go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// bucketAPI 是 EnsureBucket 需要的最小接口，*minio.Client 满足它。
type bucketAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
}

// NewClient 创建 MinIO 客户端并确保配置的存储桶存在。
// minio.Client 没有需要关闭的连接，每次 Build 新建一个即可。
func NewClient(ctx context.Context, cfg *config.MinIOConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("MinIO 已启用但 endpoint 或 bucket 为空")
	}
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("无法创建 MinIO 客户端: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := EnsureBucket(ctx, c, cfg.Bucket); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"endpoint": cfg.Endpoint, "bucket": cfg.Bucket}).Info("minio connected")
	return c, nil
}

// EnsureBucket 在存储桶不存在时创建它。
func EnsureBucket(ctx context.Context, c bucketAPI, bucket string) error {
	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("MinIO 健康检查失败: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucket, err)
	}
	logrus.WithField("bucket", bucket).Info("minio bucket created")
	return nil
}
