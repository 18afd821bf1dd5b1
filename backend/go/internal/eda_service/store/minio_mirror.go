package store

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// MinIOMirror 把数据集和报告镜像到一个 MinIO 存储桶。
type MinIOMirror struct {
	client *minio.Client
	bucket string
}

func NewMinIOMirror(client *minio.Client, bucket string) *MinIOMirror {
	return &MinIOMirror{client: client, bucket: bucket}
}

// Put 上传本地文件。
func (m *MinIOMirror) Put(ctx context.Context, key, path string) error {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := m.client.FPutObject(ctx, m.bucket, key, path, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("上传 %s 到 MinIO 失败: %w", key, err)
	}
	return nil
}

// Fetch 下载对象到本地路径。
func (m *MinIOMirror) Fetch(ctx context.Context, key, path string) error {
	if err := m.client.FGetObject(ctx, m.bucket, key, path, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("从 MinIO 下载 %s 失败: %w", key, err)
	}
	return nil
}
