package minio

import (
	"context"
	"errors"
	"testing"

	"autoeda/backend/go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
)

type fakeBuckets struct {
	exists    bool
	existsErr error
	made      []string
}

func (f *fakeBuckets) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeBuckets) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func TestEnsureBucket(t *testing.T) {
	ctx := context.Background()

	f := &fakeBuckets{exists: true}
	assert.NoError(t, EnsureBucket(ctx, f, "eda"))
	assert.Empty(t, f.made)

	f = &fakeBuckets{}
	assert.NoError(t, EnsureBucket(ctx, f, "eda"))
	assert.Equal(t, []string{"eda"}, f.made)

	f = &fakeBuckets{existsErr: errors.New("refused")}
	assert.Error(t, EnsureBucket(ctx, f, "eda"))
	assert.Empty(t, f.made)
}

func TestNewClientRequiresBucket(t *testing.T) {
	_, err := NewClient(context.Background(), &config.MinIOConfig{Enabled: true, Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
