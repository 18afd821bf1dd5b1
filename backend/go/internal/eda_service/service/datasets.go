package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"autoeda/backend/go/internal/eda"
	"autoeda/backend/go/internal/eda_service/store"
	"autoeda/backend/go/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// uploadMaxRows 是上传时读取元数据的行数上限。
const uploadMaxRows = 100_000

// Upload 描述一次上传。Size 为客户端声明的大小，未知时为 -1。
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
	UserID   *string
}

// UploadMeta 是上传后解析得到的行列数。
type UploadMeta struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// UploadResult 是上传接口的响应。
type UploadResult struct {
	DatasetID string     `json:"dataset_id"`
	Filename  string     `json:"filename"`
	StoredAt  string     `json:"stored_at"`
	SizeMB    float64    `json:"size_mb"`
	Meta      UploadMeta `json:"meta"`
}

// ListDatasets 列出存储目录中的数据集。
func (s *Service) ListDatasets() ([]store.DatasetFile, error) {
	return s.files.ListDatasets()
}

func (s *Service) maxUploadBytes() int64 {
	mb := s.cfg.Storage.MaxUploadMB
	if mb <= 0 {
		mb = 50
	}
	return int64(mb) << 20
}

func (s *Service) tooLarge(size int64) error {
	return &detailError{kind: ErrFileTooLarge, msg: fmt.Sprintf("File too large: %.1f MB > %d MB", float64(size)/(1<<20), s.maxUploadBytes()>>20)}
}

// UploadDataset 校验类型与大小，保存为 <uuid><ext> 并解析行列数。
func (s *Service) UploadDataset(ctx context.Context, up Upload) (*UploadResult, error) {
	filename := up.Filename
	if filename == "" {
		filename = "upload"
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !store.AllowedExt(ext) {
		return nil, &detailError{kind: ErrUnsupportedType, msg: fmt.Sprintf("Unsupported file type: %s. Allowed: ['.csv', '.xlsx']", ext)}
	}
	limit := s.maxUploadBytes()
	if up.Size > limit {
		return nil, s.tooLarge(up.Size)
	}
	if err := s.files.EnsureDirs(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	path := s.files.DatasetPath(id, ext)
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("保存上传文件失败: %w", err)
	}
	n, err := io.Copy(out, io.LimitReader(up.Body, limit+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("保存上传文件失败: %w", err)
	}
	if n > limit {
		os.Remove(path)
		return nil, s.tooLarge(n)
	}

	frame, err := eda.Load(path, uploadMaxRows)
	if err != nil {
		os.Remove(path)
		return nil, &detailError{kind: ErrParseFailed, msg: fmt.Sprintf(
			"Failed to parse file: %v. Tips: ensure the file is a valid %s and not password-protected.", err, strings.ToUpper(ext))}
	}
	meta := UploadMeta{Rows: frame.NRows, Cols: len(frame.Columns)}

	s.recordDataset(ctx, id, filename, path, ext, n, meta, up.UserID)
	if err := s.files.Mirror(ctx, store.DatasetKey(filepath.Base(path)), path); err != nil {
		s.log.WithPayload(map[string]interface{}{"dataset_id": id, "error": err.Error()}).Warn("dataset mirror failed")
	}

	return &UploadResult{
		DatasetID: id,
		Filename:  filename,
		StoredAt:  path,
		SizeMB:    math.Round(float64(n)/(1<<20)*1000) / 1000,
		Meta:      meta,
	}, nil
}

// recordDataset 尽力把元数据写入数据库，失败只记录日志。
func (s *Service) recordDataset(ctx context.Context, id, filename, path, ext string, size int64, meta UploadMeta, userID *string) {
	if s.store == nil {
		return
	}
	mimeType := ""
	if m, err := mimetype.DetectFile(path); err == nil {
		mimeType = m.String()
	}
	ds := &models.Dataset{
		ID:           id,
		UserID:       userID,
		OriginalName: filename,
		StoredPath:   path,
		Ext:          ext,
		MimeType:     mimeType,
		SizeBytes:    size,
		Rows:         meta.Rows,
		Cols:         meta.Cols,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateDataset(ds); err != nil {
		s.log.WithPayload(map[string]interface{}{"dataset_id": id, "error": err.Error()}).Warn("dataset metadata not recorded")
	}
}

// GetDataset 返回数据库中的数据集元数据。
func (s *Service) GetDataset(id string) (*models.Dataset, error) {
	st, err := s.requireStore()
	if err != nil {
		return nil, err
	}
	ds, err := st.GetDataset(id)
	if err != nil {
		return nil, mapNotFound(err, ErrDatasetNotFound)
	}
	return ds, nil
}

// DeleteDataset 删除数据库记录和文件，两者都不存在时返回 ErrDatasetNotFound。
func (s *Service) DeleteDataset(id string) error {
	found := false
	if s.store != nil {
		switch err := s.store.DeleteDataset(id); {
		case err == nil:
			found = true
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}
	switch err := s.files.RemoveDataset(id); {
	case err == nil:
		found = true
	case !errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("删除数据集文件失败: %w", err)
	}
	if !found {
		return ErrDatasetNotFound
	}
	return nil
}
