package service

import (
	"context"

	"autoeda/backend/go/internal/eda_service/store"
)

// ListReports 列出已生成的报告。
func (s *Service) ListReports() ([]store.ReportFile, error) {
	return s.files.ListReports()
}

// ReportPath 返回可以下载的报告路径，名称不合法或文件不存在时返回 ErrReportNotFound。
func (s *Service) ReportPath(ctx context.Context, name string) (string, error) {
	path, err := s.files.ReportPath(ctx, name)
	if err != nil {
		return "", mapNotFound(err, ErrReportNotFound)
	}
	return path, nil
}
