package web_ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkghttp "autoeda/backend/go/pkg/http"
)

// APIError 表示 API 返回了非 2xx 状态码。
type APIError struct {
	Code int
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d — %s", e.Code, e.Body)
}

// DatasetItem 对应 GET /datasets/ 的一项。
type DatasetItem struct {
	DatasetID string `json:"dataset_id"`
	Path      string `json:"path"`
	Ext       string `json:"ext"`
}

// ReportItem 对应 GET /reports 的一项。
type ReportItem struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// RunResult 对应 POST /jobs/run 的响应。
type RunResult struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Result *struct {
		PptxPath *string `json:"pptx_path"`
		Error    *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"result"`
}

// APIClient 通过 pkg/http.Client 调用 API。
type APIClient struct {
	baseURL func() string
	http    *pkghttp.Client
}

// NewAPIClient 创建 APIClient。baseURL 每次调用时求值，以便使用服务发现的结果。
func NewAPIClient(baseURL func() string, c *pkghttp.Client) *APIClient {
	return &APIClient{baseURL: baseURL, http: c}
}

// BaseURL 返回当前使用的 API 地址。
func (a *APIClient) BaseURL() string {
	return strings.TrimRight(a.baseURL(), "/")
}

func (a *APIClient) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL()+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

func (a *APIClient) getJSON(ctx context.Context, method, path string, out any) error {
	resp, err := a.do(ctx, method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析 API 响应失败: %w", err)
	}
	return nil
}

func (a *APIClient) ListDatasets(ctx context.Context) ([]DatasetItem, error) {
	var out []DatasetItem
	return out, a.getJSON(ctx, http.MethodGet, "/datasets/", &out)
}

func (a *APIClient) ListReports(ctx context.Context) ([]ReportItem, error) {
	var out []ReportItem
	return out, a.getJSON(ctx, http.MethodGet, "/reports", &out)
}

func (a *APIClient) RunJob(ctx context.Context, datasetID string) (*RunResult, error) {
	var out RunResult
	if err := a.getJSON(ctx, http.MethodPost, "/jobs/run?dataset_id="+url.QueryEscape(datasetID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadReport 返回报告内容，调用方负责关闭。
func (a *APIClient) DownloadReport(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := a.do(ctx, http.MethodGet, "/reports/download/"+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
