package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autoeda/backend/go/internal/config"
	pkghttp "autoeda/backend/go/pkg/http"
)

// requestTimeout 覆盖一次同步生成报告的耗时。
const requestTimeout = 120 * time.Second

// apiClient 封装对 API 的调用。
type apiClient struct {
	base  string
	token string
	http  *pkghttp.Client
}

func newAPIClient() (*apiClient, error) {
	c, err := pkghttp.NewClient(config.CircuitBreakerConfig{}, requestTimeout)
	if err != nil {
		return nil, err
	}
	return &apiClient{base: strings.TrimRight(apiURL, "/"), token: token, http: c}, nil
}

// apiError 是非 2xx 响应。
type apiError struct {
	Code int
	Body string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error: %d — %s", e.Code, e.Body)
}

func (a *apiClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &apiError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return resp, nil
}

// call 发送请求并把 JSON 响应解码到 out。
func (a *apiClient) call(ctx context.Context, method, path string, in, out any) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body, contentType = bytes.NewReader(data), "application/json"
	}
	resp, err := a.do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	return jsonDecode(resp.Body, out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func jsonDecode(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("解析 API 响应失败: %w", err)
	}
	return nil
}
