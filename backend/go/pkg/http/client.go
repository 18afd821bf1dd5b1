package http

import (
	"fmt"
	"net/http"
	"time"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/pkg/circuitbreaker"
)

// Client 包装 http.Client，启用时通过熔断器发送请求。
type Client struct {
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

// NewClient 创建带超时的 Client。cfg.Enabled 为 false 时不使用熔断器。
func NewClient(cfg config.CircuitBreakerConfig, timeout time.Duration) (*Client, error) {
	c := &Client{httpClient: &http.Client{Timeout: timeout}}
	if !cfg.Enabled {
		return c, nil
	}
	breaker, err := createCircuitBreaker(cfg)
	if err != nil {
		return nil, err
	}
	c.breaker = breaker
	return c, nil
}

// Do 发送请求。5xx 响应计为熔断器失败，但响应本身仍会返回给调用方。
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}
	var resp *http.Response
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("server error: received status code %d", resp.StatusCode)
		}
		return nil, nil
	})
	if resp != nil && resp.StatusCode >= http.StatusInternalServerError {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
