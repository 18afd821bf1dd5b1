package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/pkg/circuitbreaker"
	"autoeda/backend/go/pkg/httpmiddleware"
	"autoeda/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server 包装 http.Server，承载一个 gin 引擎。
type Server struct {
	httpServer *http.Server
}

// ServerOption 用于配置 Server。
type ServerOption func(*Server)

// WithAddress 设置监听地址。
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// WithReadHeaderTimeout 设置读取请求头的超时时间。
func WithReadHeaderTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.httpServer.ReadHeaderTimeout = d
	}
}

// NewServer 创建 Server，默认监听 :8080。
func NewServer(handler http.Handler, opts ...ServerOption) *Server {
	srv := &Server{httpServer: &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = ":8080"
	}
	return srv
}

// Addr 返回监听地址。
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe 启动服务器。正常关闭时返回 nil。
func (s *Server) ListenAndServe() error {
	logrus.WithField("addr", s.httpServer.Addr).Info("Starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅地关闭服务器。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Middlewares 按配置返回限流与熔断中间件。需要在注册路由之前 Use。
func Middlewares(cfg config.MiddlewareConfig) ([]gin.HandlerFunc, error) {
	var out []gin.HandlerFunc
	if cfg.RateLimiter.Enabled {
		factory, err := ratelimiter.FromConfig(cfg.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		logrus.WithField("algorithm", cfg.RateLimiter.Algorithm).Info("Enabling Rate Limiter middleware")
		out = append(out, httpmiddleware.RateLimit(ratelimiter.NewKeyed(factory, 0)))
	}
	if cfg.CircuitBreaker.Enabled {
		breaker, err := createCircuitBreaker(cfg.CircuitBreaker)
		if err != nil {
			return nil, fmt.Errorf("failed to create circuit breaker: %w", err)
		}
		logrus.Info("Enabling Circuit Breaker middleware")
		out = append(out, httpmiddleware.CircuitBreak(breaker))
	}
	return out, nil
}

func createCircuitBreaker(cfg config.CircuitBreakerConfig) (circuitbreaker.CircuitBreaker, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	return circuitbreaker.New(cfg.FailureThreshold, cfg.SuccessThreshold, timeout), nil
}
