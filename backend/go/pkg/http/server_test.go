package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/pkg/circuitbreaker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() config.MiddlewareConfig {
	return config.MiddlewareConfig{
		RateLimiter: config.RateLimiterConfig{
			Enabled:     true,
			Algorithm:   "tokenBucket",
			TokenBucket: config.TokenBucketConfig{Rate: 0.001, Capacity: 2},
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			SuccessThreshold: 2,
			Timeout:          "10s",
		},
	}
}

func TestNewServer_WithAddress(t *testing.T) {
	srv := NewServer(http.NotFoundHandler(), WithAddress(":8000"))
	assert.Equal(t, ":8000", srv.Addr())
	assert.Equal(t, ":8080", NewServer(http.NotFoundHandler()).Addr())
}

func TestMiddlewaresFromConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mws, err := Middlewares(newTestConfig())
	require.NoError(t, err)
	require.Len(t, mws, 2)

	r := gin.New()
	r.Use(mws...)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	ts := httptest.NewServer(r)
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	cfg := newTestConfig()
	cfg.CircuitBreaker.Timeout = "later"
	_, err = Middlewares(cfg)
	assert.Error(t, err)

	mws, err = Middlewares(config.MiddlewareConfig{})
	require.NoError(t, err)
	assert.Empty(t, mws)
}

func TestClientCircuitBreaker(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c, err := NewClient(newTestConfig().CircuitBreaker, 5*time.Second)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
		resp, err := c.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	_, err = c.Do(req)
	assert.True(t, errors.Is(err, circuitbreaker.ErrCircuitOpen))
	assert.Equal(t, 2, calls)
}

func TestClientWithoutBreaker(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	c, err := NewClient(config.CircuitBreakerConfig{}, time.Second)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
