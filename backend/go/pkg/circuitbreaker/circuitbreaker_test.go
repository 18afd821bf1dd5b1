package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func fail() (interface{}, error) { return nil, errBoom }
func ok() (interface{}, error)   { return "ok", nil }

func TestBreakerLifecycle(t *testing.T) {
	now := time.Unix(0, 0)
	b := newBreaker(2, 2, 30*time.Second, func() time.Time { return now })

	_, err := b.Execute(fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, Closed, b.State())
	_, _ = b.Execute(fail)
	assert.Equal(t, Open, b.State())

	called := false
	_, err = b.Execute(func() (interface{}, error) { called = true; return nil, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(30 * time.Second)
	assert.Equal(t, HalfOpen, b.State())
	res, err := b.Execute(ok)
	assert.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, HalfOpen, b.State())
	_, _ = b.Execute(ok)
	assert.Equal(t, Closed, b.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(0, 0)
	b := newBreaker(1, 1, time.Second, func() time.Time { return now })

	_, _ = b.Execute(fail)
	now = now.Add(time.Second)
	_, _ = b.Execute(fail)
	assert.Equal(t, Open, b.State())
}

func TestSuccessResetsFailures(t *testing.T) {
	b := newBreaker(2, 1, time.Minute, time.Now)
	_, _ = b.Execute(fail)
	_, _ = b.Execute(ok)
	_, _ = b.Execute(fail)
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, "Half-Open", HalfOpen.String())
}
