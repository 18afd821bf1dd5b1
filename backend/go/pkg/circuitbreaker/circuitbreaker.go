// Package circuitbreaker stops calling a failing dependency for a while and
// probes it again before fully closing.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State 是熔断器的状态。
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen 表示熔断器处于打开状态，请求未被执行。
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker 包装一次可能失败的调用。
type CircuitBreaker interface {
	Execute(req func() (interface{}, error)) (interface{}, error)
	State() State
}

type breaker struct {
	failureThreshold uint32        // 连续失败多少次后打开
	successThreshold uint32        // 半开状态下连续成功多少次后关闭
	timeout          time.Duration // 打开状态持续多久后进入半开

	mu        sync.Mutex
	state     State
	failures  uint32
	successes uint32
	openedAt  time.Time
	now       func() time.Time
}

// New 创建一个处于关闭状态的熔断器。
func New(failureThreshold, successThreshold uint32, timeout time.Duration) CircuitBreaker {
	return newBreaker(failureThreshold, successThreshold, timeout, time.Now)
}

func newBreaker(failureThreshold, successThreshold uint32, timeout time.Duration, now func() time.Time) *breaker {
	if failureThreshold == 0 {
		failureThreshold = 1
	}
	if successThreshold == 0 {
		successThreshold = 1
	}
	return &breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		now:              now,
	}
}

// State 返回当前状态，打开超时后视为半开。
func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

func (b *breaker) refresh() {
	if b.state == Open && b.now().Sub(b.openedAt) >= b.timeout {
		b.state = HalfOpen
		b.successes = 0
	}
}

func (b *breaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	b.mu.Lock()
	b.refresh()
	if b.state == Open {
		b.mu.Unlock()
		return nil, ErrCircuitOpen
	}
	b.mu.Unlock()

	res, err := req()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure()
		return nil, err
	}
	b.onSuccess()
	return res, nil
}

func (b *breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state, b.failures, b.successes = Closed, 0, 0
		}
	case Closed:
		b.failures = 0
	}
}

func (b *breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	}
}

func (b *breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.failures, b.successes = 0, 0
}
