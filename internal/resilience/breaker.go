package resilience

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/metrics"

	"github.com/sony/gobreaker"
)

// ErrOpenCircuit 熔断器打开时拒绝请求
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State 熔断器状态
type State = gobreaker.State

const (
	Closed   = gobreaker.StateClosed
	HalfOpen = gobreaker.StateHalfOpen
	Open     = gobreaker.StateOpen
)

// BreakerOption 熔断器可选项
type BreakerOption func(*gobreaker.Settings)

// WithFailurePredicate 只有 isFailure 返回 true 的错误才计入失败
func WithFailurePredicate(isFailure func(error) bool) BreakerOption {
	return func(s *gobreaker.Settings) {
		if isFailure == nil {
			return
		}
		s.IsSuccessful = func(err error) bool {
			return err == nil || !isFailure(err)
		}
	}
}

// Breaker 基于失败率的熔断器
// 闭合状态下至少 minRequests 次调用且失败率达到 failureRatio 即打开，openFor 之后放行一次探测
type Breaker struct {
	target string
	cb     *gobreaker.CircuitBreaker
}

// NewBreaker 创建熔断器
func NewBreaker(target string, minRequests int, failureRatio float64, openFor time.Duration, opts ...BreakerOption) *Breaker {
	if minRequests <= 0 {
		minRequests = 1
	}
	if failureRatio <= 0 {
		failureRatio = 0.5
	}
	if failureRatio > 1 {
		failureRatio = 1
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	target = strings.TrimSpace(target)

	settings := gobreaker.Settings{
		Name:        target,
		MaxRequests: 1,
		Interval:    2 * openFor,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(minRequests) {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= failureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, float64(to))
			logger.Infow("breaker_transition",
				"target", name,
				"from_state", from.String(),
				"to_state", to.String(),
			)
		},
	}
	for _, opt := range opts {
		opt(&settings)
	}

	metrics.SetBreakerState(target, float64(Closed))
	return &Breaker{target: target, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State 当前状态
func (b *Breaker) State() State {
	return b.cb.State()
}

// Execute 在熔断保护下执行 fn，熔断时返回 ErrOpenCircuit
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s %v", ErrOpenCircuit, b.target, err)
	}
	return err
}
