package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy 指数退避重试参数
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Jitter          float64
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOffContext {
	initial := p.InitialInterval
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	maxInterval := p.MaxInterval
	if maxInterval < initial {
		maxInterval = initial * 8
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = initial
	eb.MaxInterval = maxInterval
	eb.Multiplier = 2
	eb.RandomizationFactor = p.Jitter
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)
}

// Retry 按策略执行 op；retryable 返回 false 的错误立即返回，notify 在每次等待前调用
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, op func() error, notify func(err error, wait time.Duration)) error {
	return backoff.RetryNotify(func() error {
		err := op()
		if err != nil && retryable != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy.backOff(ctx), notify)
}
