package service

import (
	"context"
	"errors"
	"time"

	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/logger"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 100 * time.Millisecond
	defaultRetryTimeout   = 5 * time.Second
	maxRetryDelay         = 2 * time.Second
)

// Retrier 为存储调用提供超时与瞬时故障重试
type Retrier struct {
	attempts  int
	baseDelay time.Duration
	timeout   time.Duration
}

// NewRetrier 创建重试器
func NewRetrier(cfg config.RetryConfig) *Retrier {
	r := &Retrier{
		attempts:  cfg.MaxAttempts,
		baseDelay: time.Duration(cfg.BaseDelayMS) * time.Millisecond,
		timeout:   time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}
	if r.attempts <= 0 {
		r.attempts = defaultRetryAttempts
	}
	if r.baseDelay <= 0 {
		r.baseDelay = defaultRetryBaseDelay
	}
	if r.timeout <= 0 {
		r.timeout = defaultRetryTimeout
	}
	return r
}

func (r *Retrier) policy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.baseDelay
	policy.Multiplier = 2
	policy.MaxInterval = maxRetryDelay
	return policy
}

// Do 在超时内执行 fn，仅对瞬时故障按指数退避重试
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if r == nil {
		return fn(ctx)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := fn(ctx)
		if err != nil && !isRetryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(r.policy()),
		backoff.WithMaxTries(uint(r.attempts)),
		backoff.WithMaxElapsedTime(r.timeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.FromContext(ctx).Warnw("store_call_retry",
				"op", op,
				"attempt", attempt,
				"delay_ms", next.Milliseconds(),
				"error", err,
			)
		}),
	)
	return err
}

func isRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidCode),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrDuplicatePendingRequest),
		errors.Is(err, ErrUpgradePending),
		errors.Is(err, ErrWithdrawalStatusInvalid),
		errors.Is(err, ErrWithdrawalNotFound),
		errors.Is(err, ErrConsistency),
		errors.Is(err, ErrStorage):
		return false
	}
	return isTransientError(err)
}
