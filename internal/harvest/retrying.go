package harvest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// attemptState drives the retry loop as an explicit state machine,
// independent of whatever concurrency primitive runs the workers.
type attemptState int

const (
	stateIdle attemptState = iota
	stateWaiting
	stateAttempting
	stateSucceeded
	stateFailedTerminal
)

// RetryingFetcher decorates a Fetcher with rate limiting and retry/backoff.
// Every attempt, success or failure, is logged with URL, status, and elapsed
// time.
type RetryingFetcher struct {
	inner   Fetcher
	policy  *ExponentialRetryPolicy
	limiter Limiter
	logger  *zap.Logger
}

// NewRetryingFetcher builds the decorated fetcher. limiter may be nil when
// no inter-request delay is wanted.
func NewRetryingFetcher(inner Fetcher, policy *ExponentialRetryPolicy, limiter Limiter, logger *zap.Logger) *RetryingFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingFetcher{
		inner:   inner,
		policy:  policy,
		limiter: limiter,
		logger:  logger,
	}
}

// Fetch runs the attempt state machine: idle -> attempting, transient
// failure -> waiting -> attempting, until success or a terminal failure.
func (f *RetryingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var (
		state   = stateIdle
		attempt int
		body    []byte
		lastErr error
	)
	for {
		switch state {
		case stateIdle:
			state = stateAttempting

		case stateWaiting:
			delay := f.policy.Backoff(attempt)
			f.logger.Debug("backing off before retry",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			state = stateAttempting

		case stateAttempting:
			if f.limiter != nil {
				if err := f.limiter.Wait(ctx, url); err != nil {
					return nil, err
				}
			}
			start := time.Now()
			b, err := f.inner.Fetch(ctx, url)
			elapsed := time.Since(start)
			if err == nil {
				f.logger.Info("fetch succeeded",
					zap.String("url", url),
					zap.Int("attempt", attempt),
					zap.Duration("elapsed", elapsed),
				)
				body = b
				state = stateSucceeded
				break
			}
			lastErr = err
			f.logger.Warn("fetch attempt failed",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Int("status", fetchStatus(err)),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			attempt++
			if f.policy.ShouldRetry(err, attempt) {
				state = stateWaiting
			} else {
				state = stateFailedTerminal
			}

		case stateSucceeded:
			return body, nil

		case stateFailedTerminal:
			return nil, lastErr
		}
	}
}

func fetchStatus(err error) int {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Status
	}
	return 0
}

func sleepCtx(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
