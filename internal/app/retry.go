package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/five82/pawswipe/internal/logging"
	"github.com/five82/pawswipe/internal/queue"
)

const (
	defaultRetryInterval = 2 * time.Second
	maxBackoff           = 30 * time.Second
)

// Retrier is the part of queue.Manager the retry loop needs.
type Retrier interface {
	Snapshot() queue.Snapshot
	Retry(ctx context.Context) error
}

// StartRetrier launches a background goroutine that repeats failed queue
// fetches, backing off exponentially while they keep failing. It returns a
// channel that is closed once the goroutine has exited after ctx is done.
func StartRetrier(ctx context.Context, q Retrier, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	logger = logging.OrNop(logger).Named("retry")
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			wait := interval
			if snap := q.Snapshot(); snap.LastError != nil {
				wait = calculateBackoff(snap.ConsecutiveFailures-1, interval)
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			snap := q.Snapshot()
			if snap.LastError == nil {
				continue
			}
			if err := q.Retry(ctx); err != nil && !errors.Is(err, queue.ErrSuperseded) {
				logger.Debug("queue retry failed",
					zap.Int("failures", snap.ConsecutiveFailures+1),
					zap.Error(err))
			}
		}
	}()
	return done
}

// calculateBackoff doubles base for each failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	if failures > 16 {
		return maxBackoff
	}
	backoff := base << failures
	if backoff > maxBackoff {
		return maxBackoff
	}
	return backoff
}
