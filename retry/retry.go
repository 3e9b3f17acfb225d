package retry

import (
	"context"
	"iter"
	"time"

	"github.com/Holovkat/Auto-Claude/event"
)

// Notify is called before sleeping between attempts. attempt is 1-indexed
// and names the attempt that just failed.
type Notify func(attempt int, delay time.Duration, err error)

// Observe returns a Notify that reports Retrying events for provider.
func Observe(obs event.Observer, provider string) Notify {
	return func(attempt int, delay time.Duration, err error) {
		obs.Emit(event.Event{
			Type:     event.Retrying,
			Provider: provider,
			Attempt:  attempt,
			Delay:    delay,
			Error:    err,
		})
	}
}

// Do executes fn with retry logic, respecting context cancellation during
// backoff waits. It returns the last error when every attempt fails.
func Do[T any](ctx context.Context, cfg Config, notify Notify, fn func() (T, error)) (T, error) {
	var zero T
	attempts := cfg.attempts()

	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsTransient(err) || attempt >= attempts-1 {
			return zero, err
		}
		if werr := wait(ctx, cfg, notify, attempt, err); werr != nil {
			return zero, werr
		}
	}
}

// Stream wraps open so that a transient error arriving before the first
// item causes the stream to be reopened. Errors after the first item, and
// errors once attempts are exhausted, are passed through to the consumer.
func Stream[T any](ctx context.Context, cfg Config, notify Notify, open func() iter.Seq2[T, error]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		attempts := cfg.attempts()

		for attempt := 0; ; attempt++ {
			var retryErr error
			started := false

			for item, err := range open() {
				if err != nil && !started && attempt < attempts-1 && IsTransient(err) {
					retryErr = err
					break
				}
				started = true
				if !yield(item, err) || err != nil {
					return
				}
			}

			if retryErr == nil {
				return
			}
			if werr := wait(ctx, cfg, notify, attempt, retryErr); werr != nil {
				yield(zero, werr)
				return
			}
		}
	}
}

func wait(ctx context.Context, cfg Config, notify Notify, attempt int, err error) error {
	delay := effectiveDelay(cfg.Delay(attempt), err)
	if notify != nil {
		notify(attempt+1, delay, err)
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
