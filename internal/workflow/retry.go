package workflow

import (
	"context"
	"net/http"
	"time"

	"roomrenting/internal/api"
	"roomrenting/internal/config"
)

// RetryPolicy controls how the compensating cancel call is retried.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func retryPolicyFromConfig(cfg config.BookingConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    cfg.CompensationRetries,
		InitialDelay:  time.Duration(cfg.CompensationBackoffMs) * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2,
	}
}

// NextDelay returns the wait before the given retry (1-based).
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return p.InitialDelay
	}
	delay := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		delay *= p.BackoffFactor
		if p.MaxDelay > 0 && time.Duration(delay) > p.MaxDelay {
			return p.MaxDelay
		}
	}
	return time.Duration(delay)
}

// do runs fn until it succeeds, the retries are spent or ctx ends.
// A 409 from the API means the booking is already cancelled and counts as done.
func (p RetryPolicy) do(ctx context.Context, fn func() error) (int, error) {
	attempts := 0
	for {
		attempts++
		err := fn()
		if err == nil || api.IsStatus(err, http.StatusConflict) {
			return attempts, nil
		}
		if api.IsStatus(err, http.StatusNotFound) || attempts > p.MaxRetries {
			return attempts, err
		}
		t := time.NewTimer(p.NextDelay(attempts))
		select {
		case <-ctx.Done():
			t.Stop()
			return attempts, err
		case <-t.C:
		}
	}
}
