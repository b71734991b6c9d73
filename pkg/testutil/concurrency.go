package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// ConcurrencyTestConfig holds parameters for concurrency tests.
type ConcurrencyTestConfig struct {
	// NumGoroutines defaults to 20.
	NumGoroutines int
	// Timeout bounds each operation; exceeding it counts as a timeout, which
	// usually means a deadlock. Defaults to 5 seconds.
	Timeout time.Duration
}

// ConcurrencyTestResult captures the outcome of concurrency tests.
type ConcurrencyTestResult struct {
	SuccessCount int
	ErrorCount   int
	TimeoutCount int
	Errors       []error
	MaxDuration  time.Duration
}

// RunConcurrent runs op NumGoroutines times in parallel and tallies the
// outcomes. op receives its goroutine index.
func RunConcurrent(
	ctx context.Context,
	t *testing.T,
	config ConcurrencyTestConfig,
	op func(ctx context.Context, i int) error,
) ConcurrencyTestResult {
	t.Helper()

	if config.NumGoroutines == 0 {
		config.NumGoroutines = 20
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	var (
		mu     sync.Mutex
		result ConcurrencyTestResult
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < config.NumGoroutines; i++ {
		g.Go(func() error {
			opCtx, cancel := context.WithTimeout(gctx, config.Timeout)
			defer cancel()

			start := time.Now()
			err := op(opCtx, i)
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if elapsed > result.MaxDuration {
				result.MaxDuration = elapsed
			}
			switch {
			case err == nil:
				result.SuccessCount++
			case opCtx.Err() != nil:
				result.TimeoutCount++
				t.Logf("operation %d timed out after %v (potential deadlock)", i, elapsed)
			default:
				result.ErrorCount++
				result.Errors = append(result.Errors, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return result
}
