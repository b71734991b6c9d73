package mutation

import (
	"context"
	"database/sql"
	"time"

	"github.com/the-dev-tools/storyline/pkg/errmap"
)

// Do runs fn inside one transaction. The transaction is committed when fn
// returns nil and rolled back otherwise; events tracked by fn are published
// only after the commit.
func Do(ctx context.Context, db *sql.DB, fn func(*Context) error, opts ...Option) error {
	mc := New(db, opts...)
	if err := mc.Begin(ctx); err != nil {
		return err
	}
	defer mc.Rollback()

	if err := fn(mc); err != nil {
		return err
	}
	return mc.Commit(ctx)
}

// Retry runs fn up to attempts times while it fails with a retryable error,
// waiting backoff times the attempt number in between.
func Retry(ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !errmap.IsRetryable(err) || attempt == attempts {
			return err
		}

		timer := time.NewTimer(backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errmap.Map(ctx.Err())
		case <-timer.C:
		}
	}
	return err
}
