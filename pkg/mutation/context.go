package mutation

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/the-dev-tools/storyline/db/pkg/sqlc/gen"
	"github.com/the-dev-tools/storyline/pkg/errmap"
)

var ErrNoTransaction = errors.New("mutation: Begin was not called")

// Context manages a mutation transaction and the events it produces.
// Events are only handed to the publisher after a successful commit.
type Context struct {
	db        *sql.DB
	tx        *sql.Tx
	q         *gen.Queries
	events    []Event
	recorder  Recorder
	publisher Publisher
	logger    *slog.Logger
}

// Option configures a Context.
type Option func(*Context)

// WithPublisher sets the publisher for auto-publishing events after commit.
func WithPublisher(p Publisher) Option {
	return func(c *Context) {
		c.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a new mutation context.
func New(db *sql.DB, opts ...Option) *Context {
	c := &Context{
		db:       db,
		events:   make([]Event, 0, 8),
		recorder: newRecorder(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin starts a new transaction. The connection string decides the lock
// mode; storyline databases begin IMMEDIATE so the write lock is held from
// the start.
func (c *Context) Begin(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errmap.Map(err)
	}
	c.tx = tx
	c.q = gen.New(tx)
	return nil
}

// Rollback aborts the transaction and drops collected events. It is safe to
// call after Commit.
func (c *Context) Rollback() {
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			c.logger.Warn("mutation rollback failed", "error", err)
		}
		c.tx = nil
	}
	c.events = c.events[:0]
}

// Commit commits the transaction, then publishes the collected events.
// Nothing is published when the commit fails.
func (c *Context) Commit(ctx context.Context) error {
	if c.tx == nil {
		return ErrNoTransaction
	}
	if err := c.tx.Commit(); err != nil {
		c.tx = nil
		c.events = c.events[:0]
		return errmap.Map(err)
	}
	c.tx = nil

	if c.recorder != nil {
		if err := c.recorder.Record(c.events); err != nil {
			c.logger.Warn("mutation replay record failed", "error", err)
		}
	}
	if c.publisher != nil && len(c.events) > 0 {
		c.publisher.PublishAll(ctx, c.events)
	}
	return nil
}

// Queries returns the sqlc queries bound to the transaction.
func (c *Context) Queries() *gen.Queries {
	return c.q
}

// TX returns the underlying transaction.
func (c *Context) TX() *sql.Tx {
	return c.tx
}

// Events returns all collected events.
func (c *Context) Events() []Event {
	return c.events
}

// Track adds an event to the collection.
func (c *Context) Track(evt Event) {
	c.events = append(c.events, evt)
}

// Reset clears collected events and forgets the transaction.
func (c *Context) Reset() {
	c.events = c.events[:0]
	c.tx = nil
	c.q = nil
}
