package mutation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Notifier is told about every record whose sibling group changed, after the
// change is committed.
type Notifier interface {
	GroupMemberChanged(ctx context.Context, evt Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, evt Event) error

func (f NotifierFunc) GroupMemberChanged(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

type hook struct {
	id       uint64
	notifier Notifier
}

// Hooks is a Publisher fanning events out to registered notifiers. Delivery
// is synchronous and best effort: a failing or panicking notifier is logged
// and the remaining ones still run.
type Hooks struct {
	mu     sync.RWMutex
	nextID uint64
	hooks  []hook
	logger *slog.Logger
}

func NewHooks(logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{logger: logger}
}

// Register adds n and returns a func removing it again.
func (h *Hooks) Register(n Notifier) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.hooks = append(h.hooks, hook{id: id, notifier: n})

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, registered := range h.hooks {
				if registered.id == id {
					h.hooks = append(h.hooks[:i:i], h.hooks[i+1:]...)
					return
				}
			}
		})
	}
}

func (h *Hooks) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.hooks)
}

func (h *Hooks) PublishAll(ctx context.Context, events []Event) {
	h.mu.RLock()
	hooks := make([]hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.RUnlock()

	for _, evt := range events {
		for _, registered := range hooks {
			if err := h.notify(ctx, registered.notifier, evt); err != nil {
				h.logger.WarnContext(ctx, "change notification failed",
					"entity", evt.Entity.String(),
					"op", evt.Op.String(),
					"id", evt.ID.String(),
					"error", err,
				)
			}
		}
	}
}

func (h *Hooks) notify(ctx context.Context, n Notifier, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return n.GroupMemberChanged(ctx, evt)
}
