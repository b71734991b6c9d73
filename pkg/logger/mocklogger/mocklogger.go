package mocklogger

import (
	"context"
	"log/slog"
	"sync"
)

// Record is one captured log line.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

type store struct {
	mu      sync.Mutex
	records []Record
}

// MockHandler is a slog.Handler capturing every record for assertions.
// Handlers derived with WithAttrs share the captured records.
type MockHandler struct {
	store *store
	attrs []slog.Attr
}

func NewMockHandler() *MockHandler {
	return &MockHandler{store: &store{}}
}

// Enabled implements slog.Handler.
func (h *MockHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *MockHandler) Handle(_ context.Context, r slog.Record) error {
	rec := Record{Level: r.Level, Message: r.Message, Attrs: make(map[string]any, len(h.attrs)+r.NumAttrs())}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.Any()
		return true
	})

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.records = append(h.store.records, rec)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *MockHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &MockHandler{store: h.store, attrs: merged}
}

// WithGroup implements slog.Handler. Groups are flattened.
func (h *MockHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *MockHandler) Records() []Record {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	out := make([]Record, len(h.store.records))
	copy(out, h.store.records)
	return out
}

func (h *MockHandler) Messages() []string {
	var out []string
	for _, r := range h.Records() {
		out = append(out, r.Message)
	}
	return out
}

// Find returns the first record logged at level with message msg.
func (h *MockHandler) Find(level slog.Level, msg string) (Record, bool) {
	for _, r := range h.Records() {
		if r.Level == level && r.Message == msg {
			return r, true
		}
	}
	return Record{}, false
}

// NewMockLogger creates a new logger with the mock handler
func NewMockLogger() *slog.Logger {
	return slog.New(NewMockHandler())
}

// NewRecordingLogger is NewMockLogger that also returns the handler.
func NewRecordingLogger() (*slog.Logger, *MockHandler) {
	h := NewMockHandler()
	return slog.New(h), h
}
