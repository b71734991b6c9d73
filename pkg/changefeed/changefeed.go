// Package changefeed writes change notifications as JSON lines.
package changefeed

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/the-dev-tools/storyline/pkg/mutation"
)

// Record is one line of the feed.
type Record struct {
	Seq      uint64 `json:"seq"`
	At       int64  `json:"at"`
	Entity   string `json:"entity"`
	Op       string `json:"op"`
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Payload  any    `json:"payload,omitempty"`
}

// Writer serialises notifications to w, one object per line, numbered in
// the order they arrive. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
	seq uint64
	now func() time.Time
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w), now: time.Now}
}

// Write appends evt to the feed.
func (w *Writer) Write(evt mutation.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	rec := Record{
		Seq:     w.seq,
		At:      w.now().UnixMilli(),
		Entity:  evt.Entity.String(),
		Op:      evt.Op.String(),
		ID:      evt.ID.String(),
		Payload: evt.Payload,
	}
	if !evt.ParentID.IsZero() {
		rec.ParentID = evt.ParentID.String()
	}
	return w.enc.Encode(rec)
}

// Handle has the shape eventstream.Forward expects.
func (w *Writer) Handle(_ mutation.EntityType, evt mutation.Event) error {
	return w.Write(evt)
}

// GroupMemberChanged lets the writer be registered directly as a notifier.
func (w *Writer) GroupMemberChanged(_ context.Context, evt mutation.Event) error {
	return w.Write(evt)
}

var _ mutation.Notifier = (*Writer)(nil)
