//go:build dev

package mutation

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Recorder records committed events.
type Recorder interface {
	Record(events []Event) error
}

// fileRecorder appends committed events to one JSONL file per day.
type fileRecorder struct {
	dir  string
	mu   sync.Mutex
	file *os.File
	day  string
}

func newRecorder() Recorder {
	dir := os.Getenv("STORYLINE_REPLAY_DIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "storyline-replay")
	}
	_ = os.MkdirAll(dir, 0o755)
	return &fileRecorder{dir: dir}
}

func (r *fileRecorder) Record(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	today := time.Now().Format("2006-01-02")
	if r.day != today {
		if r.file != nil {
			_ = r.file.Close()
		}
		f, err := os.OpenFile(
			filepath.Join(r.dir, today+".jsonl"),
			os.O_CREATE|os.O_APPEND|os.O_WRONLY,
			0o644,
		)
		if err != nil {
			return err
		}
		r.file = f
		r.day = today
	}

	batch := replayBatch{
		TS:     time.Now().UnixMilli(),
		Events: make([]replayEvent, len(events)),
	}
	for i, evt := range events {
		batch.Events[i] = replayEvent{
			Entity: evt.Entity.String(),
			Op:     evt.Op.String(),
			ID:     evt.ID.String(),
		}
		if !evt.ParentID.IsZero() {
			batch.Events[i].ParentID = evt.ParentID.String()
		}
	}

	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	_, err = r.file.Write(append(data, '\n'))
	return err
}

type replayBatch struct {
	TS     int64         `json:"ts"`
	Events []replayEvent `json:"e"`
}

type replayEvent struct {
	Entity   string `json:"t"`
	Op       string `json:"op"`
	ID       string `json:"id"`
	ParentID string `json:"p,omitempty"`
}
