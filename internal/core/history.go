package core

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// HistoryItem records one state activation: when it was entered and exited,
// and which outcome it finished with. Cheap to maintain off the observer
// bus, and the natural shape for post-hoc inspection of a finished run or
// for driving StepBackward.
type HistoryItem struct {
	RunID    string    `json:"runId"`
	Path     string    `json:"path"`
	Outcome  int       `json:"outcome"`
	EnteredAt time.Time `json:"enteredAt"`
	ExitedAt  time.Time `json:"exitedAt"`
}

// HistoryRecorder subscribes to a Bus and keeps a bounded ring buffer of the
// most recent activations, optionally mirroring each one as a JSON line to
// a sink set with WithSink.
type HistoryRecorder struct {
	mu       sync.Mutex
	capacity int
	items    []HistoryItem
	sink     io.Writer
}

// NewHistoryRecorder returns a recorder holding up to capacity items. If
// capacity <= 0, a default of 1000 is used.
func NewHistoryRecorder(capacity int) *HistoryRecorder {
	if capacity <= 0 {
		capacity = 1000
	}
	return &HistoryRecorder{capacity: capacity}
}

// WithSink mirrors every recorded item to w as a JSON line, best-effort
// (write errors are ignored: history is a diagnostic aid, not a durability
// guarantee).
func (h *HistoryRecorder) WithSink(w io.Writer) *HistoryRecorder {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sink = w
	return h
}

// Notify implements Observer. It records every EventOutcome change, taking
// the path from Subject, the outcome from After, and the run id and
// enter/exit timestamps from Info (left zero when Info lacks them).
func (h *HistoryRecorder) Notify(c Change) {
	if c.Kind != EventOutcome {
		return
	}
	h.record(c)
}

func (h *HistoryRecorder) record(c Change) {
	outcome, _ := c.After.(int)
	runID, _ := c.Info["runId"].(string)
	enteredAt, _ := c.Info["enteredAt"].(time.Time)
	exitedAt, _ := c.Info["exitedAt"].(time.Time)
	item := HistoryItem{
		RunID:     runID,
		Path:      c.Subject,
		Outcome:   outcome,
		EnteredAt: enteredAt,
		ExitedAt:  exitedAt,
	}

	h.mu.Lock()
	h.items = append(h.items, item)
	if len(h.items) > h.capacity {
		h.items = h.items[len(h.items)-h.capacity:]
	}
	sink := h.sink
	h.mu.Unlock()

	if sink != nil {
		if b, err := json.Marshal(item); err == nil {
			b = append(b, '\n')
			_, _ = sink.Write(b)
		}
	}
}

// Items returns a snapshot of the recorded history, oldest first.
func (h *HistoryRecorder) Items() []HistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HistoryItem(nil), h.items...)
}
