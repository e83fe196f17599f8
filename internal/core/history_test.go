package core

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestHistoryRecorderIgnoresNonOutcomeEvents(t *testing.T) {
	h := NewHistoryRecorder(10)
	h.Notify(Change{Kind: EventStructural, Subject: "x"})
	if len(h.Items()) != 0 {
		t.Fatalf("structural events should not be recorded, got %d items", len(h.Items()))
	}
}

func TestHistoryRecorderBoundedRingBuffer(t *testing.T) {
	h := NewHistoryRecorder(3)
	for i := 0; i < 5; i++ {
		h.Notify(Change{Kind: EventOutcome, Subject: "s", After: i})
	}
	items := h.Items()
	if len(items) != 3 {
		t.Fatalf("expected capacity-bounded 3 items, got %d", len(items))
	}
	if items[0].Outcome != 2 || items[2].Outcome != 4 {
		t.Fatalf("expected the 3 most recent outcomes (2,3,4), got %+v", items)
	}
}

func TestHistoryRecorderSink(t *testing.T) {
	var buf bytes.Buffer
	h := NewHistoryRecorder(10).WithSink(&buf)
	now := time.Now()
	h.Notify(Change{
		Kind:    EventOutcome,
		Subject: "root/a",
		After:   0,
		Info: map[string]any{
			"runId":     "run-1",
			"enteredAt": now,
			"exitedAt":  now,
		},
	})
	var decoded HistoryItem
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &decoded); err != nil {
		t.Fatalf("sink should receive a valid JSON line: %v", err)
	}
	if decoded.Path != "root/a" || decoded.RunID != "run-1" {
		t.Fatalf("unexpected decoded item: %+v", decoded)
	}
}
