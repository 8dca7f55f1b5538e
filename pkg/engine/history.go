package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
)

// historyLimit bounds the delivery log to the most recent entries,
// newest first.
const historyLimit = 50

// HistoryEntry is one delivered notification, snapshotted at dispatch time.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Text        string    `json:"reminderText"`
	Time        string    `json:"reminderTime"`
	Date        string    `json:"reminderDate"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

// History returns a copy of the delivery log, newest first.
func (e *Engine) History() []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// recordHistory prepends an entry for the dispatched reminder, truncates to
// historyLimit and persists. Persistence failures are logged, never fatal.
func (e *Engine) recordHistory(ctx context.Context, r habitflow.Reminder, now time.Time) {
	entry := HistoryEntry{
		ID:          now.UnixMilli(),
		Text:        r.Text,
		Time:        r.NormalizedTime(),
		Date:        r.Date,
		DeliveredAt: now,
	}

	e.mu.Lock()
	e.history = append([]HistoryEntry{entry}, e.history...)
	if len(e.history) > historyLimit {
		e.history = e.history[:historyLimit]
	}
	hist := make([]HistoryEntry, len(e.history))
	copy(hist, e.history)
	e.mu.Unlock()

	raw, err := json.Marshal(hist)
	if err != nil {
		e.logger.Printf("Error encoding history: %v", err)
		return
	}
	if err := e.store.Set(ctx, historyKey, raw); err != nil {
		e.logger.Printf("Error persisting history: %v", err)
	}
}
