// Package engine implements the reminder notification engine: it
// periodically scans the reminder snapshot, matches reminders against the
// current minute, dispatches notifications for due occurrences and tracks
// delivered state so an occurrence fires at most once per day.
package engine

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
)

// DefaultPollInterval is how often the matching pass runs.
const DefaultPollInterval = 10 * time.Second

// State store keys.
const (
	deliveredKey = "notified_reminders"
	historyKey   = "notification_history"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Source yields the current reminder snapshot. Implementations are
// read-only and eventually consistent; the engine never mutates the
// returned slice.
type Source interface {
	Reminders(ctx context.Context) []habitflow.Reminder
}

// StateStore persists engine state across restarts. A missing key reads as
// (nil, nil).
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Sink delivers a due reminder through the configured channels. Dispatch
// returns an error only when no channel accepted the notification.
type Sink interface {
	Negotiate(ctx context.Context) bool
	Dispatch(ctx context.Context, r habitflow.Reminder) error
}

// deliveredSnapshot is the persisted form of the delivered map. The date
// stamp scopes the snapshot to a single calendar day: a snapshot from a
// previous day is discarded on restore.
type deliveredSnapshot struct {
	Date      string      `json:"date"`
	Reminders [][2]string `json:"reminders"`
}

type Engine struct {
	source Source
	store  StateStore
	sink   Sink

	clk      clock.Clock
	interval time.Duration
	logger   *log.Logger

	mu        sync.Mutex
	delivered map[string]string
	history   []HistoryEntry
	granted   bool
}

type Option func(*Engine)

// WithClock replaces the wall clock, letting tests drive polling and the
// midnight rollover deterministically.
func WithClock(clk clock.Clock) Option {
	return func(e *Engine) { e.clk = clk }
}

func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func New(source Source, store StateStore, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		source:    source,
		store:     store,
		sink:      sink,
		clk:       clock.New(),
		interval:  DefaultPollInterval,
		logger:    log.New(os.Stderr, "[engine] ", log.LstdFlags),
		delivered: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run restores persisted state, negotiates notification permission and
// drives the polling loop until the context is canceled. This is a blocking
// function that should be called in a background goroutine.
func (e *Engine) Run(ctx context.Context) {
	e.restore(ctx)

	granted := e.sink.Negotiate(ctx)
	e.mu.Lock()
	e.granted = granted
	e.mu.Unlock()

	ticker := e.clk.Ticker(e.interval)
	defer ticker.Stop()

	midnight := e.clk.Timer(untilMidnight(e.clk.Now()))
	defer midnight.Stop()

	e.PollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			e.PollOnce(ctx)

		case <-midnight.C:
			e.resetDelivered(ctx)
			midnight.Reset(untilMidnight(e.clk.Now()))
		}
	}
}

// PollOnce runs one matching pass. It is safe to call out of band, e.g.
// when the process learns it missed ticks while suspended.
//
// Within the matching minute repeated calls are idempotent: the delivered
// map keyed by (id, date, time) guarantees at most one dispatch per
// occurrence.
func (e *Engine) PollOnce(ctx context.Context) {
	reminders := e.source.Reminders(ctx)
	if len(reminders) == 0 {
		return
	}

	now := e.clk.Now()
	today := now.Format(dateLayout)
	minute := now.Format(timeLayout)

	for _, r := range reminders {
		if !r.Eligible() {
			continue
		}

		// No cross-day matching: a reminder missed yesterday stays missed.
		if r.Date != today {
			continue
		}

		t := r.NormalizedTime()
		key := r.Key()

		e.mu.Lock()
		done := e.delivered[key] == t
		e.mu.Unlock()
		if done {
			continue
		}

		// Exact-minute equality, no tolerance window.
		if minute != t {
			continue
		}

		if err := e.sink.Dispatch(ctx, r); err != nil {
			e.logger.Printf("Dispatch failed for reminder %d: %v", r.ID, err)
			continue
		}

		e.markDelivered(ctx, key, t)
		e.recordHistory(ctx, r, now)
	}
}

// ClearDelivered removes the delivered flag for one occurrence, making it
// eligible again. Callers invoke this when a reminder's date or time is
// edited, before the old occurrence's day is over. No-op if the key was
// never delivered.
func (e *Engine) ClearDelivered(ctx context.Context, id int64, date, timeOfDay string) {
	key := habitflow.Reminder{ID: id, Date: date, Time: timeOfDay}.Key()

	e.mu.Lock()
	_, ok := e.delivered[key]
	if ok {
		delete(e.delivered, key)
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if !ok {
		return
	}
	e.persistDelivered(ctx, snap)
}

// PermissionGranted reports the outcome of the startup permission
// negotiation.
func (e *Engine) PermissionGranted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.granted
}

// DeliveredCount returns how many occurrences have been delivered today.
func (e *Engine) DeliveredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.delivered)
}

func (e *Engine) markDelivered(ctx context.Context, key, timeOfDay string) {
	e.mu.Lock()
	e.delivered[key] = timeOfDay
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.persistDelivered(ctx, snap)
}

func (e *Engine) resetDelivered(ctx context.Context) {
	e.mu.Lock()
	e.delivered = make(map[string]string)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Printf("Resetting delivered reminders at midnight")
	e.persistDelivered(ctx, snap)
}

// snapshotLocked builds the persistable delivered snapshot. Callers must
// hold e.mu.
func (e *Engine) snapshotLocked() deliveredSnapshot {
	snap := deliveredSnapshot{
		Date:      e.clk.Now().Format(dateLayout),
		Reminders: make([][2]string, 0, len(e.delivered)),
	}
	for k, v := range e.delivered {
		snap.Reminders = append(snap.Reminders, [2]string{k, v})
	}
	return snap
}

// persistDelivered writes the snapshot to the state store. Failures are
// logged and swallowed: the in-memory state stays authoritative for the
// session.
func (e *Engine) persistDelivered(ctx context.Context, snap deliveredSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		e.logger.Printf("Error encoding delivered state: %v", err)
		return
	}
	if err := e.store.Set(ctx, deliveredKey, raw); err != nil {
		e.logger.Printf("Error persisting delivered state: %v", err)
	}
}

// restore loads persisted state. The delivered snapshot is honored only
// when its date stamp is today; a new calendar day always starts clean.
// History is restored unconditionally. Read failures fail open to empty
// state.
func (e *Engine) restore(ctx context.Context) {
	today := e.clk.Now().Format(dateLayout)

	if raw, err := e.store.Get(ctx, deliveredKey); err != nil {
		e.logger.Printf("Error restoring delivered state: %v", err)
	} else if len(raw) > 0 {
		var snap deliveredSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			e.logger.Printf("Error decoding delivered state: %v", err)
		} else if snap.Date == today {
			m := make(map[string]string, len(snap.Reminders))
			for _, pair := range snap.Reminders {
				m[pair[0]] = pair[1]
			}
			e.mu.Lock()
			e.delivered = m
			e.mu.Unlock()
		}
	}

	if raw, err := e.store.Get(ctx, historyKey); err != nil {
		e.logger.Printf("Error restoring history: %v", err)
	} else if len(raw) > 0 {
		var hist []HistoryEntry
		if err := json.Unmarshal(raw, &hist); err != nil {
			e.logger.Printf("Error decoding history: %v", err)
		} else {
			if len(hist) > historyLimit {
				hist = hist[:historyLimit]
			}
			e.mu.Lock()
			e.history = hist
			e.mu.Unlock()
		}
	}
}

// untilMidnight returns the duration from now until the next local
// midnight.
func untilMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}
