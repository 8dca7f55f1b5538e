// Package habitflow holds the shared data model for the HabitFlow lists:
// tasks, goals, reminders and habits.
package habitflow

import (
	"fmt"
	"strings"
)

// Repeat cadence values stored on a reminder. The cadence is informational
// only; the stored occurrence is the one that gets evaluated.
const (
	RepeatNone     = "NONE"
	RepeatDaily    = "DAILY"
	RepeatWeekly   = "WEEKLY"
	RepeatBiWeekly = "BI-WEEKLY"
	RepeatMonthly  = "MONTHLY"
)

// Task status values.
const (
	StatusNotStarted = "NOT STARTED"
	StatusInProgress = "IN PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusOnHold     = "ON HOLD"
	StatusCancelled  = "CANCELLED"
)

// Goal priority values.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// Reminder is a user-scheduled text note with a specific date and time.
type Reminder struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Date   string `json:"date,omitempty"` // YYYY-MM-DD
	Time   string `json:"time,omitempty"` // HH:MM, seconds tolerated
	Repeat string `json:"repeat,omitempty"`
}

// Eligible reports whether the reminder carries enough schedule information
// to ever be matched. A reminder without a date or time is never due.
func (r Reminder) Eligible() bool {
	return r.Date != "" && r.Time != ""
}

// NormalizedTime returns the scheduled time truncated to minute precision.
func (r Reminder) NormalizedTime() string {
	return NormalizeTime(r.Time)
}

// Key identifies one schedulable occurrence of this reminder. Editing the
// date or time produces a new key, which resets delivery eligibility.
func (r Reminder) Key() string {
	return fmt.Sprintf("%d-%s-%s", r.ID, r.Date, NormalizeTime(r.Time))
}

// NormalizeTime reduces a time-of-day string to zero-padded HH:MM:
// single-digit hours gain a leading zero and seconds are truncated.
// The clock minute it is compared against is always zero-padded, so a
// "9:05" stored verbatim would never match.
func NormalizeTime(t string) string {
	if strings.IndexByte(t, ':') == 1 {
		t = "0" + t
	}
	if len(t) > 5 && t[5] == ':' {
		t = t[:5]
	}
	return t
}

type Task struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Status string `json:"status"`
	Tag    string `json:"tag,omitempty"`
	Date   string `json:"date,omitempty"`
}

type Goal struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Priority string `json:"priority"`
	Date     string `json:"date,omitempty"`
}

type Habit struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Streak int    `json:"streak"`
	Date   string `json:"date,omitempty"`
}

// Snapshot is the full data state served by the backend and consumed by
// the reminder data sources.
type Snapshot struct {
	Tasks     []Task     `json:"tasks"`
	Goals     []Goal     `json:"goals"`
	Reminders []Reminder `json:"reminders"`
	Habits    []Habit    `json:"habits"`
}
