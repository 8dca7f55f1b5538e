// Package source provides the reminder data sources consumed by the
// notification engine: the local item store, an HTTP poller against the
// backend's /getReminders endpoint, and a watched JSON seed file.
package source

import (
	"context"
	"log"
	"os"

	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
)

// ReminderLister is the slice of the item store the Store source needs.
type ReminderLister interface {
	ListReminders(ctx context.Context) ([]habitflow.Reminder, error)
}

// Store reads reminders straight from the persistent item store. Read
// failures are logged and yield an empty snapshot, which the engine treats
// as a no-op pass.
type Store struct {
	items  ReminderLister
	logger *log.Logger
}

func NewStore(items ReminderLister, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr, "[source] ", log.LstdFlags)
	}
	return &Store{items: items, logger: logger}
}

func (s *Store) Reminders(ctx context.Context) []habitflow.Reminder {
	reminders, err := s.items.ListReminders(ctx)
	if err != nil {
		s.logger.Printf("Error listing reminders: %v", err)
		return nil
	}
	return reminders
}
