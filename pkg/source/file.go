package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
)

// File serves reminders from a JSON seed file holding a full data
// snapshot ({"tasks": [...], "reminders": [...], ...}) and reloads it when
// the file changes. Used for development and tests.
type File struct {
	path   string
	logger *log.Logger

	mu       sync.RWMutex
	snapshot []habitflow.Reminder
}

func NewFile(path string, logger *log.Logger) (*File, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[source] ", log.LstdFlags)
	}
	f := &File{path: path, logger: logger}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Reminders returns the last good snapshot.
func (f *File) Reminders(context.Context) []habitflow.Reminder {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshot
}

// Run watches the seed file and reloads it on change until the context is
// canceled. This is a blocking function that should be called in a
// background goroutine. A malformed rewrite keeps the previous snapshot.
func (f *File) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files, which drops a watch on
	// the file itself.
	if err = watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", f.path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(f.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := f.load(); err != nil {
				f.logger.Printf("Error reloading %s: %v", f.path, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Printf("Watcher error: %v", err)
		}
	}
}

func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var snap habitflow.Snapshot
	if err = json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("failed to decode seed file: %w", err)
	}

	f.mu.Lock()
	f.snapshot = snap.Reminders
	f.mu.Unlock()
	return nil
}
