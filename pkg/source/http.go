package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
)

// DefaultRefreshInterval is how often the HTTP source refetches the
// reminder list. It is independent of the engine's polling cadence.
const DefaultRefreshInterval = 30 * time.Second

// HTTP polls GET <baseURL>/getReminders and caches the last good snapshot.
// A failed or malformed fetch keeps the previous snapshot, so the engine
// keeps evaluating stale-but-valid data rather than nothing.
type HTTP struct {
	url      string
	hc       *http.Client
	clk      clock.Clock
	interval time.Duration
	logger   *log.Logger

	mu       sync.RWMutex
	snapshot []habitflow.Reminder
}

type HTTPOption func(*HTTP)

func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(s *HTTP) { s.hc = hc }
}

func WithClock(clk clock.Clock) HTTPOption {
	return func(s *HTTP) { s.clk = clk }
}

func WithRefreshInterval(d time.Duration) HTTPOption {
	return func(s *HTTP) { s.interval = d }
}

func WithLogger(l *log.Logger) HTTPOption {
	return func(s *HTTP) { s.logger = l }
}

func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	s := &HTTP{
		url:      baseURL + "/getReminders",
		hc:       &http.Client{Timeout: 10 * time.Second},
		clk:      clock.New(),
		interval: DefaultRefreshInterval,
		logger:   log.New(os.Stderr, "[source] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run refreshes the snapshot until the context is canceled. This is a
// blocking function that should be called in a background goroutine.
func (s *HTTP) Run(ctx context.Context) {
	s.refresh(ctx)

	t := s.clk.Ticker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.refresh(ctx)
		}
	}
}

// Reminders returns the last good snapshot.
func (s *HTTP) Reminders(context.Context) []habitflow.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *HTTP) refresh(ctx context.Context) {
	reminders, err := s.fetch(ctx)
	if err != nil {
		s.logger.Printf("Error checking reminders: %v", err)
		return
	}

	s.mu.Lock()
	s.snapshot = reminders
	s.mu.Unlock()
}

func (s *HTTP) fetch(ctx context.Context) ([]habitflow.Reminder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getReminders returned status %d", res.StatusCode)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	var reminders []habitflow.Reminder
	if err = json.Unmarshal(raw, &reminders); err != nil {
		return nil, fmt.Errorf("failed to decode reminders: %w", err)
	}
	return reminders, nil
}
