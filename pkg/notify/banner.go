package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
)

// bannerTTL is how long a banner stays active before auto-dismissing.
const bannerTTL = 10 * time.Second

// Banner is the always-available fallback channel: a transient visual
// notice that auto-dismisses after ten seconds. Showing a reminder that
// already has an active banner restarts its timer.
type Banner struct {
	w   io.Writer
	clk clock.Clock

	mu     sync.Mutex
	active map[int64]*clock.Timer
}

func NewBanner(w io.Writer, clk clock.Clock) *Banner {
	return &Banner{
		w:      w,
		clk:    clk,
		active: make(map[int64]*clock.Timer),
	}
}

func (b *Banner) Show(r habitflow.Reminder) error {
	if _, err := fmt.Fprintf(b.w, "🔔 Reminder: %s (%s)\n", r.Text, To12Hour(r.NormalizedTime())); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.active[r.ID]; ok {
		t.Stop()
	}
	id := r.ID
	b.active[id] = b.clk.AfterFunc(bannerTTL, func() {
		b.dismiss(id)
	})
	return nil
}

// Active returns how many banners are currently displayed.
func (b *Banner) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.active)
}

func (b *Banner) dismiss(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.active, id)
}
