// Package notify implements notification delivery for due reminders:
// permission negotiation, the prioritized delivery channels and the
// redundant dispatch across them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
)

// RelaySender is the server-relayed push channel. Available reports
// whether a push token has been registered with the backend.
type RelaySender interface {
	Available() bool
	Send(ctx context.Context, title, body string, reminderID int64) error
}

// Dispatcher delivers a due reminder across every available channel.
// Delivery is deliberately redundant rather than strict fallback: the push
// relay and the platform notification fire alongside the banner and the
// audible cue, so the user notices even if one surface is missed.
type Dispatcher struct {
	prompter Prompter
	relay    RelaySender
	worker   Notifier // worker-mediated surface, shows while backgrounded
	direct   Notifier // direct platform surface
	banner   *Banner
	player   Player
	icon     string
	clk      clock.Clock
	logger   *log.Logger

	mu      sync.Mutex
	granted bool
}

type DispatcherOption func(*Dispatcher)

func WithPrompter(p Prompter) DispatcherOption {
	return func(d *Dispatcher) { d.prompter = p }
}

func WithRelay(r RelaySender) DispatcherOption {
	return func(d *Dispatcher) { d.relay = r }
}

func WithWorker(n Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.worker = n }
}

func WithDirect(n Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.direct = n }
}

func WithPlayer(p Player) DispatcherOption {
	return func(d *Dispatcher) { d.player = p }
}

func WithIcon(icon string) DispatcherOption {
	return func(d *Dispatcher) { d.icon = icon }
}

func WithDispatcherClock(clk clock.Clock) DispatcherOption {
	return func(d *Dispatcher) { d.clk = clk }
}

func WithDispatcherLogger(l *log.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

func NewDispatcher(banner *Banner, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		banner: banner,
		clk:    clock.New(),
		logger: log.New(os.Stderr, "[notify] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Negotiate resolves notification permission once per session. An already
// granted state is accepted as-is, a denied state is never re-prompted,
// and the default state issues exactly one prompt. Returns whether
// platform notifications may be shown.
func (d *Dispatcher) Negotiate(ctx context.Context) bool {
	granted := false
	switch {
	case d.prompter == nil:
		d.logger.Printf("No notification permission surface available")
	default:
		switch d.prompter.Current() {
		case PermissionGranted:
			granted = true
			d.logger.Printf("Notification permission already granted")
		case PermissionDenied:
			d.logger.Printf("Notifications are blocked")
		default:
			p, err := d.prompter.Request(ctx)
			if err != nil {
				d.logger.Printf("Notification permission request failed: %v", err)
			}
			granted = p == PermissionGranted
			if !granted {
				d.logger.Printf("Notification permission denied")
			}
		}
	}

	d.mu.Lock()
	d.granted = granted
	d.mu.Unlock()
	return granted
}

// Dispatch delivers r through every available channel, best effort. Single
// channel failures are logged and never propagate; an error is returned
// only when no channel accepted the notification.
func (d *Dispatcher) Dispatch(ctx context.Context, r habitflow.Reminder) error {
	delivered := false
	title := "🔔 Reminder"
	timeOfDay := To12Hour(r.NormalizedTime())
	body := fmt.Sprintf("%s\nTime: %s", r.Text, timeOfDay)

	if d.relay != nil && d.relay.Available() {
		if err := d.relay.Send(ctx, title, body, r.ID); err != nil {
			d.logger.Printf("Push relay failed for reminder %d: %v", r.ID, err)
		} else {
			delivered = true
		}
	}

	if d.permissionGranted() {
		n := d.notification(r, title, body)
		platform := d.worker
		if platform == nil {
			platform = d.direct
		}
		if platform != nil {
			if err := platform.Show(ctx, n); err != nil {
				d.logger.Printf("Error showing notification: %v", err)
			} else {
				delivered = true
			}
		}
	}

	if d.banner != nil {
		if err := d.banner.Show(r); err != nil {
			d.logger.Printf("Banner failed for reminder %d: %v", r.ID, err)
		} else {
			delivered = true
		}
	}

	if d.player != nil {
		if err := d.player.Play(Cue(), CueSampleRate); err != nil {
			d.logger.Printf("Audio notification failed: %v", err)
		}
	}

	if !delivered {
		return errors.New("no notification channel accepted the reminder")
	}
	return nil
}

func (d *Dispatcher) notification(r habitflow.Reminder, title, body string) Notification {
	return Notification{
		Title:              title,
		Body:               body,
		Icon:               d.icon,
		Tag:                fmt.Sprintf("reminder-%d", r.ID),
		RequireInteraction: true,
		Vibrate:            []int{200, 100, 200, 100, 200},
		Data: map[string]any{
			"reminderId": r.ID,
			"url":        "/dashboard",
		},
		Timestamp: d.clk.Now(),
	}
}

func (d *Dispatcher) permissionGranted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.granted
}
