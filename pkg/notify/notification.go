package notify

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// Notification is the platform-level payload shown for a due reminder.
type Notification struct {
	Title              string         `json:"title"`
	Body               string         `json:"body"`
	Icon               string         `json:"icon,omitempty"`
	Tag                string         `json:"tag,omitempty"`
	RequireInteraction bool           `json:"requireInteraction"`
	Vibrate            []int          `json:"vibrate,omitempty"`
	Data               map[string]any `json:"data,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
}

// Notifier is a platform notification surface: the direct in-process
// equivalent of the Notification constructor, or a worker-mediated handle
// exposing showNotification.
type Notifier interface {
	Show(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to a logger. It is the headless
// stand-in used when no OS notification surface is wired up.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Show(_ context.Context, notif Notification) error {
	n.logger.Printf("%s: %s", notif.Title, strings.ReplaceAll(notif.Body, "\n", " "))
	return nil
}

// To12Hour renders an HH:MM time-of-day in 12-hour clock notation, e.g.
// "14:05" becomes "2:05 PM". Malformed input is returned unchanged.
func To12Hour(t string) string {
	parts := strings.SplitN(t, ":", 3)
	if len(parts) < 2 {
		return t
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return t
	}
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	hour = hour % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%s %s", hour, parts[1], ampm)
}
