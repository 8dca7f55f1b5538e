package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Musharaf05/HabitFlow/pkg/habitflow"
)

type fakeRelay struct {
	available bool
	err       error
	sent      []string
}

func (f *fakeRelay) Available() bool { return f.available }

func (f *fakeRelay) Send(_ context.Context, title, body string, _ int64) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, title+"|"+body)
	return nil
}

type fakeNotifier struct {
	err   error
	shown []Notification
}

func (f *fakeNotifier) Show(_ context.Context, n Notification) error {
	if f.err != nil {
		return f.err
	}
	f.shown = append(f.shown, n)
	return nil
}

type countingPrompter struct {
	current  Permission
	answer   Permission
	requests int
}

func (p *countingPrompter) Current() Permission { return p.current }

func (p *countingPrompter) Request(context.Context) (Permission, error) {
	p.requests++
	return p.answer, nil
}

type fakePlayer struct {
	mu     sync.Mutex
	played int
}

func (p *fakePlayer) Play(samples []int16, rate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played++
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testReminder() habitflow.Reminder {
	return habitflow.Reminder{ID: 7, Text: "BUY APPLES", Date: "2025-06-24", Time: "09:00"}
}

func TestNegotiateGrantedWithoutPrompt(t *testing.T) {
	p := &countingPrompter{current: PermissionGranted}
	d := NewDispatcher(nil, WithPrompter(p), WithDispatcherLogger(quietLogger()))

	assert.True(t, d.Negotiate(context.Background()))
	assert.Equal(t, 0, p.requests)
}

func TestNegotiateDeniedNeverReprompts(t *testing.T) {
	p := &countingPrompter{current: PermissionDenied}
	d := NewDispatcher(nil, WithPrompter(p), WithDispatcherLogger(quietLogger()))

	assert.False(t, d.Negotiate(context.Background()))
	assert.Equal(t, 0, p.requests)
}

func TestNegotiateDefaultPromptsExactlyOnce(t *testing.T) {
	p := &countingPrompter{current: PermissionDefault, answer: PermissionGranted}
	d := NewDispatcher(nil, WithPrompter(p), WithDispatcherLogger(quietLogger()))

	assert.True(t, d.Negotiate(context.Background()))
	assert.Equal(t, 1, p.requests)
}

func TestDispatchIsRedundantAcrossChannels(t *testing.T) {
	var buf bytes.Buffer
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 6, 24, 9, 0, 0, 0, time.Local))
	banner := NewBanner(&buf, mock)
	relay := &fakeRelay{available: true}
	direct := &fakeNotifier{}
	player := &fakePlayer{}

	d := NewDispatcher(banner,
		WithDispatcherClock(mock),
		WithPrompter(NewStaticPrompter(PermissionGranted)),
		WithRelay(relay),
		WithDirect(direct),
		WithPlayer(player),
		WithDispatcherLogger(quietLogger()),
	)
	require.True(t, d.Negotiate(context.Background()))

	require.NoError(t, d.Dispatch(context.Background(), testReminder()))

	// Every channel fired, not just the highest-priority one.
	assert.Len(t, relay.sent, 1)
	assert.Len(t, direct.shown, 1)
	assert.Contains(t, buf.String(), "BUY APPLES")
	assert.Equal(t, 1, player.played)

	n := direct.shown[0]
	assert.Equal(t, "reminder-7", n.Tag)
	assert.True(t, n.RequireInteraction)
	assert.Contains(t, n.Body, "9:00 AM")
	assert.True(t, n.Timestamp.Equal(mock.Now()))
}

func TestDispatchSurvivesRelayFailure(t *testing.T) {
	var buf bytes.Buffer
	banner := NewBanner(&buf, clock.NewMock())
	relay := &fakeRelay{available: true, err: errors.New("network down")}

	d := NewDispatcher(banner,
		WithRelay(relay),
		WithDispatcherLogger(quietLogger()),
	)

	require.NoError(t, d.Dispatch(context.Background(), testReminder()))
	assert.Contains(t, buf.String(), "BUY APPLES")
}

func TestDispatchSkipsPlatformWithoutPermission(t *testing.T) {
	var buf bytes.Buffer
	banner := NewBanner(&buf, clock.NewMock())
	direct := &fakeNotifier{}

	d := NewDispatcher(banner,
		WithPrompter(NewStaticPrompter(PermissionDenied)),
		WithDirect(direct),
		WithDispatcherLogger(quietLogger()),
	)
	require.False(t, d.Negotiate(context.Background()))

	require.NoError(t, d.Dispatch(context.Background(), testReminder()))
	assert.Empty(t, direct.shown)
	assert.Contains(t, buf.String(), "BUY APPLES")
}

func TestDispatchPrefersWorkerOverDirect(t *testing.T) {
	worker := &fakeNotifier{}
	direct := &fakeNotifier{}

	d := NewDispatcher(nil,
		WithPrompter(NewStaticPrompter(PermissionGranted)),
		WithWorker(worker),
		WithDirect(direct),
		WithDispatcherLogger(quietLogger()),
	)
	require.True(t, d.Negotiate(context.Background()))

	require.NoError(t, d.Dispatch(context.Background(), testReminder()))
	assert.Len(t, worker.shown, 1)
	assert.Empty(t, direct.shown)
}

func TestDispatchErrorsWhenNothingDelivers(t *testing.T) {
	d := NewDispatcher(nil, WithDispatcherLogger(quietLogger()))
	assert.Error(t, d.Dispatch(context.Background(), testReminder()))
}

func TestBannerAutoDismisses(t *testing.T) {
	mock := clock.NewMock()
	var buf bytes.Buffer
	banner := NewBanner(&buf, mock)

	require.NoError(t, banner.Show(testReminder()))
	assert.Equal(t, 1, banner.Active())

	mock.Add(9 * time.Second)
	assert.Equal(t, 1, banner.Active())

	mock.Add(time.Second)
	assert.Equal(t, 0, banner.Active())
}

func TestBannerReshowRestartsTimer(t *testing.T) {
	mock := clock.NewMock()
	banner := NewBanner(io.Discard, mock)
	r := testReminder()

	require.NoError(t, banner.Show(r))
	mock.Add(9 * time.Second)
	require.NoError(t, banner.Show(r))

	mock.Add(5 * time.Second)
	assert.Equal(t, 1, banner.Active())

	mock.Add(5 * time.Second)
	assert.Equal(t, 0, banner.Active())
}

func TestTo12Hour(t *testing.T) {
	for in, want := range map[string]string{
		"14:00": "2:00 PM",
		"09:05": "9:05 AM",
		"00:30": "12:30 AM",
		"12:00": "12:00 PM",
		"23:59": "11:59 PM",
		"bogus": "bogus",
	} {
		assert.Equal(t, want, To12Hour(in), "input %q", in)
	}
}

func TestCueShape(t *testing.T) {
	samples := Cue()

	// 300ms spacing plus a 200ms second beep at 44.1kHz.
	assert.Len(t, samples, 22050)

	// The gap between the beeps is silent.
	gapStart := int(0.21 * CueSampleRate)
	gapEnd := int(0.29 * CueSampleRate)
	for i := gapStart; i < gapEnd; i++ {
		require.Zero(t, samples[i], "sample %d", i)
	}

	// The beep decays: early peak beats late peak.
	early := peak(samples[:CueSampleRate/100])
	late := peak(samples[int(0.19*CueSampleRate):int(0.2*CueSampleRate)])
	assert.Greater(t, early, late)
	assert.NotZero(t, late)
}

func peak(samples []int16) int {
	max := 0
	for _, s := range samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}

func TestLogNotifierFlattensBody(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf, "", 0))

	err := n.Show(context.Background(), Notification{Title: "🔔 Reminder", Body: "BUY APPLES\nTime: 9:00 AM"})
	require.NoError(t, err)
	assert.False(t, strings.Contains(strings.TrimSpace(buf.String()), "\n"))
}
