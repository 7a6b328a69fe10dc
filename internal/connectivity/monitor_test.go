package connectivity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/eduhub/processing-be/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource feeds scripted signals into the monitor
type fakeSource struct {
	online  bool
	signals chan bool

	mu      sync.Mutex
	started int
	stopped int
}

func newFakeSource(online bool) *fakeSource {
	return &fakeSource{
		online:  online,
		signals: make(chan bool, 16),
	}
}

func (s *fakeSource) Online() bool { return s.online }

func (s *fakeSource) Start() <-chan bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	return s.signals
}

func (s *fakeSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
}

func (s *fakeSource) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// transitionRecorder collects callback invocations thread-safely
type transitionRecorder struct {
	mu     sync.Mutex
	states []bool
}

func (r *transitionRecorder) record(online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, online)
}

func (r *transitionRecorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.states...)
}

func (r *transitionRecorder) waitFor(t *testing.T, n int) []bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d transitions, have %v", n, r.snapshot())
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMonitorSeedsFromSource(t *testing.T) {
	online := NewMonitor(newFakeSource(true), notify.Nop{}, discardLogger(), true)
	assert.True(t, online.Online())

	offline := NewMonitor(newFakeSource(false), notify.Nop{}, discardLogger(), true)
	assert.False(t, offline.Online())
}

func TestMonitorDeduplicatesRepeatedSignals(t *testing.T) {
	source := newFakeSource(true)
	monitor := NewMonitor(source, notify.Nop{}, discardLogger(), true)

	rec := &transitionRecorder{}
	id := monitor.Subscribe(rec.record)
	defer monitor.Unsubscribe(id)

	// offline, offline, online: the repeated offline must collapse
	source.signals <- false
	source.signals <- false
	source.signals <- true

	got := rec.waitFor(t, 2)
	assert.Equal(t, []bool{false, true}, got)
	assert.True(t, monitor.Online())
}

func TestMonitorFansOutToAllSubscribers(t *testing.T) {
	source := newFakeSource(true)
	monitor := NewMonitor(source, notify.Nop{}, discardLogger(), true)

	recA := &transitionRecorder{}
	recB := &transitionRecorder{}
	idA := monitor.Subscribe(recA.record)
	idB := monitor.Subscribe(recB.record)
	defer monitor.Unsubscribe(idA)
	defer monitor.Unsubscribe(idB)

	source.signals <- false

	assert.Equal(t, []bool{false}, recA.waitFor(t, 1))
	assert.Equal(t, []bool{false}, recB.waitFor(t, 1))
}

func TestMonitorNotifiesOnTransitions(t *testing.T) {
	source := newFakeSource(true)

	var mu sync.Mutex
	var kinds []notify.Kind
	notifier := notifierFunc(func(_ context.Context, kind notify.Kind, _, _ string) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, kind)
	})

	monitor := NewMonitor(source, notifier, discardLogger(), false)

	rec := &transitionRecorder{}
	id := monitor.Subscribe(rec.record)
	defer monitor.Unsubscribe(id)

	source.signals <- false
	source.signals <- true
	rec.waitFor(t, 2)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, kinds, 2)
	assert.Equal(t, notify.KindError, kinds[0])
	assert.Equal(t, notify.KindSuccess, kinds[1])
}

func TestMonitorSuppressedNotifications(t *testing.T) {
	source := newFakeSource(true)

	notified := false
	notifier := notifierFunc(func(context.Context, notify.Kind, string, string) {
		notified = true
	})

	monitor := NewMonitor(source, notifier, discardLogger(), true)

	rec := &transitionRecorder{}
	id := monitor.Subscribe(rec.record)
	defer monitor.Unsubscribe(id)

	source.signals <- false
	rec.waitFor(t, 1)

	// Callbacks still fire while user-facing notifications stay quiet
	assert.False(t, notified)
}

func TestMonitorLastUnsubscribeReleasesSource(t *testing.T) {
	source := newFakeSource(true)
	monitor := NewMonitor(source, notify.Nop{}, discardLogger(), true)

	idA := monitor.Subscribe(func(bool) {})
	idB := monitor.Subscribe(func(bool) {})

	monitor.Unsubscribe(idA)
	assert.Equal(t, 0, source.stopCount())

	monitor.Unsubscribe(idB)
	assert.Equal(t, 1, source.stopCount())

	// Double unsubscribe is a no-op
	monitor.Unsubscribe(idB)
	assert.Equal(t, 1, source.stopCount())
}

// notifierFunc adapts a function to notify.Notifier for tests
type notifierFunc func(ctx context.Context, kind notify.Kind, message, description string)

func (f notifierFunc) Notify(ctx context.Context, kind notify.Kind, message, description string) {
	f(ctx, kind, message, description)
}

func TestProbeSourceEmitsEachTick(t *testing.T) {
	var mu sync.Mutex
	healthy := true
	pinger := PingerFunc(func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if healthy {
			return nil
		}
		return errors.New("connection refused")
	})

	source := NewProbeSource(pinger, 10*time.Millisecond, discardLogger())
	assert.True(t, source.Online())

	signals := source.Start()
	defer source.Stop()

	first, ok := <-signals
	require.True(t, ok)
	assert.True(t, first)

	mu.Lock()
	healthy = false
	mu.Unlock()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case online := <-signals:
			if !online {
				return
			}
		case <-deadline:
			t.Fatal("probe never reported the dependency as offline")
		}
	}
}

func TestProbeSourceStopClosesSignals(t *testing.T) {
	source := NewProbeSource(PingerFunc(func(context.Context) error { return nil }), 5*time.Millisecond, discardLogger())

	signals := source.Start()
	source.Stop()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-signals:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("signal channel was not closed by Stop")
		}
	}
}
