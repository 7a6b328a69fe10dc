package connectivity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eduhub/processing-be/internal/notify"
	"github.com/eduhub/processing-be/shared/metrics"
)

// Source delivers raw online/offline signals from the platform.
// Signals may repeat; the monitor de-duplicates them.
type Source interface {
	// Online reports the live connectivity state, read once at construction
	Online() bool
	// Start begins signal delivery. The returned channel is closed by Stop.
	Start() <-chan bool
	// Stop releases the underlying platform listeners
	Stop()
}

// Callback receives the new connectivity state on each transition
type Callback func(online bool)

// Monitor is a two-state online/offline machine fed by a Source. Repeated
// signals of the same state cause no transition. Consumers subscribe a
// callback and must unsubscribe when no longer interested; the source's
// listeners are held only while at least one subscriber is registered.
type Monitor struct {
	source   Source
	notifier notify.Notifier
	logger   *slog.Logger
	suppress bool

	mu      sync.Mutex
	online  bool
	subs    map[int]Callback
	nextID  int
	signals <-chan bool
	done    chan struct{}
}

// NewMonitor creates a monitor seeded with the source's current state
func NewMonitor(source Source, notifier notify.Notifier, logger *slog.Logger, suppressNotifications bool) *Monitor {
	return &Monitor{
		source:   source,
		notifier: notifier,
		logger:   logger,
		suppress: suppressNotifications,
		online:   source.Online(),
		subs:     make(map[int]Callback),
	}
}

// Online reports the current de-duplicated state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a callback for connectivity transitions and returns
// the id to pass to Unsubscribe. The first subscription attaches the
// platform listeners.
func (m *Monitor) Subscribe(cb Callback) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.subs[id] = cb

	if len(m.subs) == 1 {
		m.signals = m.source.Start()
		m.done = make(chan struct{})
		go m.listen(m.signals, m.done)
	}

	return id
}

// Unsubscribe removes a callback. The final deregistration releases the
// platform listeners.
func (m *Monitor) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[id]; !ok {
		return
	}
	delete(m.subs, id)

	if len(m.subs) == 0 && m.done != nil {
		close(m.done)
		m.done = nil
		m.source.Stop()
	}
}

func (m *Monitor) listen(signals <-chan bool, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case online, ok := <-signals:
			if !ok {
				return
			}
			m.handleSignal(online)
		}
	}
}

// handleSignal applies one raw signal; same-state signals are ignored
func (m *Monitor) handleSignal(online bool) {
	m.mu.Lock()
	if online == m.online {
		m.mu.Unlock()
		return
	}
	m.online = online

	callbacks := make([]Callback, 0, len(m.subs))
	for _, cb := range m.subs {
		callbacks = append(callbacks, cb)
	}
	m.mu.Unlock()

	if online {
		m.logger.Info("Connectivity restored")
		metrics.IncConnectivityTransition("online")
		if !m.suppress {
			m.notifier.Notify(context.Background(), notify.KindSuccess,
				"Back online", "Connection to the platform was restored")
		}
	} else {
		m.logger.Warn("Connectivity lost")
		metrics.IncConnectivityTransition("offline")
		if !m.suppress {
			m.notifier.Notify(context.Background(), notify.KindError,
				"Connection lost", "Changes will not sync until the connection returns")
		}
	}

	for _, cb := range callbacks {
		cb(online)
	}
}
