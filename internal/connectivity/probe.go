package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pinger is any dependency that can answer a liveness check. The shared
// PostgreSQL client satisfies it directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to Pinger
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// ProbeSource produces raw connectivity signals by probing a dependency on
// a fixed interval. It emits the observed state on every probe, repeated
// states included; de-duplication is the monitor's job.
type ProbeSource struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	stop   chan struct{}
	closed sync.WaitGroup
}

// NewProbeSource creates a probe-driven signal source
func NewProbeSource(pinger Pinger, interval time.Duration, logger *slog.Logger) *ProbeSource {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &ProbeSource{
		pinger:   pinger,
		interval: interval,
		timeout:  interval,
		logger:   logger,
	}
}

// Online performs a one-shot probe of the live state
func (s *ProbeSource) Online() bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.pinger.Ping(ctx) == nil
}

// Start begins probing and returns the raw signal channel
func (s *ProbeSource) Start() <-chan bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	signals := make(chan bool, 1)
	s.stop = make(chan struct{})
	s.closed.Add(1)

	go func(stop chan struct{}) {
		defer s.closed.Done()
		defer close(signals)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				online := s.Online()
				select {
				case signals <- online:
				case <-stop:
					return
				}
			}
		}
	}(s.stop)

	return signals
}

// Stop ends probing and closes the signal channel
func (s *ProbeSource) Stop() {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		s.closed.Wait()
	}
}
