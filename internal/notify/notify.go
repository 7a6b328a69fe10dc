package notify

import (
	"context"
	"log/slog"
)

// Kind classifies a user-facing notification
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notifier delivers user-facing notifications. The resilience primitives
// never call it themselves; the caller layer (runner, connectivity monitor)
// decides what surfaces to the user. Silent retries stay silent.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, message, description string)
}

// LogNotifier writes notifications to the application log
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, kind Kind, message, description string) {
	attrs := []any{
		slog.String("kind", string(kind)),
	}
	if description != "" {
		attrs = append(attrs, slog.String("description", description))
	}

	switch kind {
	case KindError:
		n.logger.Error(message, attrs...)
	default:
		n.logger.Info(message, attrs...)
	}
}

// Multi fans a notification out to several notifiers
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, kind Kind, message, description string) {
	for _, n := range m {
		n.Notify(ctx, kind, message, description)
	}
}

// Nop discards notifications
type Nop struct{}

func (Nop) Notify(ctx context.Context, kind Kind, message, description string) {}
