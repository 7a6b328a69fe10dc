package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Publisher is the slice of the message broker client the notifier needs
type Publisher interface {
	PublishTo(ctx context.Context, routingKey string, body []byte, contentType string) error
}

// Notification is the wire payload consumed by the frontend channel
type Notification struct {
	Kind        Kind      `json:"kind"`
	Message     string    `json:"message"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AMQPNotifier publishes notifications to the broker so the education app's
// frontend layer can render them. Delivery failures are logged and dropped;
// a notification is never worth failing the operation that produced it.
type AMQPNotifier struct {
	publisher  Publisher
	routingKey string
	logger     *slog.Logger
}

// NewAMQPNotifier creates a broker-backed notifier
func NewAMQPNotifier(publisher Publisher, routingKey string, logger *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		publisher:  publisher,
		routingKey: routingKey,
		logger:     logger,
	}
}

func (n *AMQPNotifier) Notify(ctx context.Context, kind Kind, message, description string) {
	body, err := json.Marshal(Notification{
		Kind:        kind,
		Message:     message,
		Description: description,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		n.logger.Error("Failed to marshal notification",
			slog.String("error", err.Error()),
		)
		return
	}

	if err := n.publisher.PublishTo(ctx, n.routingKey, body, "application/json"); err != nil {
		n.logger.Error("Failed to publish notification",
			slog.String("kind", string(kind)),
			slog.String("message", message),
			slog.String("error", err.Error()),
		)
	}
}
