package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifierLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	notifier := NewLogNotifier(logger)

	notifier.Notify(context.Background(), KindError, "Processing failed", "step download gave up")
	notifier.Notify(context.Background(), KindSuccess, "Processing finished", "")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	assert.Equal(t, "ERROR", first["level"])
	assert.Equal(t, "Processing failed", first["msg"])
	assert.Equal(t, "error", first["kind"])
	assert.Equal(t, "step download gave up", first["description"])

	assert.Equal(t, "INFO", second["level"])
	assert.Equal(t, "Processing finished", second["msg"])
	_, hasDescription := second["description"]
	assert.False(t, hasDescription)
}

// fakePublisher captures published notification payloads
type fakePublisher struct {
	err        error
	routingKey string
	body       []byte
	calls      int
}

func (p *fakePublisher) PublishTo(ctx context.Context, routingKey string, body []byte, contentType string) error {
	p.calls++
	p.routingKey = routingKey
	p.body = body
	return p.err
}

func TestAMQPNotifierPublishesPayload(t *testing.T) {
	publisher := &fakePublisher{}
	notifier := NewAMQPNotifier(publisher, "content.notifications", slog.New(slog.NewTextHandler(io.Discard, nil)))

	notifier.Notify(context.Background(), KindSuccess, "Transcription finished", "12 segments stored")

	require.Equal(t, 1, publisher.calls)
	assert.Equal(t, "content.notifications", publisher.routingKey)

	var payload Notification
	require.NoError(t, json.Unmarshal(publisher.body, &payload))
	assert.Equal(t, KindSuccess, payload.Kind)
	assert.Equal(t, "Transcription finished", payload.Message)
	assert.Equal(t, "12 segments stored", payload.Description)
	assert.False(t, payload.Timestamp.IsZero())
}

func TestAMQPNotifierDropsDeliveryFailures(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("channel closed")}
	notifier := NewAMQPNotifier(publisher, "content.notifications", slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Must not panic or propagate; a lost notification is only logged
	notifier.Notify(context.Background(), KindError, "Processing failed", "")
	assert.Equal(t, 1, publisher.calls)
}

func TestMultiFansOut(t *testing.T) {
	var got []string
	a := notifierFunc(func(_ context.Context, _ Kind, message, _ string) { got = append(got, "a:"+message) })
	b := notifierFunc(func(_ context.Context, _ Kind, message, _ string) { got = append(got, "b:"+message) })

	Multi{a, b}.Notify(context.Background(), KindInfo, "hello", "")

	assert.Equal(t, []string{"a:hello", "b:hello"}, got)
}

type notifierFunc func(ctx context.Context, kind Kind, message, description string)

func (f notifierFunc) Notify(ctx context.Context, kind Kind, message, description string) {
	f(ctx, kind, message, description)
}
