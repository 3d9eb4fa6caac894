package nats

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"chatbot-widget/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	event, err := decodeEvent("widget.session.closed", []byte(`{"sessionId":"session_1_a","occurredAt":1700000000000}`))
	require.NoError(t, err)

	assert.Equal(t, "session.closed", event.EventType())
	assert.Equal(t, "session_1_a", event.Payload()["sessionId"])
	assert.Equal(t, time.UnixMilli(1700000000000), event.Timestamp())

	_, err = decodeEvent("widget.session.closed", []byte(`nope`))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "widget.booking.expired", Subject("booking.expired"))
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}

	pub, err := NewPublisher(url)
	require.NoError(t, err)
	defer pub.Close()
	sub, err := NewSubscriber(url)
	require.NoError(t, err)
	defer sub.Close()

	got := make(chan events.Event, 1)
	durable := fmt.Sprintf("test-%d", time.Now().UnixNano())
	err = sub.Subscribe(context.Background(), Subject("booking.expired"), durable, func(ctx context.Context, e events.Event) error {
		select {
		case got <- e:
		default:
		}
		return nil
	})
	require.NoError(t, err)

	at := time.Now()
	require.NoError(t, pub.Publish(context.Background(), events.NewWidgetEvent("booking.expired", "session_x", at, nil)))

	select {
	case e := <-got:
		assert.Equal(t, "booking.expired", e.EventType())
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
}
