// Package events carries conversation snapshots from the state machine to
// renderers over an in-process watermill pub/sub.
package events

import (
	"context"
	"encoding/json"
	"sync"

	"chatbot-widget/internal/pkg/logger"
	"chatbot-widget/internal/service"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const SnapshotTopic = "widget.snapshot"

// SnapshotBus fans snapshots out to subscribers. Delivery order across
// messages is not guaranteed, so each subscription drops snapshots older
// than the newest one it has seen.
type SnapshotBus struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ service.SnapshotPublisher = &SnapshotBus{}

func NewSnapshotBus(log logger.ILogger) *SnapshotBus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
	return &SnapshotBus{
		pubSub: pubSub,
		logger: log,
	}
}

func (b *SnapshotBus) PublishSnapshot(snap service.Snapshot) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		b.logger.Error("SnapshotBus", "Failed to encode snapshot", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := b.pubSub.Publish(SnapshotTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		b.logger.Warn("SnapshotBus", "Failed to publish snapshot", map[string]interface{}{
			"revision": snap.Revision,
			"error":    err.Error(),
		})
	}
}

// Subscribe calls fn for every newer snapshot until the returned
// unsubscribe func is called or the bus is closed. fn runs on a goroutine
// owned by the subscription.
func (b *SnapshotBus) Subscribe(fn func(service.Snapshot)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	messages, err := b.pubSub.Subscribe(ctx, SnapshotTopic)
	if err != nil {
		cancel()
		return nil, err
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		var last uint64
		for msg := range messages {
			var snap service.Snapshot
			if err := json.Unmarshal(msg.Payload, &snap); err != nil {
				b.logger.Error("SnapshotBus", "Failed to decode snapshot", map[string]interface{}{"error": err.Error()})
				msg.Ack()
				continue
			}
			msg.Ack()
			if snap.Revision <= last {
				continue
			}
			last = snap.Revision
			fn(snap)
		}
	}()

	return cancel, nil
}

// Close ends every subscription and waits for running callbacks.
func (b *SnapshotBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	err := b.pubSub.Close()
	b.wg.Wait()
	return err
}
