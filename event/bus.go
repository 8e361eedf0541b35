package event

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/arkosec/responder/logger"
	"go.uber.org/zap"
)

const lifecycleTopic = "responder.lifecycle"

// Bus publishes lifecycle events over an in-process pub/sub. It is scoped
// to one engine instance; there is no global listener registry.
type Bus struct {
	pubsub *gochannel.GoChannel
}

func NewBus() *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NopLogger{},
	)
	return &Bus{pubsub: pubsub}
}

// Publish never blocks workflow progress; a marshal or publish failure is
// logged and dropped.
func (b *Bus) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("can not marshal lifecycle event", zap.String("event", string(ev.Name)), zap.Error(err))
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(lifecycleTopic, msg); err != nil {
		logger.Error("can not publish lifecycle event", zap.String("event", string(ev.Name)), zap.Error(err))
	}
}

// Subscribe delivers every lifecycle event published after the call until
// ctx is cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, error) {
	messages, err := b.pubsub.Subscribe(ctx, lifecycleTopic)
	if err != nil {
		return nil, err
	}
	out := make(chan Event, 64)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				logger.Error("can not decode lifecycle event", zap.Error(err))
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}
