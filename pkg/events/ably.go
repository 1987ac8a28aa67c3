package events

import (
	"context"
	"fmt"

	"github.com/ably/ably-go/ably"
)

// RealtimeChannel for easier mocking tests.
type RealtimeChannel interface {
	Publish(ctx context.Context, name string, data interface{}) error
}

// AblyPublisher publishes each event on the Ably channel of the same name.
type AblyPublisher struct {
	client  *ably.Realtime
	channel func(name string) RealtimeChannel
}

func NewAblyPublisher(key string) (*AblyPublisher, error) {
	client, err := ably.NewRealtime(ably.WithKey(key))
	if err != nil {
		return nil, fmt.Errorf("connect to ably: %w", err)
	}
	return &AblyPublisher{
		client: client,
		channel: func(name string) RealtimeChannel {
			return client.Channels.Get(name)
		},
	}, nil
}

func (p *AblyPublisher) Publish(ctx context.Context, channel, name string, data interface{}) error {
	if err := p.channel(channel).Publish(ctx, name, data); err != nil {
		return fmt.Errorf("ably publish %s on %s: %w", name, channel, err)
	}
	return nil
}

func (p *AblyPublisher) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
