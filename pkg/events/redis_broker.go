package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"linkup-chat/pkg/logger"
)

type RedisBroker struct {
	Client *redis.Client
}

func NewRedisBroker(addr, password string, db int) *RedisBroker {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisBroker{Client: rdb}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.Client.Publish(ctx, channel, data).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string, handler Handler) (func(), error) {
	pubsub := b.Client.Subscribe(ctx, channel)

	// Force the subscription to be established before returning so a
	// publish issued right after Subscribe cannot be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ch := pubsub.Channel()
		for msg := range ch {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Global().Warn("dropping malformed event",
					zap.String("channel", channel), zap.Error(err))
				continue
			}
			handler(ctx, event)
		}
	}()

	cancel := func() {
		pubsub.Close()
		<-done
	}
	return cancel, nil
}
