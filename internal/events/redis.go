package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "planner:refresh"

// RedisBroker shares events between server instances over redis Pub/Sub.
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *zap.SugaredLogger

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRedisBroker(client *redis.Client, logger *zap.SugaredLogger) *RedisBroker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RedisBroker{
		client:  client,
		channel: DefaultChannel,
		logger:  logger,
		stop:    make(chan struct{}),
	}
}

func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, func()) {
	out := make(chan Event, subscriberBuffer)
	pubsub := b.client.Subscribe(ctx, b.channel)

	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		b.logger.Warnw("event subscription failed", "channel", b.channel, "error", err)
		_ = pubsub.Close()
		close(out)
		return out, func() {}
	}

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = pubsub.Close()
		})
	}

	messages := pubsub.Channel()
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				cancel()
				return
			case <-b.stop:
				cancel()
				return
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warnw("dropping malformed event", "payload", msg.Payload, "error", err)
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()

	return out, cancel
}

// Close ends every subscription and waits for them to drain. The redis
// client is owned by the caller.
func (b *RedisBroker) Close() error {
	b.stopOnce.Do(func() { close(b.stop) })
	b.wg.Wait()
	return nil
}
