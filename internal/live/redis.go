package live

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPrefix = "tcn:live:"

// RedisBroker uses Redis pub/sub, one channel per group.
type RedisBroker struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisBroker connects using a redis:// URL.
func NewRedisBroker(url string, log *zap.Logger) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisBroker{client: redis.NewClient(opts), log: log.Named("live.redis")}, nil
}

func (b *RedisBroker) Name() string { return "redis" }

func (b *RedisBroker) Publish(ctx context.Context, group string, payload []byte) error {
	return b.client.Publish(ctx, redisPrefix+group, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, fn Handler) error {
	ps := b.client.PSubscribe(ctx, redisPrefix+"*")
	defer ps.Close()

	// wait for the subscription to be confirmed
	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("psubscribe: %w", err)
	}
	b.log.Info("Subscribed to live channels", zap.String("pattern", redisPrefix+"*"))

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return ErrBrokerClosed
			}
			fn(strings.TrimPrefix(msg.Channel, redisPrefix), []byte(msg.Payload))
		}
	}
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
