package redis

import (
	"context"
	"fmt"
	"sync"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/repository"
)

type changeFeed struct {
	client *redislib.Client
	prefix string
	logger *zap.Logger
}

// NewChangeFeed returns a ChangeFeed on Redis pub/sub, one channel per owner.
func NewChangeFeed(client *redislib.Client, logger *zap.Logger) repository.ChangeFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &changeFeed{
		client: client,
		prefix: "taskflow:tasks:",
		logger: logger,
	}
}

func (f *changeFeed) Publish(ctx context.Context, ownerID string) error {
	return f.client.Publish(ctx, f.channel(ownerID), "changed").Err()
}

func (f *changeFeed) Subscribe(ctx context.Context, ownerID string, fn func()) (repository.Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("subscribe %s: nil callback", ownerID)
	}
	pubsub := f.client.Subscribe(ctx, f.channel(ownerID))
	// Receive blocks until the subscription is confirmed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &subscription{pubsub: pubsub, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for range pubsub.Channel() {
			fn()
		}
		f.logger.Debug("change feed subscription closed", zap.String("owner_id", ownerID))
	}()
	return sub, nil
}

func (f *changeFeed) channel(ownerID string) string {
	return f.prefix + ownerID
}

type subscription struct {
	pubsub *redislib.PubSub
	done   chan struct{}
	once   sync.Once
	err    error
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.err = s.pubsub.Close()
		<-s.done
	})
	return s.err
}
