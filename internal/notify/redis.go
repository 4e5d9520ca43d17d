package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisChannel is the pub/sub channel carrying topics
const RedisChannel = "grantline:changes"

// Redis delivers topics between server processes through Redis pub/sub
type Redis struct {
	rdb    *redis.Client
	pubsub *redis.PubSub
	local  *Memory
	done   chan struct{}
}

// NewRedis connects to addr and subscribes to RedisChannel
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewRedisWithClient(ctx, rdb)
}

// NewRedisWithClient subscribes using an existing client
func NewRedisWithClient(ctx context.Context, rdb *redis.Client) (*Redis, error) {
	pubsub := rdb.Subscribe(ctx, RedisChannel)
	// wait for the subscription confirmation so no publish is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", RedisChannel, err)
	}

	r := &Redis{
		rdb:    rdb,
		pubsub: pubsub,
		local:  NewMemory(),
		done:   make(chan struct{}),
	}
	go r.run()
	return r, nil
}

func (r *Redis) run() {
	ch := r.pubsub.Channel()
	for {
		select {
		case <-r.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.local.dispatch(msg.Payload)
		}
	}
}

// Publish sends topic to every subscribed process, this one included
func (r *Redis) Publish(ctx context.Context, topic string) error {
	if err := r.rdb.Publish(ctx, RedisChannel, topic).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

func (r *Redis) Listen(topic string, fn func()) func() {
	return r.local.Listen(topic, fn)
}

// Close unsubscribes and closes the client
func (r *Redis) Close() error {
	close(r.done)
	r.local.Close()
	if err := r.pubsub.Close(); err != nil {
		r.rdb.Close()
		return err
	}
	return r.rdb.Close()
}
