package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis implements Backend with redis keys. Changes are announced on a pub/sub channel as "writer|key"
type Redis struct {
	client  *redis.Client
	id      string
	prefix  string
	timeout time.Duration
}

// NewRedis makes Redis backend for redis url, like redis://localhost:6379/0. All keys stored under prefix
func NewRedis(url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("[WARN] can't close redis client, %v", closeErr)
		}
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{client: client, id: uuid.NewString(), prefix: prefix, timeout: 5 * time.Second}, nil
}

// Load returns data for the key or ErrNotFound
func (r *Redis) Load(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return data, nil
}

// Save sets the key and announces the change
func (r *Redis) Save(key string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	r.publish(ctx, key)
	return nil
}

// Delete removes the key and announces the change
func (r *Redis) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	n, err := r.client.Del(ctx, r.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if n > 0 {
		r.publish(ctx, key)
	}
	return nil
}

// Watch subscribes to the change channel and calls fn for keys changed by other writers
func (r *Redis) Watch(ctx context.Context, keys []string, fn func(key string)) error {
	watched := map[string]bool{}
	for _, k := range keys {
		watched[k] = true
	}

	sub := r.client.Subscribe(ctx, r.channel())
	if _, err := sub.Receive(ctx); err != nil { // wait for subscription confirmation
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel(), err)
	}

	go func() {
		defer func() {
			if err := sub.Close(); err != nil {
				log.Printf("[WARN] can't close redis subscription, %v", err)
			}
		}()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				writer, key, found := strings.Cut(msg.Payload, "|")
				if !found || writer == r.id || !watched[key] {
					continue
				}
				fn(key)
			}
		}
	}()
	return nil
}

// Close closes redis client
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) channel() string {
	return r.prefix + "changes"
}

func (r *Redis) publish(ctx context.Context, key string) {
	if err := r.client.Publish(ctx, r.channel(), r.id+"|"+key).Err(); err != nil {
		log.Printf("[WARN] can't publish change for %s, %v", key, err)
	}
}
