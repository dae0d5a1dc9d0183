package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

const (
	DefaultPrefix = "hms:collection:"

	// lockTTL bounds how long a crashed holder can block others.
	lockTTL   = 30 * time.Second
	lockRetry = 10 * time.Millisecond
)

// unlockScript deletes the lock only if it is still held by the caller.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Backend stores each collection under one key. SET replaces the value
// atomically.
type Backend struct {
	client *redis.Client
	prefix string
}

// Open connects to url and verifies the connection.
func Open(ctx context.Context, url, prefix string) (*Backend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return New(client, prefix), nil
}

func New(client *redis.Client, prefix string) *Backend {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Backend{client: client, prefix: prefix}
}

func (b *Backend) key(name string) string {
	return b.prefix + name
}

func (b *Backend) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (b *Backend) Write(ctx context.Context, name string, data []byte) error {
	if err := b.client.Set(ctx, b.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (b *Backend) Exists(ctx context.Context, name string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key(name)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Lock takes a SET NX lock at <prefix><name>:lock, retrying until ctx is
// done.
func (b *Backend) Lock(ctx context.Context, name string) (func(), error) {
	key := b.key(name) + ":lock"
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetry)
	defer ticker.Stop()
	for {
		ok, err := b.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", name, err)
		}
		if ok {
			return func() {
				_ = unlockScript.Run(context.Background(), b.client, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to lock %s: %w", name, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (b *Backend) Close() error {
	return b.client.Close()
}
