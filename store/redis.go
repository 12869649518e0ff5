package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/newswire-io/restitch/types"
)

// DefaultKeyPrefix namespaces envelope keys in Redis.
const DefaultKeyPrefix = "restitch:envelope:"

// RedisConfig configures the Redis fragment store.
type RedisConfig struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// KeyPrefix namespaces envelope keys (default restitch:envelope:).
	KeyPrefix string
	// Limits bounds open envelopes. MaxAge maps to a per-key TTL
	// refreshed on every merge; MaxEntries is not enforced server-side
	// and is governed by the Redis memory policy.
	Limits Limits
}

// Redis is a fragment store backed by Redis. Envelopes are msgpack
// values under prefixed GUID keys so multiple replay workers can share
// open envelopes. Aging happens server-side via TTL; Sweep is a no-op.
//
// Per-GUID atomicity relies on the feed's one-partition-per-story
// delivery: two workers never race on the same GUID in normal operation.
type Redis struct {
	config RedisConfig
	client *goredis.Client
}

// NewRedis creates a Redis fragment store from the given config.
// Returns an error if the URL is empty or invalid.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis store requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis store: invalid URL: %w", err)
	}

	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	cfg.Limits = cfg.Limits.withDefaults()

	return &Redis{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Find returns the envelope for the GUID, decoded fresh from Redis.
func (r *Redis) Find(ctx context.Context, guid string) (*types.Envelope, error) {
	raw, err := r.client.Get(ctx, r.key(guid)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: get %s: %w", guid, err)
	}

	var env types.Envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("redis store: decode envelope %s: %w", guid, err)
	}
	return &env, nil
}

// Insert stores a new envelope with the max-age TTL.
// Uses SET NX so a concurrent insert for the same GUID loses cleanly.
func (r *Redis) Insert(ctx context.Context, env *types.Envelope) error {
	raw, err := msgpack.Marshal(env)
	if err != nil {
		return fmt.Errorf("redis store: encode envelope %s: %w", env.GUID, err)
	}

	ok, err := r.client.SetNX(ctx, r.key(env.GUID), raw, r.config.Limits.MaxAge).Result()
	if err != nil {
		return fmt.Errorf("redis store: insert %s: %w", env.GUID, err)
	}
	if !ok {
		return ErrDuplicateID
	}
	return nil
}

// Update replaces the stored envelope and refreshes its TTL, so eviction
// age is measured from the last merge like the memory store.
func (r *Redis) Update(ctx context.Context, env *types.Envelope) error {
	raw, err := msgpack.Marshal(env)
	if err != nil {
		return fmt.Errorf("redis store: encode envelope %s: %w", env.GUID, err)
	}

	set, err := r.client.SetXX(ctx, r.key(env.GUID), raw, r.config.Limits.MaxAge).Result()
	if err != nil {
		return fmt.Errorf("redis store: update %s: %w", env.GUID, err)
	}
	if !set {
		return ErrNotFound
	}
	return nil
}

// Remove deletes the envelope for the GUID.
func (r *Redis) Remove(ctx context.Context, guid string) error {
	n, err := r.client.Del(ctx, r.key(guid)).Result()
	if err != nil {
		return fmt.Errorf("redis store: remove %s: %w", guid, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Len counts open envelopes by scanning the key prefix.
// Intended for stats surfaces, not the per-fragment path.
func (r *Redis) Len(ctx context.Context) (int, error) {
	var count int
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.config.KeyPrefix+"*", 256).Result()
		if err != nil {
			return 0, fmt.Errorf("redis store: scan: %w", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

// Sweep is a no-op: Redis expires envelopes server-side via TTL.
func (r *Redis) Sweep(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

// Close releases the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(guid string) string {
	return r.config.KeyPrefix + guid
}

// Verify Redis implements the Store interface.
var _ Store = (*Redis)(nil)
