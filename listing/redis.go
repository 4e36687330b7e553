package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLock deletes the lock only while it still carries the caller's token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Prefix is prepended to all keys
	Prefix string

	// TTL is how long an untouched view is kept
	TTL time.Duration

	// LockTTL bounds how long an in-flight token survives a crashed holder
	LockTTL time.Duration

	ConnectTimeout time.Duration
}

// DefaultRedisOptions returns the options used when only a URL is given.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Prefix:         "spacetraveling:listing:",
		TTL:            30 * time.Minute,
		LockTTL:        30 * time.Second,
		ConnectTimeout: 5 * time.Second,
	}
}

// RedisStore keeps listing states in Redis so several server processes can
// share views. States are stored as JSON with a sliding TTL.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisStore connects to Redis and pings it.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		return nil, errors.New("listing: redis URL is required")
	}
	def := DefaultRedisOptions()
	if opts.Prefix == "" {
		opts.Prefix = def.Prefix
	}
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = def.LockTTL
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("listing: parse redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("listing: ping redis: %w", err)
	}

	return &RedisStore{
		client:  client,
		prefix:  opts.Prefix,
		ttl:     opts.TTL,
		lockTTL: opts.LockTTL,
	}, nil
}

func (s *RedisStore) stateKey(id string) string { return s.prefix + id }
func (s *RedisStore) lockKey(id string) string  { return s.prefix + id + ":lock" }

// Load returns the state of a view and slides its expiry.
func (s *RedisStore) Load(ctx context.Context, id string) (State, error) {
	val, err := s.client.GetEx(ctx, s.stateKey(id), s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrViewNotFound
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(val, &st); err != nil {
		return State{}, fmt.Errorf("listing: decode view %s: %w", id, err)
	}
	return st, nil
}

// Save stores st as JSON under id.
func (s *RedisStore) Save(ctx context.Context, id string, st State) error {
	val, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(id), val, s.ttl).Err()
}

// Acquire sets the view's lock key to a fresh token. The lock expires after
// LockTTL so a crashed holder cannot block the view for good.
func (s *RedisStore) Acquire(ctx context.Context, id string) (string, error) {
	n, err := s.client.Exists(ctx, s.stateKey(id)).Result()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrViewNotFound
	}
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.lockKey(id), token, s.lockTTL).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInFlight
	}
	return token, nil
}

// Release deletes the lock if token still owns it. A holder that outlived
// LockTTL leaves the next holder's lock alone.
func (s *RedisStore) Release(ctx context.Context, id, token string) error {
	return releaseLock.Run(ctx, s.client, []string{s.lockKey(id)}, token).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
