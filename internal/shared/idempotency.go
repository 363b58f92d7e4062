package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// KeyStore claims request keys so a replayed submission is refused.
type KeyStore interface {
	// Claim records key within scope, returning ErrIdempotencyReplay when it
	// is already held.
	Claim(ctx context.Context, scope, key string) error
	// Release forgets a claim whose request failed.
	Release(ctx context.Context, scope, key string) error
	// Purge drops claims older than retention and reports how many went.
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

func checkKey(scope, key string) error {
	if key == "" {
		return ErrIdempotencyKeyRequired
	}
	if scope == "" {
		return errors.New("idempotency scope required")
	}
	return nil
}

// PGKeyStore keeps claims in the idempotency_keys table.
type PGKeyStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPGKeyStore constructs the store.
func NewPGKeyStore(pool *pgxpool.Pool) *PGKeyStore {
	return &PGKeyStore{pool: pool, now: time.Now}
}

// Claim implements KeyStore.
func (s *PGKeyStore) Claim(ctx context.Context, scope, key string) error {
	if err := checkKey(scope, key); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `INSERT INTO idempotency_keys (key, module, created_at) VALUES ($1, $2, $3)
ON CONFLICT (module, key) DO NOTHING`, key, scope, s.now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyReplay
	}
	return nil
}

// Release implements KeyStore.
func (s *PGKeyStore) Release(ctx context.Context, scope, key string) error {
	if err := checkKey(scope, key); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE module=$1 AND key=$2`, scope, key)
	return err
}

// Purge implements KeyStore.
func (s *PGKeyStore) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, s.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RedisKeyStore keeps claims as expiring Redis keys.
type RedisKeyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisKeyStore constructs the store. Claims expire after ttl.
func NewRedisKeyStore(client *redis.Client, ttl time.Duration) *RedisKeyStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &RedisKeyStore{client: client, ttl: ttl}
}

func redisKey(scope, key string) string {
	return "idempotency:" + scope + ":" + key
}

// Claim implements KeyStore.
func (s *RedisKeyStore) Claim(ctx context.Context, scope, key string) error {
	if err := checkKey(scope, key); err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, redisKey(scope, key), time.Now().Unix(), s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrIdempotencyReplay
	}
	return nil
}

// Release implements KeyStore.
func (s *RedisKeyStore) Release(ctx context.Context, scope, key string) error {
	if err := checkKey(scope, key); err != nil {
		return err
	}
	return s.client.Del(ctx, redisKey(scope, key)).Err()
}

// Purge implements KeyStore. Redis expires claims on its own.
func (s *RedisKeyStore) Purge(context.Context, time.Duration) (int64, error) {
	return 0, nil
}
