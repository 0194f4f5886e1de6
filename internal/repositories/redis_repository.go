package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository holds the short-lived state that does not belong in
// Postgres: refresh-token sessions, the token blacklist, and the cached
// M-Pesa API token.
type RedisRepository struct {
	rdb *redis.Client
}

func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

const mpesaTokenKey = "mpesa:access_token"

func (r *RedisRepository) StoreSession(ctx context.Context, jti string, customerID string) error {
	key := "session:" + jti
	ttl := 30 * 24 * time.Hour
	return r.rdb.Set(ctx, key, customerID, ttl).Err()
}

func (r *RedisRepository) SessionCustomer(ctx context.Context, jti string) (string, error) {
	key := "session:" + jti
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (r *RedisRepository) DeleteSession(ctx context.Context, jti string) error {
	key := "session:" + jti
	return r.rdb.Del(ctx, key).Err()
}

func (r *RedisRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := "blacklist:" + jti
	exists, err := r.rdb.Exists(ctx, key).Result()
	return exists == 1, err
}

func (r *RedisRepository) Blacklist(ctx context.Context, jti string) error {
	key := "blacklist:" + jti
	ttl := 30 * 24 * time.Hour
	return r.rdb.Set(ctx, key, "true", ttl).Err()
}

// CacheMpesaToken stores the Daraja access token. The TTL should sit under
// the token's real lifetime so a fresh one is fetched before expiry.
func (r *RedisRepository) CacheMpesaToken(ctx context.Context, token string, ttl time.Duration) error {
	return r.rdb.Set(ctx, mpesaTokenKey, token, ttl).Err()
}

// MpesaToken returns the cached token, or "" when none is cached.
func (r *RedisRepository) MpesaToken(ctx context.Context) (string, error) {
	val, err := r.rdb.Get(ctx, mpesaTokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}
