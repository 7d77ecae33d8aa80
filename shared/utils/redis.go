package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned when no principal is cached for a user
var ErrCacheMiss = errors.New("principal not cached")

// CachedPrincipal is what the auth middleware needs to know about a user
// between database checks.
type CachedPrincipal struct {
	UserID         uuid.UUID `json:"user_id"`
	OrganisationID uuid.UUID `json:"organisation_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
}

// RedisOptions configures the principal cache connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// PrincipalCache keeps verified principals in Redis keyed by user id. All
// methods are safe on a nil *PrincipalCache, which behaves as an always-empty
// cache.
type PrincipalCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *CircuitBreaker
}

// NewPrincipalCache connects to Redis and verifies the connection
func NewPrincipalCache(ctx context.Context, opts RedisOptions, ttl time.Duration) (*PrincipalCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	logrus.WithField("addr", opts.Addr).Info("Connected to Redis")
	return NewPrincipalCacheWithClient(client, ttl), nil
}

// NewPrincipalCacheWithClient wraps an existing client
func NewPrincipalCacheWithClient(client *redis.Client, ttl time.Duration) *PrincipalCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PrincipalCache{
		client:  client,
		ttl:     ttl,
		breaker: NewCircuitBreaker("redis-principal-cache", 5, 30*time.Second),
	}
}

func principalKey(userID uuid.UUID) string {
	return fmt.Sprintf("principal:user:%s", userID)
}

// Get returns the cached principal for userID or ErrCacheMiss
func (pc *PrincipalCache) Get(ctx context.Context, userID uuid.UUID) (*CachedPrincipal, error) {
	if pc == nil {
		return nil, ErrCacheMiss
	}

	var data string
	err := pc.breaker.Call(func() error {
		val, err := pc.client.Get(ctx, principalKey(userID)).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		data = val
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read principal from Redis: %w", err)
	}
	if data == "" {
		return nil, ErrCacheMiss
	}

	var principal CachedPrincipal
	if err := json.Unmarshal([]byte(data), &principal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal principal: %w", err)
	}
	return &principal, nil
}

// Set caches principal for the configured TTL
func (pc *PrincipalCache) Set(ctx context.Context, principal CachedPrincipal) error {
	if pc == nil {
		return nil
	}

	data, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("failed to marshal principal: %w", err)
	}

	return pc.breaker.Call(func() error {
		return pc.client.Set(ctx, principalKey(principal.UserID), data, pc.ttl).Err()
	})
}

// Evict drops the cached principals of the given users
func (pc *PrincipalCache) Evict(ctx context.Context, userIDs ...uuid.UUID) error {
	if pc == nil || len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = principalKey(id)
	}
	return pc.breaker.Call(func() error {
		return pc.client.Del(ctx, keys...).Err()
	})
}

// Close closes the Redis connection
func (pc *PrincipalCache) Close() error {
	if pc == nil {
		return nil
	}
	return pc.client.Close()
}
