package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/soracho/isomap/kv"
	"github.com/soracho/isomap/models"
)

// Rate-limit scopes.
const (
	ScopeGeneration = "generation"
	ScopeLike       = "like"
)

const likeLimitPerHour = 5

// RateLimiter throttles clients with window-keyed counters in the KV store.
// Check and Commit are split so that a failed guarded operation never
// consumes quota: callers Check before the operation and Commit only after it
// succeeded.
type RateLimiter struct {
	store           kv.Store
	generationLimit int
	now             func() time.Time
}

// NewRateLimiter creates a limiter. A generationLimit of 0 disables the
// generation scope entirely.
func NewRateLimiter(store kv.Store, generationLimit int) *RateLimiter {
	return &RateLimiter{
		store:           store,
		generationLimit: generationLimit,
		now:             time.Now,
	}
}

// Check returns the client's current count for the scope, or a RateLimitError
// once the limit is reached.
func (r *RateLimiter) Check(ctx context.Context, scope, clientID string) (int, error) {
	key, _, limit := r.window(scope, clientID)
	if limit <= 0 {
		return 0, nil
	}

	count, err := r.count(ctx, key)
	if err != nil {
		return 0, err
	}
	if count >= limit {
		return count, &models.RateLimitError{Scope: scope, Limit: limit}
	}
	return count, nil
}

// Commit records one more use of the scope, expiring with its window.
func (r *RateLimiter) Commit(ctx context.Context, scope, clientID string, count int) error {
	key, ttl, limit := r.window(scope, clientID)
	if limit <= 0 {
		return nil
	}
	return r.store.SetWithTTL(ctx, key, []byte(strconv.Itoa(count+1)), ttl)
}

func (r *RateLimiter) window(scope, clientID string) (key string, ttl time.Duration, limit int) {
	now := r.now().UTC()
	switch scope {
	case ScopeLike:
		key = fmt.Sprintf("like_limit:%s:%s", clientID, now.Format("2006-01-02T15"))
		return key, time.Hour, likeLimitPerHour
	default:
		key = fmt.Sprintf("daily_limit:%s:%s", clientID, now.Format("2006-01-02"))
		return key, 24 * time.Hour, r.generationLimit
	}
}

func (r *RateLimiter) count(ctx context.Context, key string) (int, error) {
	value, err := r.store.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading rate counter %q: %w", key, err)
	}

	count, err := strconv.Atoi(string(value))
	if err != nil {
		return 0, fmt.Errorf("malformed rate counter %q: %w", key, err)
	}
	return count, nil
}
