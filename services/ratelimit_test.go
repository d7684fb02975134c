package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soracho/isomap/kv"
	"github.com/soracho/isomap/models"
)

func TestRateLimiterCheckAndCommit(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(kv.NewMemoryStore(), 2)

	for i := 0; i < 2; i++ {
		count, err := limiter.Check(ctx, ScopeGeneration, "1.2.3.4")
		if err != nil {
			t.Fatalf("request %d should be allowed: %v", i+1, err)
		}
		if count != i {
			t.Fatalf("expected count %d, got %d", i, count)
		}
		if err := limiter.Commit(ctx, ScopeGeneration, "1.2.3.4", count); err != nil {
			t.Fatal(err)
		}
	}

	_, err := limiter.Check(ctx, ScopeGeneration, "1.2.3.4")
	var rateLimitErr *models.RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rateLimitErr.Limit != 2 || rateLimitErr.Scope != ScopeGeneration {
		t.Fatalf("unexpected error details: %+v", rateLimitErr)
	}

	// A different client is unaffected.
	if _, err := limiter.Check(ctx, ScopeGeneration, "5.6.7.8"); err != nil {
		t.Fatalf("other client should be allowed: %v", err)
	}
}

func TestRateLimiterUncommittedChecksConsumeNoQuota(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(kv.NewMemoryStore(), 1)

	for i := 0; i < 5; i++ {
		count, err := limiter.Check(ctx, ScopeGeneration, "1.2.3.4")
		if err != nil {
			t.Fatalf("check %d should pass without commits: %v", i+1, err)
		}
		if count != 0 {
			t.Fatalf("expected count 0, got %d", count)
		}
	}
}

func TestRateLimiterUnlimitedGeneration(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(kv.NewMemoryStore(), 0)

	for i := 0; i < 100; i++ {
		count, err := limiter.Check(ctx, ScopeGeneration, "1.2.3.4")
		if err != nil {
			t.Fatal(err)
		}
		if err := limiter.Commit(ctx, ScopeGeneration, "1.2.3.4", count); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRateLimiterLikeScope(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(kv.NewMemoryStore(), 0)

	for i := 0; i < likeLimitPerHour; i++ {
		count, err := limiter.Check(ctx, ScopeLike, "1.2.3.4")
		if err != nil {
			t.Fatalf("like %d should be allowed: %v", i+1, err)
		}
		if err := limiter.Commit(ctx, ScopeLike, "1.2.3.4", count); err != nil {
			t.Fatal(err)
		}
	}

	_, err := limiter.Check(ctx, ScopeLike, "1.2.3.4")
	var rateLimitErr *models.RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Fatalf("expected RateLimitError after %d likes, got %v", likeLimitPerHour, err)
	}
}

func TestRateLimiterWindowRollover(t *testing.T) {
	ctx := context.Background()
	limiter := NewRateLimiter(kv.NewMemoryStore(), 1)

	now := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	count, err := limiter.Check(ctx, ScopeGeneration, "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if err := limiter.Commit(ctx, ScopeGeneration, "1.2.3.4", count); err != nil {
		t.Fatal(err)
	}
	if _, err := limiter.Check(ctx, ScopeGeneration, "1.2.3.4"); err == nil {
		t.Fatal("expected limit to be reached within the same day")
	}

	// Next UTC day gets a fresh counter.
	now = now.Add(2 * time.Minute)
	if _, err := limiter.Check(ctx, ScopeGeneration, "1.2.3.4"); err != nil {
		t.Fatalf("expected fresh window on new day: %v", err)
	}
}
