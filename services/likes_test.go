package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/soracho/isomap/kv"
	"github.com/soracho/isomap/models"
)

func newLikeService(store kv.Store) (*LikeService, *GalleryService) {
	gallery := NewGalleryService(store, time.Minute)
	return NewLikeService(store, NewRateLimiter(store, 0), gallery), gallery
}

func TestLikeIncrementsByExactlyOne(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	likes, gallery := newLikeService(store)

	putRecord(t, store, "img-1", time.Now(), 0)

	n, err := likes.Like(ctx, "img-1", "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 like, got %d", n)
	}

	n, err = likes.Like(ctx, "img-1", "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("two sequential likes must yield 2, got %d", n)
	}

	// The gallery reflects the new count after invalidation.
	p, err := gallery.List(ctx, 1, 30)
	if err != nil {
		t.Fatal(err)
	}
	if p.Images[0].Likes != 2 {
		t.Fatalf("gallery should show 2 likes, got %d", p.Images[0].Likes)
	}
}

func TestLikeUnknownImage(t *testing.T) {
	ctx := context.Background()
	likes, _ := newLikeService(kv.NewMemoryStore())

	_, err := likes.Like(ctx, "nope", "1.2.3.4")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLikeHourlyLimit(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	likes, _ := newLikeService(store)

	putRecord(t, store, "img-1", time.Now(), 0)

	for i := 0; i < likeLimitPerHour; i++ {
		if _, err := likes.Like(ctx, "img-1", "1.2.3.4"); err != nil {
			t.Fatalf("like %d should be allowed: %v", i+1, err)
		}
	}

	_, err := likes.Like(ctx, "img-1", "1.2.3.4")
	var rateLimitErr *models.RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Fatalf("expected RateLimitError on like %d, got %v", likeLimitPerHour+1, err)
	}

	// Another client can still like.
	if _, err := likes.Like(ctx, "img-1", "9.8.7.6"); err != nil {
		t.Fatalf("other client should be allowed: %v", err)
	}
}

func TestLikeInvalidatesGalleryCache(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	likes, gallery := newLikeService(store)

	putRecord(t, store, "img-1", time.Now(), 0)
	if _, err := gallery.List(ctx, 1, 30); err != nil {
		t.Fatal(err)
	}

	if _, err := likes.Like(ctx, "img-1", "1.2.3.4"); err != nil {
		t.Fatal(err)
	}

	p, err := gallery.List(ctx, 1, 30)
	if err != nil {
		t.Fatal(err)
	}
	if p.Images[0].Likes != 1 {
		t.Fatalf("cached page must be re-derived after like, got %d likes", p.Images[0].Likes)
	}
}

func TestLikeConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	gallery := NewGalleryService(store, time.Minute)
	likes := NewLikeService(store, NewRateLimiter(store, 0), gallery)

	putRecord(t, store, "img-1", time.Now(), 0)

	const n = 20
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			// distinct clients to stay under the hourly limit
			_, err := likes.Like(ctx, "img-1", fmt.Sprintf("10.0.0.%d", i))
			done <- err
		}(i)
	}
	for i := 0; i < n; i++ {
		if err := <-done; err != nil {
			t.Fatal(err)
		}
	}

	gallery.InvalidateCache(ctx)
	p, err := gallery.List(ctx, 1, 30)
	if err != nil {
		t.Fatal(err)
	}
	if p.Images[0].Likes != n {
		t.Fatalf("expected %d likes, got %d (lost increments)", n, p.Images[0].Likes)
	}
}
