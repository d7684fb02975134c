package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/soracho/isomap/kv"
	"github.com/soracho/isomap/logger"
	"github.com/soracho/isomap/models"
)

// LikeService increments like counters on saved images, rate limited per
// client per hour.
type LikeService struct {
	store   kv.Store
	limiter *RateLimiter
	gallery *GalleryService

	// mu serializes the read-modify-write so concurrent likes within this
	// instance cannot lose increments. Cross-instance linearization would
	// need support from the store itself.
	mu sync.Mutex
}

func NewLikeService(store kv.Store, limiter *RateLimiter, gallery *GalleryService) *LikeService {
	return &LikeService{store: store, limiter: limiter, gallery: gallery}
}

// Like adds one like to the image and returns the new count.
func (l *LikeService) Like(ctx context.Context, imageID, clientID string) (int, error) {
	count, err := l.limiter.Check(ctx, ScopeLike, clientID)
	if err != nil {
		return 0, err
	}

	likes, err := l.increment(ctx, imageID)
	if err != nil {
		return 0, err
	}

	if err := l.limiter.Commit(ctx, ScopeLike, clientID, count); err != nil {
		slog.WarnContext(ctx, "failed to commit like rate count", "client", clientID, logger.Err(err))
	}
	l.gallery.InvalidateCache(ctx)

	return likes, nil
}

func (l *LikeService) increment(ctx context.Context, imageID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := imageKeyPrefix + imageID
	value, err := l.store.Get(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("reading image record %q: %w", key, err)
	}

	var rec models.ImageRecord
	if err := json.Unmarshal(value, &rec); err != nil {
		return 0, fmt.Errorf("malformed image record %q: %w", key, err)
	}

	rec.Likes++
	updated, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	if err := l.store.Set(ctx, key, updated); err != nil {
		return 0, fmt.Errorf("writing image record %q: %w", key, err)
	}
	return rec.Likes, nil
}
