package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/soracho/isomap/kv"
	"github.com/soracho/isomap/logger"
	"github.com/soracho/isomap/models"
)

const (
	imageKeyPrefix  = "image:"
	galleryCacheKey = "images_list_"
)

// GalleryService lists saved images newest first, with one cached page per
// (page, limit) pair.
type GalleryService struct {
	store kv.Store
	ttl   time.Duration
}

func NewGalleryService(store kv.Store, ttl time.Duration) *GalleryService {
	return &GalleryService{store: store, ttl: ttl}
}

func (g *GalleryService) List(ctx context.Context, page, limit int) (*models.GalleryPage, error) {
	cacheKey := fmt.Sprintf("%spage_%d_limit_%d", galleryCacheKey, page, limit)
	if cached, err := g.store.Get(ctx, cacheKey); err == nil {
		var p models.GalleryPage
		if json.Unmarshal(cached, &p) == nil {
			return &p, nil
		}
	}

	records, err := g.loadRecords(ctx)
	if err != nil {
		return nil, err
	}

	// Newest first; id breaks createdAt ties so pages stay stable across
	// cache rebuilds.
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].ID > records[j].ID
	})

	total := len(records)
	p := &models.GalleryPage{
		Images:     lo.Slice(records, (page-1)*limit, page*limit),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
	if p.Images == nil {
		p.Images = []models.ImageRecord{}
	}

	if cached, err := json.Marshal(p); err == nil {
		if err := g.store.SetWithTTL(ctx, cacheKey, cached, g.ttl); err != nil {
			slog.WarnContext(ctx, "failed to cache gallery page", "key", cacheKey, logger.Err(err))
		}
	}
	return p, nil
}

func (g *GalleryService) loadRecords(ctx context.Context) ([]models.ImageRecord, error) {
	keys, err := g.store.Keys(ctx, imageKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing image keys: %w", err)
	}

	records := make([]models.ImageRecord, 0, len(keys))
	for _, key := range keys {
		value, err := g.store.Get(ctx, key)
		if err != nil {
			continue
		}

		var rec models.ImageRecord
		if err := json.Unmarshal(value, &rec); err != nil || rec.CreatedAt == "" {
			slog.WarnContext(ctx, "skipping malformed image record", "key", key)
			continue
		}
		if rec.ID == "" {
			rec.ID = strings.TrimPrefix(key, imageKeyPrefix)
		}
		records = append(records, rec)
	}
	return records, nil
}

// InvalidateCache drops every cached gallery page. Best effort: failures are
// logged and never propagated to the operation that triggered them.
func (g *GalleryService) InvalidateCache(ctx context.Context) {
	keys, err := g.store.Keys(ctx, galleryCacheKey)
	if err != nil {
		slog.WarnContext(ctx, "failed to list gallery cache keys", logger.Err(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := g.store.Delete(ctx, keys...); err != nil {
		slog.WarnContext(ctx, "failed to invalidate gallery cache", logger.Err(err))
	}
}
