package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soracho/isomap/kv"
	"github.com/soracho/isomap/llm"
	"github.com/soracho/isomap/logger"
	"github.com/soracho/isomap/models"
	"github.com/soracho/isomap/storage"
)

// ImageService orchestrates generation and persistence. Generation and save
// are separate steps: nothing is written until the client explicitly asks to
// save, so a discarded result leaves no trace in storage.
type ImageService struct {
	generator llm.ImageGenerator
	store     kv.Store
	blobs     storage.BlobStore
	limiter   *RateLimiter
	gallery   *GalleryService
	autoSave  bool

	now   func() time.Time
	newID func() string
}

type SavedImage struct {
	ID  string
	URL string
}

func NewImageService(
	generator llm.ImageGenerator,
	store kv.Store,
	blobs storage.BlobStore,
	limiter *RateLimiter,
	gallery *GalleryService,
	autoSave bool,
) *ImageService {
	return &ImageService{
		generator: generator,
		store:     store,
		blobs:     blobs,
		limiter:   limiter,
		gallery:   gallery,
		autoSave:  autoSave,
		now:       time.Now,
		newID:     newTempID,
	}
}

// Generate runs one rate-limited generation. Image results get a temporary id
// and echo the prompt and coordinates so the client can save later without
// regenerating.
func (s *ImageService) Generate(ctx context.Context, prompt string, coords *models.LatLng, clientID string) (*models.GenerationResult, error) {
	count, err := s.limiter.Check(ctx, ScopeGeneration, clientID)
	if err != nil {
		return nil, err
	}

	result, err := s.generator.Generate(ctx, prompt, coords)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Commit(ctx, ScopeGeneration, clientID, count); err != nil {
		slog.WarnContext(ctx, "failed to commit generation rate count", "client", clientID, logger.Err(err))
	}

	if result.Type != models.ResultTypeImage {
		return result, nil
	}

	result.TempID = s.newID()
	result.Prompt = prompt
	result.LatLng = coords

	if s.autoSave {
		saved, err := s.Save(ctx, result.TempID, result.Data, prompt, coords)
		if err != nil {
			// Generation already succeeded; only gallery publication failed.
			slog.WarnContext(ctx, "auto-save failed", "tempId", result.TempID, logger.Err(err))
		} else {
			result.SavedURL = saved.URL
			result.SavedID = saved.ID
		}
	}
	return result, nil
}

// Save decodes the base64 payload, uploads it to blob storage and writes the
// metadata record, then invalidates the gallery cache.
func (s *ImageService) Save(ctx context.Context, tempID, data, prompt string, coords *models.LatLng) (*SavedImage, error) {
	if meta, rest, ok := strings.Cut(data, ","); ok && strings.HasPrefix(meta, "data:") {
		data = rest
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &models.ValidationError{Message: "画像データの形式が正しくありません"}
	}

	path := fmt.Sprintf("images/%s.png", tempID)
	url, err := s.blobs.Upload(ctx, path, raw, "image/png")
	if err != nil {
		return nil, &models.PersistenceError{Err: fmt.Errorf("uploading %q: %w", path, err)}
	}

	rec := models.ImageRecord{
		ID:        tempID,
		URL:       url,
		Prompt:    prompt,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		Likes:     0,
	}
	if coords != nil {
		rec.Lat = &coords.Lat
		rec.Lng = &coords.Lng
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return nil, &models.PersistenceError{Err: err}
	}
	if err := s.store.Set(ctx, imageKeyPrefix+tempID, value); err != nil {
		return nil, &models.PersistenceError{Err: err}
	}

	s.gallery.InvalidateCache(ctx)

	slog.InfoContext(ctx, "image saved", "id", tempID, "url", url, "bytes", len(raw))
	return &SavedImage{ID: tempID, URL: url}, nil
}

func newTempID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
