// Package gemini generates images directly through the Gemini API, fetching
// the static map server-side and passing it inline.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/soracho/isomap/llm"
	"github.com/soracho/isomap/models"
)

type Client struct {
	genai      *genai.Client
	model      string
	basePrompt string
	mapsAPIKey string
	hc         *http.Client
}

func NewClient(ctx context.Context, apiKey, model, basePrompt, mapsAPIKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key cannot be empty")
	}
	// The configured model may be in OpenRouter form ("google/gemini-...").
	model = strings.TrimPrefix(model, "google/")
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &Client{
		genai:      client,
		model:      model,
		basePrompt: basePrompt,
		mapsAPIKey: mapsAPIKey,
		hc:         &http.Client{},
	}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string, coords *models.LatLng) (*models.GenerationResult, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(llm.ExpandBasePrompt(c.basePrompt, prompt)),
	}
	if coords != nil {
		mapData, err := c.fetchStaticMap(ctx, *coords)
		if err != nil {
			return nil, fmt.Errorf("fetching static map: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(mapData, "image/png"))
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	result, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusPaymentRequired {
				return nil, models.ErrQuotaExhausted
			}
			return nil, &models.UpstreamError{Status: apiErr.Code}
		}
		return nil, fmt.Errorf("generating content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return llm.FallbackResult(), nil
	}

	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		slog.InfoContext(ctx, "gemini returned image",
			"mimeType", part.InlineData.MIMEType, "size", len(part.InlineData.Data))
		return &models.GenerationResult{
			Type:     models.ResultTypeImage,
			MimeType: part.InlineData.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
		}, nil
	}

	if text := result.Text(); text != "" {
		return &models.GenerationResult{
			Type:     models.ResultTypeText,
			Content:  text,
			MimeType: "text/plain",
		}, nil
	}

	return llm.FallbackResult(), nil
}

func (c *Client) fetchStaticMap(ctx context.Context, coords models.LatLng) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, llm.StaticMapURL(c.mapsAPIKey, coords), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var _ llm.ImageGenerator = (*Client)(nil)
