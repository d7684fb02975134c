// Package openrouter generates images through the OpenRouter chat-completions
// API with a multimodal Gemini image model.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/soracho/isomap/llm"
	"github.com/soracho/isomap/models"
)

const defaultAPIURL = "https://openrouter.ai/api/v1/chat/completions"

type Client struct {
	apiURL     string
	token      string
	model      string
	basePrompt string
	mapsAPIKey string
	hc         *http.Client
}

func NewClient(token, model, basePrompt, mapsAPIKey string) (*Client, error) {
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}
	return &Client{
		apiURL:     defaultAPIURL,
		token:      token,
		model:      model,
		basePrompt: basePrompt,
		mapsAPIKey: mapsAPIKey,
		hc:         &http.Client{},
	}, nil
}

// Generate sends one multimodal request: the expanded prompt as a text part
// and, when coordinates are present, a static-map URL as an image part. A
// single attempt is made; no retries.
func (c *Client) Generate(ctx context.Context, prompt string, coords *models.LatLng) (*models.GenerationResult, error) {
	parts := []contentPart{
		{Type: "text", Text: llm.ExpandBasePrompt(c.basePrompt, prompt)},
	}
	if coords != nil {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: llm.StaticMapURL(c.mapsAPIKey, *coords)},
		})
	}

	reqBody, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: parts}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusPaymentRequired {
		return nil, models.ErrQuotaExhausted
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &models.UpstreamError{Status: resp.StatusCode}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		slog.WarnContext(ctx, "openrouter reply had no choices", "model", c.model)
		return llm.FallbackResult(), nil
	}

	return parseMessage(ctx, chatResp.Choices[0].Message), nil
}

func parseMessage(ctx context.Context, msg responseMessage) *models.GenerationResult {
	for _, img := range msg.Images {
		if img.Type != "image_url" || img.ImageURL == nil {
			continue
		}
		if !strings.HasPrefix(img.ImageURL.URL, "data:image") {
			continue
		}

		// data:image/png;base64,<payload>
		meta, data, ok := strings.Cut(img.ImageURL.URL, ",")
		if !ok {
			continue
		}
		mimeType := strings.TrimSuffix(strings.TrimPrefix(meta, "data:"), ";base64")
		slog.InfoContext(ctx, "openrouter returned image", "mimeType", mimeType, "size", len(data))
		return &models.GenerationResult{
			Type:     models.ResultTypeImage,
			MimeType: mimeType,
			Data:     data,
		}
	}

	if msg.Content != "" {
		return &models.GenerationResult{
			Type:     models.ResultTypeText,
			Content:  msg.Content,
			MimeType: "text/plain",
		}
	}

	return llm.FallbackResult()
}

var _ llm.ImageGenerator = (*Client)(nil)
