// Package llm defines the image generation contract shared by backends.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/soracho/isomap/models"
)

// FallbackMessage is returned as a text result when the upstream reply
// contains neither an image nor text.
const FallbackMessage = "画像生成に失敗しました、もう一度お試しください。"

type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, coords *models.LatLng) (*models.GenerationResult, error)
}

// StaticMapURL builds the Google static-map tile URL for a point: zoom 16,
// 600x600, red marker on the point itself.
func StaticMapURL(apiKey string, c models.LatLng) string {
	return fmt.Sprintf(
		"https://maps.googleapis.com/maps/api/staticmap?center=%[1]v,%[2]v&zoom=16&size=600x600&markers=color:red%%7C%[1]v,%[2]v&key=%[3]s",
		c.Lat, c.Lng, apiKey,
	)
}

// ExpandBasePrompt unescapes the literal \n sequences the base prompt is
// configured with and prepends it to the user prompt.
func ExpandBasePrompt(basePrompt, prompt string) string {
	return strings.ReplaceAll(basePrompt, `\n`, "\n") + prompt
}

// FallbackResult is the soft-fail text result.
func FallbackResult() *models.GenerationResult {
	return &models.GenerationResult{
		Type:     models.ResultTypeText,
		Content:  FallbackMessage,
		MimeType: "text/plain",
	}
}
