package handler

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/soracho/isomap/middleware"
	"github.com/soracho/isomap/models"
	"github.com/soracho/isomap/services"
)

const (
	promptMinLength = 3
	promptMaxLength = 200
)

type GenerateImageRequest struct {
	Prompt string         `json:"prompt"`
	LatLng *models.LatLng `json:"latLng"`
}

// GenerateImage handles POST /api/ai/image. Validation runs before any
// upstream call.
func GenerateImage(images *services.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req GenerateImageRequest
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "リクエストの形式が正しくありません")
		}

		prompt := strings.TrimSpace(req.Prompt)
		if n := utf8.RuneCountInString(prompt); n < promptMinLength || n > promptMaxLength {
			return fail(c, fiber.StatusBadRequest, "プロンプトは3〜200文字で入力してください")
		}
		if req.LatLng == nil {
			return fail(c, fiber.StatusBadRequest, "座標が必要です")
		}

		result, err := images.Generate(c.UserContext(), prompt, req.LatLng, middleware.ClientIPFrom(c))
		if err != nil {
			return renderError(c, err, "画像の生成に失敗しました")
		}
		return c.JSON(result)
	}
}
