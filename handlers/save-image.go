package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soracho/isomap/models"
	"github.com/soracho/isomap/services"
)

type SaveImageRequest struct {
	Data   string         `json:"data"`
	TempID string         `json:"tempId"`
	Prompt string         `json:"prompt"`
	LatLng *models.LatLng `json:"latLng"`
}

// SaveImage handles POST /api/ai/image/save, the explicit persistence step
// after a generation the user wants to keep.
func SaveImage(images *services.ImageService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SaveImageRequest
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "リクエストの形式が正しくありません")
		}

		if req.Data == "" || req.TempID == "" || req.Prompt == "" {
			return fail(c, fiber.StatusBadRequest, "必要なデータが不足しています")
		}

		saved, err := images.Save(c.UserContext(), req.TempID, req.Data, req.Prompt, req.LatLng)
		if err != nil {
			return renderError(c, err, "画像の保存に失敗しました")
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"savedUrl": saved.URL,
			"savedId":  saved.ID,
		})
	}
}
