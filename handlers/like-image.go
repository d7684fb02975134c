package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soracho/isomap/middleware"
	"github.com/soracho/isomap/services"
)

// LikeImage handles POST /api/images/:id/like.
func LikeImage(likes *services.LikeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return fail(c, fiber.StatusBadRequest, "画像IDが必要です")
		}

		count, err := likes.Like(c.UserContext(), id, middleware.ClientIPFrom(c))
		if err != nil {
			return renderError(c, err, "いいねの処理に失敗しました")
		}

		return c.JSON(fiber.Map{
			"success": true,
			"likes":   count,
		})
	}
}
