package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soracho/isomap/services"
)

const (
	defaultPageLimit = 30
	maxPageLimit     = 100
)

// ListImages handles GET /api/images, the paginated public gallery.
func ListImages(gallery *services.GalleryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		limit := c.QueryInt("limit", defaultPageLimit)
		if limit < 1 {
			limit = defaultPageLimit
		}
		if limit > maxPageLimit {
			limit = maxPageLimit
		}

		p, err := gallery.List(c.UserContext(), page, limit)
		if err != nil {
			return renderError(c, err, "画像一覧の取得に失敗しました")
		}
		return c.JSON(p)
	}
}
