package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	handler "github.com/soracho/isomap/handlers"
	"github.com/soracho/isomap/services"
)

type Deps struct {
	Images  *services.ImageService
	Gallery *services.GalleryService
	Likes   *services.LikeService
}

func SetupRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api", logger.New())
	api.Get("/health", handler.Health)

	ai := api.Group("/ai")
	ai.Post("/image", handler.GenerateImage(deps.Images))
	ai.Post("/image/save", handler.SaveImage(deps.Images))

	images := api.Group("/images")
	images.Get("/", handler.ListImages(deps.Gallery))
	images.Post("/:id/like", handler.LikeImage(deps.Likes))
}
