package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/soracho/isomap/logger"
	"github.com/soracho/isomap/models"
	"github.com/soracho/isomap/services"
)

// renderError maps service errors to status codes and short user-facing
// messages. Upstream and persistence details are logged, never returned.
func renderError(c *fiber.Ctx, err error, fallback string) error {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return fail(c, fiber.StatusBadRequest, validationErr.Message)
	}

	var rateLimitErr *models.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return fail(c, fiber.StatusTooManyRequests, rateLimitMessage(rateLimitErr))
	}

	if errors.Is(err, models.ErrQuotaExhausted) {
		return fail(c, fiber.StatusPaymentRequired,
			"画像生成サービスの利用枠を使い切りました。しばらくしてからお試しください。")
	}

	if errors.Is(err, models.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "画像が見つかりません")
	}

	slog.ErrorContext(c.UserContext(), "request failed",
		"method", c.Method(), "path", c.Path(), logger.Err(err))
	return fail(c, fiber.StatusInternalServerError, fallback)
}

func rateLimitMessage(err *models.RateLimitError) string {
	if err.Scope == services.ScopeLike {
		return fmt.Sprintf("1時間のいいね回数制限（%d回）に達しました。時間をおいてから再度お試しください。", err.Limit)
	}
	return fmt.Sprintf("1日の画像生成回数制限（%d回）に達しました。明日また試してください。", err.Limit)
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
