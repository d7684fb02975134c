package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const clientIPKey = "clientIP"

// ClientIP resolves the caller's address for rate limiting: first entry of
// X-Forwarded-For, then X-Real-IP, then the connection address.
func ClientIP() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.Get("X-Forwarded-For")
		if ip != "" {
			ip = strings.TrimSpace(strings.Split(ip, ",")[0])
		}
		if ip == "" {
			ip = c.Get("X-Real-IP")
		}
		if ip == "" {
			ip = c.IP()
		}
		if ip == "" {
			ip = "unknown"
		}
		c.Locals(clientIPKey, ip)
		return c.Next()
	}
}

// ClientIPFrom returns the address resolved by ClientIP.
func ClientIPFrom(c *fiber.Ctx) string {
	if ip, ok := c.Locals(clientIPKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}
