package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// MasterDataCache lets the client reuse successful catalog reads for maxAge
func MasterDataCache(maxAge time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() == fiber.MethodGet && c.Response().StatusCode() == fiber.StatusOK {
			c.Set(fiber.HeaderCacheControl, formatCacheControl(maxAge))
		}

		return err
	}
}

// formatCacheControl formats a private cache control header value
func formatCacheControl(maxAge time.Duration) string {
	return "private, max-age=" + strconv.Itoa(int(maxAge.Seconds()))
}

// NoCacheHeaders sets no-cache headers
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set("Expires", "0")
		return c.Next()
	}
}
