package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/vitrina/internal/i18n"
)

const localeContextKey = "locale"

// Locale resolves the request locale from ?lang= then Accept-Language.
func Locale(fallback string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localeContextKey, i18n.Resolve(fallback, c.Query("lang"), c.AcceptsLanguages(i18n.Supported...)))
		return c.Next()
	}
}

// GetLocale returns the locale chosen by Locale, or the default locale.
func GetLocale(c *fiber.Ctx) string {
	if l, ok := c.Locals(localeContextKey).(string); ok && l != "" {
		return l
	}
	return i18n.DefaultLocale
}
