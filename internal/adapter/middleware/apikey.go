package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// APIKeyMiddleware checks X-API-KEY against the configured set. With no
// keys configured the check is disabled, so local development needs no
// extra setup. Health stays open for probes.
func APIKeyMiddleware(keys []string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed[k] = struct{}{}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(allowed) == 0 || c.Path() == "/health" {
				return next(c)
			}
			key := strings.TrimSpace(c.Request().Header.Get("X-API-KEY"))
			if _, ok := allowed[key]; !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or missing API key"})
			}
			return next(c)
		}
	}
}
