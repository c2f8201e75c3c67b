package http

import (
	"github.com/labstack/echo/v4"
)

// setNoCacheHeaders marks the response as uncacheable. Notification and
// redirect responses must never be served from a reverse-proxy cache.
func setNoCacheHeaders(c echo.Context) {
	h := c.Response().Header()
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
