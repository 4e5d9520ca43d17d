package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderViewerID identifies the viewer. Authentication happens upstream.
const HeaderViewerID = "X-Viewer-ID"

// viewerMiddleware reads the viewer id from the header, falling back to the
// viewer query parameter for clients that cannot set headers (img tags,
// EventSource)
func viewerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		viewer := strings.TrimSpace(c.Request().Header.Get(HeaderViewerID))
		if viewer == "" {
			viewer = strings.TrimSpace(c.QueryParam("viewer"))
		}
		c.Set("viewer_id", viewer)
		return next(c)
	}
}

// requireViewer rejects requests without a viewer id
func requireViewer(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if viewerID(c) == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "viewer id required"})
		}
		return next(c)
	}
}

func viewerID(c echo.Context) string {
	v, _ := c.Get("viewer_id").(string)
	return v
}
