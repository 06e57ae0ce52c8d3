package frontend

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/geminichat/ai/render"
	"github.com/hrygo/geminichat/internal/profile"
	"github.com/hrygo/geminichat/internal/util"
)

// apiPrefixes are never served from the embedded UI.
var apiPrefixes = []string{"/api", "/metrics", "/healthz"}

type FrontendService struct {
	Profile *profile.Profile
}

func NewFrontendService(profile *profile.Profile) *FrontendService {
	return &FrontendService{
		Profile: profile,
	}
}

func (*FrontendService) Serve(_ context.Context, e *echo.Echo) {
	// Compress static assets only; API responses are small JSON.
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return util.HasPrefixes(c.Request().URL.Path, apiPrefixes...)
		},
	}))

	// Stylesheet for the highlighted code blocks in rendered turns.
	e.GET("/highlight.css", func(c echo.Context) error {
		css, err := render.CSS()
		if err != nil {
			slog.Error("failed to build highlight stylesheet", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError)
		}
		c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
		return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(css))
	})

	skipper := func(c echo.Context) bool {
		path := c.Request().URL.Path
		if util.HasPrefixes(path, apiPrefixes...) {
			return true
		}

		// Security: Prevent MIME type sniffing
		c.Response().Header().Set("X-Content-Type-Options", "nosniff")

		// index.html and SPA routes are never cached so a redeploy is picked up at once.
		ext := filepath.Ext(path)
		if ext == "" || path == "/index.html" {
			c.Response().Header().Set(echo.HeaderCacheControl, "no-cache, no-store, must-revalidate")
			c.Response().Header().Set("Pragma", "no-cache")
			c.Response().Header().Set("Expires", "0")
			return false
		}

		c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
		return false
	}

	// Route to serve the main app with HTML5 fallback for SPA behavior.
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Filesystem: getFileSystem("dist"),
		HTML5:      true,
		Skipper:    skipper,
	}))
}

func getFileSystem(path string) http.FileSystem {
	fs, err := fs.Sub(embeddedFiles, path)
	if err != nil {
		panic(err)
	}
	return http.FS(fs)
}
