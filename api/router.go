package api

import (
	"net/http"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/yourusername/cyberstream-go/api/handlers"
	"github.com/yourusername/cyberstream-go/api/middleware"
	"github.com/yourusername/cyberstream-go/internal/app"
	"github.com/yourusername/cyberstream-go/internal/domain"
)

// Dependencies are the components the router serves
type Dependencies struct {
	Fetcher    *app.MetadataFetcher
	Proxy      *app.StreamProxy
	Capability domain.Capability
	Server     domain.ServerConfig
	StaticFS   afero.Fs // frontend files, rooted at server.static_dir
	Version    string
	Logger     *zap.Logger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps Dependencies) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.CORS(deps.Server.AllowedOrigins))

	healthHandler := handlers.NewHealthHandler(deps.Version, deps.Capability)
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api")
	{
		infoHandler := handlers.NewInfoHandler(deps.Fetcher, deps.Logger)
		api.POST("/info", infoHandler.GetInfo)

		downloadHandler := handlers.NewDownloadHandler(deps.Proxy, deps.Logger)
		api.GET("/download", downloadHandler.Download)
	}

	router.GET("/", func(c *gin.Context) {
		serveFile(c, deps.StaticFS, "index.html")
	})

	router.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path

		if strings.HasPrefix(p, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}

		// Clean rejects ../ escapes before the filesystem sees the path
		filePath := strings.TrimPrefix(path.Clean("/"+p), "/")
		if filePath == "" {
			serveFile(c, deps.StaticFS, "index.html")
			return
		}

		if isDir, err := afero.IsDir(deps.StaticFS, filePath); err == nil && isDir {
			filePath = path.Join(filePath, "index.html")
		}
		serveFile(c, deps.StaticFS, filePath)
	})

	return router
}

// serveFile serves a file from the static filesystem with proper content type
func serveFile(c *gin.Context, staticFS afero.Fs, filePath string) {
	if staticFS == nil {
		c.String(http.StatusNotFound, "File not found")
		return
	}

	content, err := afero.ReadFile(staticFS, filePath)
	if err != nil {
		c.String(http.StatusNotFound, "File not found")
		return
	}

	c.Data(http.StatusOK, contentTypeFor(filePath, content), content)
}

// contentTypeFor maps common frontend extensions and sniffs the rest
func contentTypeFor(filePath string, content []byte) string {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	return mimetype.Detect(content).String()
}
