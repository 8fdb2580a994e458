package api

import (
	"github.com/gin-gonic/gin"
	"github.com/xelochat/widget-engine/internal/api/middleware"
	"github.com/xelochat/widget-engine/internal/api/preview"
	"github.com/xelochat/widget-engine/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router for the preview server
func SetupRouter(previews *service.PreviewService, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	previewHandler := preview.NewHandler(previews)
	previewGroup := r.Group("/api/preview")
	previewGroup.Use(middleware.Auth(cfg.APIKey))
	previewHandler.RegisterRoutes(previewGroup)

	return r
}
