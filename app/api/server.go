package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// NewServer creates the HTTP server with all routes configured. Mutating
// endpoints require the API access key when one is set.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	r.GET("/feeds", handler.ListFeeds)
	r.GET("/feeds/details", handler.GetFeedDetail)

	mutating := r.Group("/")
	if apiAccessKey != "" {
		mutating.Use(authMiddleware(apiAccessKey))
	}
	{
		mutating.POST("/feeds", handler.Subscribe)
		mutating.DELETE("/feeds", handler.Unsubscribe)
		mutating.POST("/feeds/refresh", handler.RefreshFeed)
		mutating.POST("/feeds/cancel", handler.CancelRefresh)
		mutating.POST("/feeds/download", handler.StartDownloads)
		mutating.POST("/feeds/stop", handler.StopDownload)
		mutating.POST("/items/skip", handler.SkipItem)
		mutating.POST("/items/delete", handler.DeleteItemDownload)
		mutating.POST("/import/opml", handler.ImportOPML)
	}

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return r
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")
		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			return
		}
		if providedKey != apiAccessKey {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid API key"})
			return
		}
		c.Next()
	}
}
