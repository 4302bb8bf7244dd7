// internal/api/router.go
package api

import (
	"github.com/ginjaninja78/mcgen/internal/api/handlers"

	"github.com/gin-gonic/gin"
)

// MaxUploadMemory bounds the multipart memory of one request.
const MaxUploadMemory = 64 << 20

// NewRouter wires the memo endpoints.
func NewRouter(h *handlers.MemoHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = MaxUploadMemory

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/options", h.HandleOptions)
		apiV1.POST("/count", h.HandleCount)
		apiV1.POST("/generate", h.HandleGenerate)
		apiV1.POST("/generate/batch", h.HandleGenerateBatch)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "mcgen"})
	})

	return router
}
