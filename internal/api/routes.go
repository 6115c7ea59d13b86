package api

import (
	"clipforge/media-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes wires middleware and handlers onto the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	allowedOrigins []string,
	authService service.AuthService,
	mediaService service.MediaService,
) {
	authHandler := NewAuthHandler(authService)
	mediaHandler := NewMediaHandler(mediaService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.Use(RequestIDMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr})
		})

		mediaGroup := protected.Group("/media")
		{
			// Upload gateway
			mediaGroup.POST("/images", mediaHandler.UploadImage)
			mediaGroup.POST("/videos", mediaHandler.UploadVideo)

			// Signed direct-upload authorization
			mediaGroup.POST("/signature", mediaHandler.CreateSignature)

			// Presentation contract
			mediaGroup.GET("/videos", mediaHandler.ListVideos)
			mediaGroup.GET("/presets", mediaHandler.GetPresets)
			mediaGroup.GET("/render", mediaHandler.RenderImage)
		}
	}
}
