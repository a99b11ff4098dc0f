package routes

import (
	"taskmarket_backend/internal/auth"
	"taskmarket_backend/internal/handlers"
	"taskmarket_backend/internal/middleware"
	"taskmarket_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all HTTP routes under /api/v1. Three tiers:
// public (no token), protected (any authenticated user) and admin.
func RegisterRoutes(router *gin.Engine, appHandlers *handlers.AppHandlers, issuer *auth.TokenIssuer) {
	api := router.Group("/api/v1")

	public := api.Group("")

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(issuer))

	admin := api.Group("")
	admin.Use(middleware.AuthMiddleware(issuer), middleware.RoleMiddleware(models.UserRoleAdmin))

	appHandlers.AuthHandler.RegisterRoutes(public, protected)
	appHandlers.UserHandler.RegisterRoutes(public, protected, admin)
	appHandlers.TaskHandler.RegisterRoutes(public, protected, admin)
	appHandlers.ApplicationHandler.RegisterRoutes(protected)
	appHandlers.ReviewHandler.RegisterRoutes(public, protected)
	appHandlers.MessageHandler.RegisterRoutes(protected)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
