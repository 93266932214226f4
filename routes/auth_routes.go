package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tasknest/tasknest_backend/controllers"
	"github.com/tasknest/tasknest_backend/middleware"
)

// RegisterAuthRoutes sets up authentication and session routes
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Client) {
	authController := controllers.NewAuthController(db)
	notificationController := controllers.NewNotificationController(db)

	auth := e.Group("/api/auth")
	auth.POST("/login", authController.Login)
	auth.GET("/validate", authController.ValidateSession)

	protected := auth.Group("")
	protected.Use(middleware.JWTMiddleware())
	protected.POST("/logout", authController.Logout)
	protected.PUT("/fcm-token", authController.UpdateFCMToken)

	// In-app notifications for the authenticated account
	notifications := e.Group("/api/notifications")
	notifications.Use(middleware.JWTMiddleware())
	notifications.GET("", notificationController.GetNotifications)
	notifications.PUT("/:id/read", notificationController.MarkRead)
	notifications.PUT("/read-all", notificationController.MarkAllRead)
}
