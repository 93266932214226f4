package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/tasknest/tasknest_backend/config"
	"github.com/tasknest/tasknest_backend/middleware"
	"github.com/tasknest/tasknest_backend/routes"
	"github.com/tasknest/tasknest_backend/services"
	"github.com/tasknest/tasknest_backend/utils"
	"github.com/tasknest/tasknest_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Initialize Firebase (push notifications)
	config.InitFirebase()

	// Connect to Redis (settings cache)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := client.Database(config.DBName())

	// Core services
	settlement := services.NewSettlementService(client, db)
	settings := services.NewSettingsService(db, redisClient)
	classifier := services.NewOpenRouterClassifierFromEnv()
	autopilot := services.NewAutopilotService(db, settlement, classifier)

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "TaskNest Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Expired blacklist entries are purged hourly
	go middleware.CleanupBlacklist()

	// Ensure upload directories exist before anything serves or writes proofs
	if err := utils.InitializeStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Routes
	routes.RegisterAuthRoutes(e, client)
	routes.RegisterAdminRoutes(e, client, settlement, settings, autopilot, wsHub)
	routes.RegisterMainRoutes(e, wsHub)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
