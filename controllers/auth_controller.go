package controllers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasknest/tasknest_backend/config"
	"github.com/tasknest/tasknest_backend/middleware"
	"github.com/tasknest/tasknest_backend/models"
	"github.com/tasknest/tasknest_backend/repositories"
	"github.com/tasknest/tasknest_backend/utils"
)

// AuthController handles console authentication
type AuthController struct {
	DB    *mongo.Client
	users *repositories.UserRepository

	loginAttemptsMu sync.RWMutex
	loginAttempts   map[string]loginAttempt
}

type loginAttempt struct {
	count       int
	lastAttempt time.Time
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client) *AuthController {
	return &AuthController{
		DB:            db,
		users:         repositories.NewUserRepository(db),
		loginAttempts: make(map[string]loginAttempt),
	}
}

// Login authenticates a staff member and issues a JWT
func (ac *AuthController) Login(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(ac.DB, "users")

	// Parse request body
	var loginReq models.LoginRequest
	if err := c.Bind(&loginReq); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&loginReq); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}

	email, err := utils.SanitizeEmail(loginReq.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	ac.loginAttemptsMu.RLock()
	attempts, exists := ac.loginAttempts[email]
	ac.loginAttemptsMu.RUnlock()

	if exists && attempts.count >= 5 && time.Since(attempts.lastAttempt) < 30*time.Minute {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many failed login attempts. Please try again later.",
		})
	}

	// Find user by email
	var user models.User
	err = collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid credentials",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find user",
		})
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginReq.Password)); err != nil {
		ac.loginAttemptsMu.Lock()
		ac.loginAttempts[email] = loginAttempt{count: attempts.count + 1, lastAttempt: time.Now()}
		ac.loginAttemptsMu.Unlock()

		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid credentials",
		})
	}

	ac.loginAttemptsMu.Lock()
	delete(ac.loginAttempts, email)
	ac.loginAttemptsMu.Unlock()

	// Generate JWT token
	token, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.UserType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginData{
			Token:    token,
			UserID:   user.ID.Hex(),
			FullName: user.FullName,
			UserType: user.UserType,
		},
	})
}

// Logout blacklists the presented token until its natural expiry
func (ac *AuthController) Logout(c echo.Context) error {
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No token provided",
		})
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	expiry := time.Now().Add(72 * time.Hour)
	if user, ok := c.Get("user").(*jwt.Token); ok {
		if claims, ok := user.Claims.(*middleware.JwtCustomClaims); ok && claims.ExpiresAt > 0 {
			expiry = time.Unix(claims.ExpiresAt, 0)
		}
	}
	middleware.BlacklistToken(tokenString, expiry)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

// ValidateSession lets the console frontend check token validity
func (ac *AuthController) ValidateSession(c echo.Context) error {
	result, err := utils.ValidateTokenFromHeader(c.Request().Header.Get("Authorization"), ac.DB)
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to validate session",
		})
	}

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnauthorized
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: result.Message,
		Data:    result,
	})
}

// UpdateFCMToken registers the caller's device token for push notifications
func (ac *AuthController) UpdateFCMToken(c echo.Context) error {
	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var req struct {
		FCMToken string `json:"fcmToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "fcmToken is required",
		})
	}

	if err := ac.users.UpdateFCMToken(userID, req.FCMToken); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update FCM token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "FCM token updated",
	})
}
