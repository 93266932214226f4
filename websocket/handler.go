package websocket

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/tasknest/tasknest_backend/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket handles the WebSocket connection
func HandleWebSocket(c echo.Context, hub *Hub, userID primitive.ObjectID, userType string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	// Create client with potentially nil userID (will be set after authentication)
	client := &Client{
		UserID:        userID,
		UserType:      userType,
		Conn:          conn,
		Authenticated: userID != primitive.NilObjectID,
	}

	hub.register <- client

	// Send a welcome message
	if client.Authenticated {
		conn.WriteJSON(Event{
			Type:    "connected",
			Message: "WebSocket connection established",
			UserID:  userID.Hex(),
		})
	} else {
		conn.WriteJSON(Event{
			Type:         "connected",
			Message:      "WebSocket connection established. Please authenticate to receive events.",
			RequiresAuth: true,
		})
	}

	// Handle disconnection
	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				break
			}

			// Handle authentication message (format: "AUTH:token_here")
			if messageType == websocket.TextMessage {
				messageStr := string(message)
				if strings.HasPrefix(messageStr, "AUTH:") {
					tokenString := strings.TrimPrefix(messageStr, "AUTH:")
					claimedID, claimedType, err := parseClaims(tokenString)
					if err != nil {
						conn.WriteJSON(Event{
							Type:         "auth_response",
							Message:      "Authentication failed: " + err.Error(),
							RequiresAuth: true,
						})
						continue
					}

					hub.AuthenticateClient(client, claimedID, claimedType)
					conn.WriteJSON(Event{
						Type:    "auth_response",
						Message: "Authenticated",
						UserID:  claimedID.Hex(),
					})
					continue
				}
			}
		}
	}()

	return nil
}

func parseClaims(tokenString string) (primitive.ObjectID, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &middleware.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(middleware.GetJWTSecret()), nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(*middleware.JwtCustomClaims)
	if !ok {
		return primitive.NilObjectID, "", errors.New("invalid token claims")
	}
	if middleware.IsTokenBlacklisted(tokenString) {
		return primitive.NilObjectID, "", errors.New("token has been invalidated")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, "", errors.New("invalid user id in token")
	}
	return userID, claims.UserType, nil
}
