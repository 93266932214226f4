package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tasknest/tasknest_backend/utils"
	"github.com/tasknest/tasknest_backend/websocket"
)

// RegisterMainRoutes wires the websocket feed and the uploaded-file server
func RegisterMainRoutes(e *echo.Echo, hub *websocket.Hub) {
	// Consoles connect unauthenticated and upgrade with an AUTH message
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(c, hub, primitive.NilObjectID, "")
	})

	// Proof images and generated thumbnails
	e.GET("/uploads/*", echo.WrapHandler(http.HandlerFunc(utils.ServeFiles)))
}
