package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tasknest/tasknest_backend/config"
	"github.com/tasknest/tasknest_backend/models"
	"github.com/tasknest/tasknest_backend/services"
	"github.com/tasknest/tasknest_backend/utils"
	"github.com/tasknest/tasknest_backend/websocket"
)

// adminIDFromContext resolves the reviewing admin's id from the JWT so the
// settlement can stamp who processed the request.
func adminIDFromContext(c echo.Context) *primitive.ObjectID {
	id, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return nil
	}
	return &id
}

// respondSettlement maps the settlement error taxonomy onto HTTP statuses
// and wraps a committed result in the standard envelope.
func respondSettlement(c echo.Context, result *services.SettlementResult, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Request " + result.Action,
			Data:    result,
		})
	}

	var insufficient *services.InsufficientBalanceError
	switch {
	case errors.Is(err, services.ErrRequestNotFound), errors.Is(err, services.ErrBoosterNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, services.ErrAlreadySettled):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Request is already processed",
		})
	case errors.Is(err, services.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User record for this request no longer exists",
		})
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusUnprocessableEntity, models.Response{
			Status:  http.StatusUnprocessableEntity,
			Message: insufficient.Error(),
			Data: map[string]interface{}{
				"required":  insufficient.Required,
				"available": insufficient.Available,
				"shortfall": insufficient.Shortfall(),
			},
		})
	case errors.Is(err, services.ErrSettingsMissing):
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Platform settings are not configured",
		})
	case errors.Is(err, services.ErrAborted):
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Settlement aborted under contention, please retry",
		})
	default:
		log.Printf("Settlement failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process request",
		})
	}
}

// afterSettlement runs the non-transactional side effects of a committed
// settlement: the console event feed and the user-facing notifications.
// None of them can fail the settlement, which has already committed.
func afterSettlement(db *mongo.Client, hub *websocket.Hub, result *services.SettlementResult) {
	if result == nil {
		return
	}
	if hub != nil {
		hub.NotifySettlement(result)
		if err := hub.NotifyUser(result.UserID, "Your request has been processed", result); err == nil {
			log.Printf("Settlement event delivered to user %s over websocket", result.UserID.Hex())
		}
	}

	go func() {
		amount := result.Net
		if amount == 0 {
			amount = result.Amount
		}
		utils.NotifySettlement(db, result.UserID, result.Kind, result.Action, amount)

		// Money-movement outcomes also go out by email
		if result.Kind == models.KindDeposit || result.Kind == models.KindWithdrawal {
			if err := utils.SendSettlementEmail(db, result.UserID, result.Kind, result.Action, amount); err != nil {
				log.Printf("Settlement email for %s failed: %v", result.RequestID.Hex(), err)
			}
		}
	}()
}

// userSummaries point-reads the display projection for a set of user ids,
// used to enrich pending-request listings.
func userSummaries(ctx context.Context, db *mongo.Client, ids []primitive.ObjectID) map[primitive.ObjectID]models.UserSummary {
	summaries := make(map[primitive.ObjectID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return summaries
	}

	collection := config.GetCollection(db, "users")
	cursor, err := collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		log.Printf("Failed to load user summaries: %v", err)
		return summaries
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		log.Printf("Failed to decode user summaries: %v", err)
		return summaries
	}
	for i := range users {
		summaries[users[i].ID] = users[i].Summary()
	}
	return summaries
}

// parseObjectID parses a path parameter into an ObjectID
func parseObjectID(c echo.Context, name string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.Param(name))
}

// startOfDay returns midnight preceding t in t's own location. Truncate
// rounds in UTC and would shift "today" for non-UTC deployments.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
