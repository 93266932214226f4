package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tasknest/tasknest_backend/config"
	"github.com/tasknest/tasknest_backend/models"
	"github.com/tasknest/tasknest_backend/services"
	"github.com/tasknest/tasknest_backend/utils"
	"github.com/tasknest/tasknest_backend/websocket"
)

// BoosterController manages the booster catalog and reviews purchase claims
type BoosterController struct {
	DB         *mongo.Client
	Settlement *services.SettlementService
	Hub        *websocket.Hub
}

// NewBoosterController creates a new booster controller
func NewBoosterController(db *mongo.Client, settlement *services.SettlementService, hub *websocket.Hub) *BoosterController {
	return &BoosterController{DB: db, Settlement: settlement, Hub: hub}
}

// CreateBooster adds a booster to the catalog
func (bc *BoosterController) CreateBooster(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.BoosterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Name, description and a positive price are required",
		})
	}

	adminID := adminIDFromContext(c)
	if adminID == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	booster := models.Booster{
		ID:               primitive.NewObjectID(),
		Name:             utils.SanitizeInput(req.Name),
		Description:      utils.SanitizeInput(req.Description),
		Price:            req.Price,
		ActivatesAccount: req.ActivatesAccount,
		PointsGranted:    req.PointsGranted,
		IsActive:         true,
		CreatedBy:        *adminID,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if _, err := config.GetCollection(bc.DB, "boosters").InsertOne(ctx, booster); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create booster",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Booster created",
		Data:    booster,
	})
}

// GetBoosters lists the booster catalog, active entries first
func (bc *BoosterController) GetBoosters(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "isActive", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := config.GetCollection(bc.DB, "boosters").Find(ctx, bson.M{}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch boosters",
		})
	}

	var boosters []models.Booster
	if err := cursor.All(ctx, &boosters); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode boosters",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Boosters retrieved",
		Data: map[string]interface{}{
			"count":    len(boosters),
			"boosters": boosters,
		},
	})
}

// DeactivateBooster removes a booster from sale without touching past purchases
func (bc *BoosterController) DeactivateBooster(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	boosterID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid booster ID",
		})
	}

	result, err := config.GetCollection(bc.DB, "boosters").UpdateOne(ctx,
		bson.M{"_id": boosterID},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to deactivate booster",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Booster not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Booster deactivated",
	})
}

// GetPendingPurchases lists pending booster purchases enriched with the
// buyer's display fields and the booster's catalog entry.
func (bc *BoosterController) GetPendingPurchases(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(bc.DB, "boosterPurchases")
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"status": models.StatusPending}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending purchases",
		})
	}

	var purchases []models.BoosterPurchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode pending purchases",
		})
	}

	userIDs := make([]primitive.ObjectID, 0, len(purchases))
	boosterIDs := make([]primitive.ObjectID, 0, len(purchases))
	for _, purchase := range purchases {
		userIDs = append(userIDs, purchase.UserID)
		boosterIDs = append(boosterIDs, purchase.BoosterID)
	}
	summaries := userSummaries(ctx, bc.DB, userIDs)

	boosters := make(map[primitive.ObjectID]models.Booster, len(boosterIDs))
	if len(boosterIDs) > 0 {
		boosterCursor, err := config.GetCollection(bc.DB, "boosters").Find(ctx, bson.M{"_id": bson.M{"$in": boosterIDs}})
		if err == nil {
			var catalog []models.Booster
			if boosterCursor.All(ctx, &catalog) == nil {
				for _, booster := range catalog {
					boosters[booster.ID] = booster
				}
			}
		}
	}

	enriched := make([]map[string]interface{}, 0, len(purchases))
	for _, purchase := range purchases {
		entry := map[string]interface{}{
			"purchase": purchase,
		}
		if summary, ok := summaries[purchase.UserID]; ok {
			entry["user"] = summary
		}
		if booster, ok := boosters[purchase.BoosterID]; ok {
			entry["booster"] = booster
		}
		enriched = append(enriched, entry)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending booster purchases retrieved",
		Data: map[string]interface{}{
			"count":     len(enriched),
			"purchases": enriched,
		},
	})
}

// ApprovePurchase applies the booster's benefits and records the revenue
func (bc *BoosterController) ApprovePurchase(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	purchaseID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid purchase ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := bc.Settlement.ApproveBoosterPurchase(ctx, purchaseID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(bc.DB, bc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// RejectPurchase flips the claim to rejected; no benefits are applied
func (bc *BoosterController) RejectPurchase(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	purchaseID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid purchase ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := bc.Settlement.RejectBoosterPurchase(ctx, purchaseID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(bc.DB, bc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// BulkReviewPurchases settles a batch of booster purchases
func (bc *BoosterController) BulkReviewPurchases(approve bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		var req models.BulkReviewRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid request body",
			})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "At least one id is required",
			})
		}

		settle := bc.Settlement.Routine(models.KindBoosterPurchase, approve, adminIDFromContext(c), req.AdminNote)
		summary := services.ApplyBulk(ctx, req.IDs, settle, func(result *services.SettlementResult) {
			afterSettlement(bc.DB, bc.Hub, result)
		})

		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Bulk review completed",
			Data:    summary,
		})
	}
}
