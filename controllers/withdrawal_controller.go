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
	"github.com/tasknest/tasknest_backend/websocket"
)

// WithdrawalController reviews payout requests. The amount was debited when
// the request was created, so approval only flips status and rejection must
// refund in full.
type WithdrawalController struct {
	DB         *mongo.Client
	Settlement *services.SettlementService
	Hub        *websocket.Hub
}

// NewWithdrawalController creates a new withdrawal controller
func NewWithdrawalController(db *mongo.Client, settlement *services.SettlementService, hub *websocket.Hub) *WithdrawalController {
	return &WithdrawalController{DB: db, Settlement: settlement, Hub: hub}
}

// GetPendingWithdrawals lists pending withdrawals with the payout method
// details and the requesting user's display fields.
func (wc *WithdrawalController) GetPendingWithdrawals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(wc.DB, "withdrawals")
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"status": models.StatusPending}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending withdrawals",
		})
	}

	var withdrawals []models.Withdrawal
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode pending withdrawals",
		})
	}

	userIDs := make([]primitive.ObjectID, 0, len(withdrawals))
	for _, withdrawal := range withdrawals {
		userIDs = append(userIDs, withdrawal.UserID)
	}
	summaries := userSummaries(ctx, wc.DB, userIDs)

	enriched := make([]map[string]interface{}, 0, len(withdrawals))
	for _, withdrawal := range withdrawals {
		entry := map[string]interface{}{
			"withdrawal": withdrawal,
		}
		if summary, ok := summaries[withdrawal.UserID]; ok {
			entry["user"] = summary
		}
		enriched = append(enriched, entry)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending withdrawals retrieved",
		Data: map[string]interface{}{
			"count":       len(enriched),
			"withdrawals": enriched,
		},
	})
}

// ApproveWithdrawal marks the payout as sent
func (wc *WithdrawalController) ApproveWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	withdrawalID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := wc.Settlement.ApproveWithdrawal(ctx, withdrawalID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(wc.DB, wc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// RejectWithdrawal refunds the full amount to the user's balance
func (wc *WithdrawalController) RejectWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	withdrawalID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := wc.Settlement.RejectWithdrawal(ctx, withdrawalID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(wc.DB, wc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// BulkReviewWithdrawals settles a batch of withdrawals, one transaction each
func (wc *WithdrawalController) BulkReviewWithdrawals(approve bool) echo.HandlerFunc {
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

		settle := wc.Settlement.Routine(models.KindWithdrawal, approve, adminIDFromContext(c), req.AdminNote)
		summary := services.ApplyBulk(ctx, req.IDs, settle, func(result *services.SettlementResult) {
			afterSettlement(wc.DB, wc.Hub, result)
		})

		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Bulk review completed",
			Data:    summary,
		})
	}
}
