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

// ReferralController reviews pending referral bonuses
type ReferralController struct {
	DB         *mongo.Client
	Settlement *services.SettlementService
	Hub        *websocket.Hub
}

// NewReferralController creates a new referral controller
func NewReferralController(db *mongo.Client, settlement *services.SettlementService, hub *websocket.Hub) *ReferralController {
	return &ReferralController{DB: db, Settlement: settlement, Hub: hub}
}

// GetPendingReferrals lists pending referral bonuses enriched with both the
// referrer's and the referred user's display fields. The referred user's
// paymentStatus is what the reviewer (and the autopilot) decides on.
func (rc *ReferralController) GetPendingReferrals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(rc.DB, "referrals")
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"status": models.StatusPending}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending referrals",
		})
	}

	var referrals []models.Referral
	if err := cursor.All(ctx, &referrals); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode pending referrals",
		})
	}

	userIDs := make([]primitive.ObjectID, 0, len(referrals)*2)
	for _, referral := range referrals {
		userIDs = append(userIDs, referral.ReferrerID, referral.ReferredID)
	}
	summaries := userSummaries(ctx, rc.DB, userIDs)

	enriched := make([]map[string]interface{}, 0, len(referrals))
	for _, referral := range referrals {
		entry := map[string]interface{}{
			"referral": referral,
		}
		if summary, ok := summaries[referral.ReferrerID]; ok {
			entry["referrer"] = summary
		}
		if summary, ok := summaries[referral.ReferredID]; ok {
			entry["referred"] = summary
		}
		enriched = append(enriched, entry)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending referrals retrieved",
		Data: map[string]interface{}{
			"count":     len(enriched),
			"referrals": enriched,
		},
	})
}

// ApproveReferral credits the bonus to the referrer
func (rc *ReferralController) ApproveReferral(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	referralID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid referral ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := rc.Settlement.ApproveReferral(ctx, referralID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(rc.DB, rc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// RejectReferral flips the bonus to rejected
func (rc *ReferralController) RejectReferral(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	referralID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid referral ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := rc.Settlement.RejectReferral(ctx, referralID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(rc.DB, rc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// BulkReviewReferrals settles a batch of referral bonuses
func (rc *ReferralController) BulkReviewReferrals(approve bool) echo.HandlerFunc {
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

		settle := rc.Settlement.Routine(models.KindReferral, approve, adminIDFromContext(c), req.AdminNote)
		summary := services.ApplyBulk(ctx, req.IDs, settle, func(result *services.SettlementResult) {
			afterSettlement(rc.DB, rc.Hub, result)
		})

		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Bulk review completed",
			Data:    summary,
		})
	}
}

// GetReferralQRCode renders a user's referral code as a QR code data URL,
// used by support staff to reissue invite material.
func (rc *ReferralController) GetReferralQRCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var user models.User
	err = config.GetCollection(rc.DB, "users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch user",
		})
	}

	// Backfill a referral code for accounts created before codes existed
	if user.ReferralCode == "" {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to generate referral code",
			})
		}
		_, err = config.GetCollection(rc.DB, "users").UpdateOne(ctx,
			bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"referralCode": code, "updatedAt": time.Now()}})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to save referral code",
			})
		}
		user.ReferralCode = code
	}

	qrCode, err := utils.GenerateQRCode(user.ReferralCode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral QR code generated",
		Data: map[string]string{
			"referralCode": user.ReferralCode,
			"qrCode":       qrCode,
		},
	})
}
