package controllers

import (
	"context"
	"io"
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

// DepositController reviews externally paid deposit claims
type DepositController struct {
	DB         *mongo.Client
	Settlement *services.SettlementService
	Hub        *websocket.Hub
}

// NewDepositController creates a new deposit controller
func NewDepositController(db *mongo.Client, settlement *services.SettlementService, hub *websocket.Hub) *DepositController {
	return &DepositController{DB: db, Settlement: settlement, Hub: hub}
}

// GetPendingDeposits lists pending deposits enriched with the claimant's
// display fields, oldest first.
func (dc *DepositController) GetPendingDeposits(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(dc.DB, "deposits")
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"status": models.StatusPending}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending deposits",
		})
	}

	var deposits []models.Deposit
	if err := cursor.All(ctx, &deposits); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode pending deposits",
		})
	}

	userIDs := make([]primitive.ObjectID, 0, len(deposits))
	for _, deposit := range deposits {
		userIDs = append(userIDs, deposit.UserID)
	}
	summaries := userSummaries(ctx, dc.DB, userIDs)

	enriched := make([]map[string]interface{}, 0, len(deposits))
	for _, deposit := range deposits {
		entry := map[string]interface{}{
			"deposit": deposit,
		}
		if summary, ok := summaries[deposit.UserID]; ok {
			entry["user"] = summary
		}
		enriched = append(enriched, entry)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending deposits retrieved",
		Data: map[string]interface{}{
			"count":    len(enriched),
			"deposits": enriched,
		},
	})
}

// ApproveDeposit credits the net amount and records the deposit fee
func (dc *DepositController) ApproveDeposit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	depositID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid deposit ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := dc.Settlement.ApproveDeposit(ctx, depositID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(dc.DB, dc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// RejectDeposit flips the claim to rejected; no balance is touched
func (dc *DepositController) RejectDeposit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	depositID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid deposit ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := dc.Settlement.RejectDeposit(ctx, depositID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(dc.DB, dc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// BulkReviewDeposits settles a batch of deposits in one call. Each item is
// its own transaction; partial failure is reported per item.
func (dc *DepositController) BulkReviewDeposits(approve bool) echo.HandlerFunc {
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

		settle := dc.Settlement.Routine(models.KindDeposit, approve, adminIDFromContext(c), req.AdminNote)
		summary := services.ApplyBulk(ctx, req.IDs, settle, func(result *services.SettlementResult) {
			afterSettlement(dc.DB, dc.Hub, result)
		})

		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Bulk review completed",
			Data:    summary,
		})
	}
}

// ReplaceProof attaches a payment-proof screenshot supplied out-of-band
// (support ticket, email) to a still-pending deposit so it can be reviewed
// in the console.
func (dc *DepositController) ReplaceProof(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	depositID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid deposit ID",
		})
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Proof image file is required",
		})
	}
	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Failed to open uploaded file",
		})
	}
	defer src.Close()

	fileData, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read uploaded file",
		})
	}

	proofURL, err := utils.UploadProofImage(fileData, fileHeader.Filename)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	// settled deposits keep the proof they were reviewed against
	res, err := config.GetCollection(dc.DB, "deposits").UpdateOne(ctx,
		bson.M{"_id": depositID, "status": models.StatusPending},
		bson.M{"$set": bson.M{"proofImage": proofURL, "updatedAt": time.Now()}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update deposit",
		})
	}
	if res.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Pending deposit not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Proof image updated",
		Data: map[string]string{
			"proofImage": proofURL,
		},
	})
}

// GetProofThumbnail renders (or re-renders) the review thumbnail for a
// deposit's payment proof screenshot.
func (dc *DepositController) GetProofThumbnail(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	depositID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid deposit ID",
		})
	}

	var deposit models.Deposit
	err = config.GetCollection(dc.DB, "deposits").FindOne(ctx, bson.M{"_id": depositID}).Decode(&deposit)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Deposit not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch deposit",
		})
	}

	if deposit.ProofImage == "" {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Deposit has no proof image",
		})
	}

	thumbnailURL, err := utils.GenerateProofThumbnail(deposit.ProofImage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate thumbnail",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Thumbnail generated",
		Data: map[string]string{
			"proofImage": deposit.ProofImage,
			"thumbnail":  thumbnailURL,
		},
	})
}
