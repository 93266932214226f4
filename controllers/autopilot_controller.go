package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tasknest/tasknest_backend/config"
	"github.com/tasknest/tasknest_backend/models"
	"github.com/tasknest/tasknest_backend/services"
	"github.com/tasknest/tasknest_backend/websocket"
)

// AutopilotController triggers automated review passes and serves the run
// audit history.
type AutopilotController struct {
	DB        *mongo.Client
	Autopilot *services.AutopilotService
	Hub       *websocket.Hub
}

// NewAutopilotController creates a new autopilot controller
func NewAutopilotController(db *mongo.Client, autopilot *services.AutopilotService, hub *websocket.Hub) *AutopilotController {
	return &AutopilotController{DB: db, Autopilot: autopilot, Hub: hub}
}

// RunReferralPass reviews all pending referral bonuses in one pass.
// Classifier calls are slow, so the pass gets a generous deadline.
func (apc *AutopilotController) RunReferralPass(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	run, err := apc.Autopilot.RunReferralPass(ctx)
	if err != nil {
		log.Printf("Autopilot referral pass failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Autopilot referral pass failed",
		})
	}

	if apc.Hub != nil {
		apc.Hub.NotifyAutopilotRun(run)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Autopilot referral pass completed",
		Data:    run,
	})
}

// RunTaskSubmissionPass reviews all pending task submissions in one pass
func (apc *AutopilotController) RunTaskSubmissionPass(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	run, err := apc.Autopilot.RunTaskSubmissionPass(ctx)
	if err != nil {
		log.Printf("Autopilot task submission pass failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Autopilot task submission pass failed",
		})
	}

	if apc.Hub != nil {
		apc.Hub.NotifyAutopilotRun(run)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Autopilot task submission pass completed",
		Data:    run,
	})
}

// GetRuns lists past autopilot runs, newest first
func (apc *AutopilotController) GetRuns(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if category := c.QueryParam("category"); category != "" {
		filter["category"] = category
	}

	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{"decisions": 0}) // decision rows only on the detail view
	cursor, err := config.GetCollection(apc.DB, "autopilot_runs").Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch autopilot runs",
		})
	}

	var runs []models.AutopilotRun
	if err := cursor.All(ctx, &runs); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode autopilot runs",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Autopilot runs retrieved",
		Data: map[string]interface{}{
			"count": len(runs),
			"runs":  runs,
		},
	})
}

// GetRun returns one run with its full per-decision audit rows
func (apc *AutopilotController) GetRun(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runID := c.Param("runId")
	if runID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Run ID is required",
		})
	}

	var run models.AutopilotRun
	err := config.GetCollection(apc.DB, "autopilot_runs").FindOne(ctx, bson.M{"runId": runID}).Decode(&run)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Autopilot run not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch autopilot run",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Autopilot run retrieved",
		Data:    run,
	})
}
