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

// TaskController reviews task submissions and task listing requests
type TaskController struct {
	DB         *mongo.Client
	Settlement *services.SettlementService
	Hub        *websocket.Hub
}

// NewTaskController creates a new task controller
func NewTaskController(db *mongo.Client, settlement *services.SettlementService, hub *websocket.Hub) *TaskController {
	return &TaskController{DB: db, Settlement: settlement, Hub: hub}
}

// GetActiveTasks lists the currently published tasks
func (tc *TaskController) GetActiveTasks(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(tc.DB, "tasks")
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch tasks",
		})
	}

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode tasks",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Active tasks retrieved",
		Data: map[string]interface{}{
			"count": len(tasks),
			"tasks": tasks,
		},
	})
}

// GetPendingSubmissions lists pending task submissions enriched with the
// submitter's display fields and the task title the proof refers to.
func (tc *TaskController) GetPendingSubmissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(tc.DB, "taskSubmissions")
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"status": models.StatusPending}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending submissions",
		})
	}

	var submissions []models.TaskSubmission
	if err := cursor.All(ctx, &submissions); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode pending submissions",
		})
	}

	userIDs := make([]primitive.ObjectID, 0, len(submissions))
	taskIDs := make([]primitive.ObjectID, 0, len(submissions))
	for _, submission := range submissions {
		userIDs = append(userIDs, submission.UserID)
		taskIDs = append(taskIDs, submission.TaskID)
	}
	summaries := userSummaries(ctx, tc.DB, userIDs)

	taskTitles := make(map[primitive.ObjectID]string, len(taskIDs))
	if len(taskIDs) > 0 {
		taskCursor, err := config.GetCollection(tc.DB, "tasks").Find(ctx, bson.M{"_id": bson.M{"$in": taskIDs}})
		if err == nil {
			var tasks []models.Task
			if taskCursor.All(ctx, &tasks) == nil {
				for _, task := range tasks {
					taskTitles[task.ID] = task.Title
				}
			}
		}
	}

	enriched := make([]map[string]interface{}, 0, len(submissions))
	for _, submission := range submissions {
		entry := map[string]interface{}{
			"submission": submission,
		}
		if summary, ok := summaries[submission.UserID]; ok {
			entry["user"] = summary
		}
		if title, ok := taskTitles[submission.TaskID]; ok {
			entry["taskTitle"] = title
		}
		enriched = append(enriched, entry)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending task submissions retrieved",
		Data: map[string]interface{}{
			"count":       len(enriched),
			"submissions": enriched,
		},
	})
}

// ApproveSubmission pays the submitter net of the platform commission
func (tc *TaskController) ApproveSubmission(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	submissionID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid submission ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := tc.Settlement.ApproveTaskSubmission(ctx, submissionID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(tc.DB, tc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// RejectSubmission flips the submission to rejected
func (tc *TaskController) RejectSubmission(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	submissionID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid submission ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := tc.Settlement.RejectTaskSubmission(ctx, submissionID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(tc.DB, tc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// BulkReviewSubmissions settles a batch of task submissions
func (tc *TaskController) BulkReviewSubmissions(approve bool) echo.HandlerFunc {
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

		settle := tc.Settlement.Routine(models.KindTaskSubmission, approve, adminIDFromContext(c), req.AdminNote)
		summary := services.ApplyBulk(ctx, req.IDs, settle, func(result *services.SettlementResult) {
			afterSettlement(tc.DB, tc.Hub, result)
		})

		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Bulk review completed",
			Data:    summary,
		})
	}
}

// GetPendingTaskRequests lists pending listing requests enriched with the
// creator's display fields, including the balance the approval will debit.
func (tc *TaskController) GetPendingTaskRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(tc.DB, "taskRequests")
	opts := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{"status": models.StatusPending}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending task requests",
		})
	}

	var requests []models.TaskRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode pending task requests",
		})
	}

	creatorIDs := make([]primitive.ObjectID, 0, len(requests))
	for _, request := range requests {
		creatorIDs = append(creatorIDs, request.CreatorID)
	}
	summaries := userSummaries(ctx, tc.DB, creatorIDs)

	enriched := make([]map[string]interface{}, 0, len(requests))
	for _, request := range requests {
		entry := map[string]interface{}{
			"taskRequest": request,
		}
		if summary, ok := summaries[request.CreatorID]; ok {
			entry["creator"] = summary
		}
		enriched = append(enriched, entry)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending task requests retrieved",
		Data: map[string]interface{}{
			"count":        len(enriched),
			"taskRequests": enriched,
		},
	})
}

// ApproveTaskRequest debits reward + listing fee and publishes the task
func (tc *TaskController) ApproveTaskRequest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	requestID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid task request ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := tc.Settlement.ApproveTaskRequest(ctx, requestID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(tc.DB, tc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// RejectTaskRequest flips the listing request to rejected
func (tc *TaskController) RejectTaskRequest(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	requestID, err := parseObjectID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid task request ID",
		})
	}

	var req models.ReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	result, err := tc.Settlement.RejectTaskRequest(ctx, requestID, adminIDFromContext(c), req.AdminNote)
	if err == nil {
		afterSettlement(tc.DB, tc.Hub, result)
	}
	return respondSettlement(c, result, err)
}

// BulkReviewTaskRequests settles a batch of listing requests. Creators with
// insufficient balance fail individually without blocking the rest.
func (tc *TaskController) BulkReviewTaskRequests(approve bool) echo.HandlerFunc {
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

		settle := tc.Settlement.Routine(models.KindTaskRequest, approve, adminIDFromContext(c), req.AdminNote)
		summary := services.ApplyBulk(ctx, req.IDs, settle, func(result *services.SettlementResult) {
			afterSettlement(tc.DB, tc.Hub, result)
		})

		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Bulk review completed",
			Data:    summary,
		})
	}
}
