package controllers

import (
	"context"
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
)

// AdminController serves the console dashboard, the revenue audit feed, the
// fee-rate settings and user lookup.
type AdminController struct {
	DB       *mongo.Client
	Settings *services.SettingsService
}

// NewAdminController creates a new admin controller
func NewAdminController(db *mongo.Client, settings *services.SettingsService) *AdminController {
	return &AdminController{DB: db, Settings: settings}
}

// pendingCollections maps dashboard labels to request collections
var pendingCollections = map[string]string{
	"deposits":         "deposits",
	"withdrawals":      "withdrawals",
	"referrals":        "referrals",
	"taskSubmissions":  "taskSubmissions",
	"taskRequests":     "taskRequests",
	"boosterPurchases": "boosterPurchases",
}

// GetDashboard returns pending counts per category plus revenue totals
// grouped by transaction type.
func (ac *AdminController) GetDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pending := make(map[string]int64, len(pendingCollections))
	for label, collection := range pendingCollections {
		count, err := config.GetCollection(ac.DB, collection).CountDocuments(ctx, bson.M{"status": models.StatusPending})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to count pending " + label,
			})
		}
		pending[label] = count
	}

	// Revenue totals by type, all-time and since midnight
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$transactionType",
			"total": bson.M{"$sum": "$adminFeeAmount"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := config.GetCollection(ac.DB, "revenue_transactions").Aggregate(ctx, pipeline)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to aggregate revenue",
		})
	}
	var revenueByType []bson.M
	if err := cursor.All(ctx, &revenueByType); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode revenue aggregation",
		})
	}

	midnight := startOfDay(time.Now())
	todayPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": midnight}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$adminFeeAmount"},
		}}},
	}
	todayCursor, err := config.GetCollection(ac.DB, "revenue_transactions").Aggregate(ctx, todayPipeline)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to aggregate today's revenue",
		})
	}
	var todayRows []bson.M
	if err := todayCursor.All(ctx, &todayRows); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode today's revenue",
		})
	}
	var revenueToday interface{} = 0.0
	if len(todayRows) > 0 {
		revenueToday = todayRows[0]["total"]
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard retrieved",
		Data: map[string]interface{}{
			"pending":       pending,
			"revenueByType": revenueByType,
			"revenueToday":  revenueToday,
		},
	})
}

// GetRevenueTransactions returns the immutable revenue feed, newest first,
// optionally filtered by transaction type, paginated with page/limit.
func (ac *AdminController) GetRevenueTransactions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if txType := c.QueryParam("type"); txType != "" {
		filter["transactionType"] = txType
	}

	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	collection := config.GetCollection(ac.DB, "revenue_transactions")
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count revenue transactions",
		})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch revenue transactions",
		})
	}

	var transactions []models.RevenueTransaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode revenue transactions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Revenue transactions retrieved",
		Data: map[string]interface{}{
			"total":        total,
			"page":         page,
			"limit":        limit,
			"transactions": transactions,
		},
	})
}

// GetSettings returns the current fee rates (cached read path)
func (ac *AdminController) GetSettings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	settings, err := ac.Settings.GetSettings(ctx)
	if err != nil {
		if err == services.ErrSettingsMissing {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Platform settings are not configured",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch settings",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Settings retrieved",
		Data:    settings,
	})
}

// UpdateSettings applies a fee-rate edit. In-flight settlements are not
// affected; each settlement reads the rates inside its own transaction.
func (ac *AdminController) UpdateSettings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.SettingsUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Fee percentages must be between 0 and 100 and the listing fee non-negative",
		})
	}

	settings, err := ac.Settings.UpdateSettings(ctx, &req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update settings",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Settings updated",
		Data:    settings,
	})
}

// GetUsers searches platform members by name or email for support lookups
func (ac *AdminController) GetUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if search := c.QueryParam("search"); search != "" {
		filter["$or"] = []bson.M{
			{"fullName": bson.M{"$regex": search, "$options": "i"}},
			{"email": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	collection := config.GetCollection(ac.DB, "users")
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to count users",
		})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch users",
		})
	}

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode users",
		})
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Users retrieved",
		Data: map[string]interface{}{
			"total": total,
			"page":  page,
			"limit": limit,
			"users": summaries,
		},
	})
}

// GetUser returns one member's full record for the support view
func (ac *AdminController) GetUser(c echo.Context) error {
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
	err = config.GetCollection(ac.DB, "users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
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

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User retrieved",
		Data:    user,
	})
}
