package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tasknest/tasknest_backend/controllers"
	"github.com/tasknest/tasknest_backend/middleware"
	"github.com/tasknest/tasknest_backend/services"
	"github.com/tasknest/tasknest_backend/websocket"
)

// RegisterAdminRoutes sets up the review console surface. Every route in
// here requires an admin JWT.
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Client, settlement *services.SettlementService, settings *services.SettingsService, autopilot *services.AutopilotService, hub *websocket.Hub) {
	depositController := controllers.NewDepositController(db, settlement, hub)
	withdrawalController := controllers.NewWithdrawalController(db, settlement, hub)
	referralController := controllers.NewReferralController(db, settlement, hub)
	taskController := controllers.NewTaskController(db, settlement, hub)
	boosterController := controllers.NewBoosterController(db, settlement, hub)
	adminController := controllers.NewAdminController(db, settings)
	autopilotController := controllers.NewAutopilotController(db, autopilot, hub)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireAdmin())

	// Dashboard, revenue audit feed, fee settings
	admin.GET("/dashboard", adminController.GetDashboard)
	admin.GET("/revenue", adminController.GetRevenueTransactions)
	admin.GET("/settings", adminController.GetSettings)
	admin.PUT("/settings", adminController.UpdateSettings)

	// Member lookup
	admin.GET("/users", adminController.GetUsers)
	admin.GET("/users/:id", adminController.GetUser)
	admin.GET("/users/:id/referral-qr", referralController.GetReferralQRCode)

	// Deposits
	admin.GET("/deposits/pending", depositController.GetPendingDeposits)
	admin.POST("/deposits/:id/approve", depositController.ApproveDeposit)
	admin.POST("/deposits/:id/reject", depositController.RejectDeposit)
	admin.POST("/deposits/bulk/approve", depositController.BulkReviewDeposits(true))
	admin.POST("/deposits/bulk/reject", depositController.BulkReviewDeposits(false))
	admin.GET("/deposits/:id/proof-thumbnail", depositController.GetProofThumbnail)
	admin.POST("/deposits/:id/proof", depositController.ReplaceProof)

	// Withdrawals
	admin.GET("/withdrawals/pending", withdrawalController.GetPendingWithdrawals)
	admin.POST("/withdrawals/:id/approve", withdrawalController.ApproveWithdrawal)
	admin.POST("/withdrawals/:id/reject", withdrawalController.RejectWithdrawal)
	admin.POST("/withdrawals/bulk/approve", withdrawalController.BulkReviewWithdrawals(true))
	admin.POST("/withdrawals/bulk/reject", withdrawalController.BulkReviewWithdrawals(false))

	// Referral bonuses
	admin.GET("/referrals/pending", referralController.GetPendingReferrals)
	admin.POST("/referrals/:id/approve", referralController.ApproveReferral)
	admin.POST("/referrals/:id/reject", referralController.RejectReferral)
	admin.POST("/referrals/bulk/approve", referralController.BulkReviewReferrals(true))
	admin.POST("/referrals/bulk/reject", referralController.BulkReviewReferrals(false))

	// Tasks and task submissions
	admin.GET("/tasks", taskController.GetActiveTasks)
	admin.GET("/task-submissions/pending", taskController.GetPendingSubmissions)
	admin.POST("/task-submissions/:id/approve", taskController.ApproveSubmission)
	admin.POST("/task-submissions/:id/reject", taskController.RejectSubmission)
	admin.POST("/task-submissions/bulk/approve", taskController.BulkReviewSubmissions(true))
	admin.POST("/task-submissions/bulk/reject", taskController.BulkReviewSubmissions(false))

	// Task listing requests
	admin.GET("/task-requests/pending", taskController.GetPendingTaskRequests)
	admin.POST("/task-requests/:id/approve", taskController.ApproveTaskRequest)
	admin.POST("/task-requests/:id/reject", taskController.RejectTaskRequest)
	admin.POST("/task-requests/bulk/approve", taskController.BulkReviewTaskRequests(true))
	admin.POST("/task-requests/bulk/reject", taskController.BulkReviewTaskRequests(false))

	// Booster catalog and purchase claims
	admin.POST("/boosters", boosterController.CreateBooster)
	admin.GET("/boosters", boosterController.GetBoosters)
	admin.PUT("/boosters/:id/deactivate", boosterController.DeactivateBooster)
	admin.GET("/booster-purchases/pending", boosterController.GetPendingPurchases)
	admin.POST("/booster-purchases/:id/approve", boosterController.ApprovePurchase)
	admin.POST("/booster-purchases/:id/reject", boosterController.RejectPurchase)
	admin.POST("/booster-purchases/bulk/approve", boosterController.BulkReviewPurchases(true))
	admin.POST("/booster-purchases/bulk/reject", boosterController.BulkReviewPurchases(false))

	// Autopilot
	admin.POST("/autopilot/referrals", autopilotController.RunReferralPass)
	admin.POST("/autopilot/task-submissions", autopilotController.RunTaskSubmissionPass)
	admin.GET("/autopilot/runs", autopilotController.GetRuns)
	admin.GET("/autopilot/runs/:runId", autopilotController.GetRun)
}
