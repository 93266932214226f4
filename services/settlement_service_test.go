package services

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tasknest/tasknest_backend/models"
)

// newSettlementFixture connects to the MongoDB replica set named by
// MONGO_TEST_URI and hands back an engine over a throwaway database.
// Multi-document transactions need a replica set, so these tests skip when
// no fixture is configured.
func newSettlementFixture(t *testing.T) (*SettlementService, *mongo.Database, context.Context) {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { client.Disconnect(context.Background()) })
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database(fmt.Sprintf("tasknest_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() { db.Drop(context.Background()) })

	return NewSettlementService(client, db), db, ctx
}

func seedSettings(t *testing.T, ctx context.Context, db *mongo.Database, depositFee, listingFee, commission float64) {
	t.Helper()
	_, err := db.Collection("settings").InsertOne(ctx, models.Settings{
		ID:                    models.SettingsDocID,
		DepositFeePercent:     depositFee,
		TaskListingFee:        listingFee,
		TaskCommissionPercent: commission,
		UpdatedAt:             time.Now(),
	})
	require.NoError(t, err)
}

func seedUser(t *testing.T, ctx context.Context, db *mongo.Database, balance float64) primitive.ObjectID {
	t.Helper()
	id := primitive.NewObjectID()
	_, err := db.Collection("users").InsertOne(ctx, models.User{
		ID:            id,
		FullName:      "Test Member",
		Email:         fmt.Sprintf("%s@example.com", id.Hex()),
		UserType:      "user",
		Balance:       balance,
		PaymentStatus: models.PaymentStatusVerified,
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
	return id
}

func loadBalance(t *testing.T, ctx context.Context, db *mongo.Database, userID primitive.ObjectID) float64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user))
	return user.Balance
}

func TestApproveDepositSplitsFee(t *testing.T) {
	engine, db, ctx := newSettlementFixture(t)
	seedSettings(t, ctx, db, 5, 20, 10)
	userID := seedUser(t, ctx, db, 0)

	depositID := primitive.NewObjectID()
	_, err := db.Collection("deposits").InsertOne(ctx, models.Deposit{
		ID:          depositID,
		UserID:      userID,
		Amount:      1000,
		Status:      models.StatusPending,
		RequestedAt: time.Now(),
	})
	require.NoError(t, err)

	result, err := engine.ApproveDeposit(ctx, depositID, nil, "verified against bank statement")
	require.NoError(t, err)
	assert.Equal(t, 950.0, result.Net)
	assert.Equal(t, 50.0, result.Fee)
	assert.Equal(t, 1000.0, result.Amount)

	assert.Equal(t, 950.0, loadBalance(t, ctx, db, userID))

	var deposit models.Deposit
	require.NoError(t, db.Collection("deposits").FindOne(ctx, bson.M{"_id": depositID}).Decode(&deposit))
	assert.Equal(t, models.StatusApproved, deposit.Status)
	assert.Equal(t, 950.0, deposit.NetCredited)
	assert.Equal(t, "verified against bank statement", deposit.AdminNote)
	require.NotNil(t, deposit.ProcessedAt)

	var revenue models.RevenueTransaction
	require.NoError(t, db.Collection("revenue_transactions").FindOne(ctx, bson.M{"relatedDocId": depositID}).Decode(&revenue))
	assert.Equal(t, 50.0, revenue.AdminFeeAmount)
	assert.Equal(t, models.RevenueDepositFee, revenue.TransactionType)
}

// A second approval of the same deposit must be a no-op: the pending guard
// runs inside the transaction, so a double click or a concurrent bulk run
// can never credit twice.
func TestApproveDepositIsIdempotent(t *testing.T) {
	engine, db, ctx := newSettlementFixture(t)
	seedSettings(t, ctx, db, 5, 20, 10)
	userID := seedUser(t, ctx, db, 0)

	depositID := primitive.NewObjectID()
	_, err := db.Collection("deposits").InsertOne(ctx, models.Deposit{
		ID:          depositID,
		UserID:      userID,
		Amount:      1000,
		Status:      models.StatusPending,
		RequestedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = engine.ApproveDeposit(ctx, depositID, nil, "")
	require.NoError(t, err)

	_, err = engine.ApproveDeposit(ctx, depositID, nil, "")
	require.ErrorIs(t, err, ErrAlreadySettled)

	// rejecting after approval is equally blocked
	_, err = engine.RejectDeposit(ctx, depositID, nil, "")
	require.ErrorIs(t, err, ErrAlreadySettled)

	assert.Equal(t, 950.0, loadBalance(t, ctx, db, userID))

	count, err := db.Collection("revenue_transactions").CountDocuments(ctx, bson.M{"relatedDocId": depositID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// A creator who cannot cover reward + listing fee gets a typed error and
// absolutely nothing changes: no debit, no status flip, no revenue row, no
// published task.
func TestApproveTaskRequestInsufficientBalance(t *testing.T) {
	engine, db, ctx := newSettlementFixture(t)
	seedSettings(t, ctx, db, 5, 20, 10)
	creatorID := seedUser(t, ctx, db, 150)

	requestID := primitive.NewObjectID()
	_, err := db.Collection("taskRequests").InsertOne(ctx, models.TaskRequest{
		ID:          requestID,
		CreatorID:   creatorID,
		Title:       "Translate onboarding guide",
		Reward:      200,
		Status:      models.StatusPending,
		RequestedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = engine.ApproveTaskRequest(ctx, requestID, nil, "")
	require.True(t, IsInsufficientBalance(err))

	var balanceErr *InsufficientBalanceError
	require.ErrorAs(t, err, &balanceErr)
	assert.Equal(t, 220.0, balanceErr.Required)
	assert.Equal(t, 150.0, balanceErr.Available)
	assert.Equal(t, 70.0, balanceErr.Shortfall())

	assert.Equal(t, 150.0, loadBalance(t, ctx, db, creatorID))

	var request models.TaskRequest
	require.NoError(t, db.Collection("taskRequests").FindOne(ctx, bson.M{"_id": requestID}).Decode(&request))
	assert.Equal(t, models.StatusPending, request.Status)

	revenueCount, err := db.Collection("revenue_transactions").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), revenueCount)

	taskCount, err := db.Collection("tasks").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), taskCount)
}

func TestApproveTaskRequestDebitsAndPublishes(t *testing.T) {
	engine, db, ctx := newSettlementFixture(t)
	seedSettings(t, ctx, db, 5, 20, 10)
	creatorID := seedUser(t, ctx, db, 500)

	requestID := primitive.NewObjectID()
	_, err := db.Collection("taskRequests").InsertOne(ctx, models.TaskRequest{
		ID:          requestID,
		CreatorID:   creatorID,
		Title:       "Translate onboarding guide",
		Reward:      200,
		Status:      models.StatusPending,
		RequestedAt: time.Now(),
	})
	require.NoError(t, err)

	result, err := engine.ApproveTaskRequest(ctx, requestID, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 220.0, result.Amount)
	assert.Equal(t, 20.0, result.Fee)

	assert.Equal(t, 280.0, loadBalance(t, ctx, db, creatorID))

	var task models.Task
	require.NoError(t, db.Collection("tasks").FindOne(ctx, bson.M{"creatorId": creatorID}).Decode(&task))
	assert.Equal(t, "Translate onboarding guide", task.Title)
	assert.Equal(t, 200.0, task.Reward)
	assert.True(t, task.IsActive)
}

func TestRejectWithdrawalRefundsInFull(t *testing.T) {
	engine, db, ctx := newSettlementFixture(t)
	seedSettings(t, ctx, db, 5, 20, 10)
	userID := seedUser(t, ctx, db, 100)

	withdrawalID := primitive.NewObjectID()
	_, err := db.Collection("withdrawals").InsertOne(ctx, models.Withdrawal{
		ID:          withdrawalID,
		UserID:      userID,
		Amount:      300,
		Status:      models.StatusPending,
		RequestedAt: time.Now(),
	})
	require.NoError(t, err)

	result, err := engine.RejectWithdrawal(ctx, withdrawalID, nil, "bank details mismatch")
	require.NoError(t, err)
	assert.Equal(t, 300.0, result.Net)

	// the amount was debited at request time; rejection puts it all back
	assert.Equal(t, 400.0, loadBalance(t, ctx, db, userID))

	var withdrawal models.Withdrawal
	require.NoError(t, db.Collection("withdrawals").FindOne(ctx, bson.M{"_id": withdrawalID}).Decode(&withdrawal))
	assert.Equal(t, models.StatusRejected, withdrawal.Status)
}

func TestApproveDepositWithoutSettings(t *testing.T) {
	engine, db, ctx := newSettlementFixture(t)
	userID := seedUser(t, ctx, db, 0)

	depositID := primitive.NewObjectID()
	_, err := db.Collection("deposits").InsertOne(ctx, models.Deposit{
		ID:          depositID,
		UserID:      userID,
		Amount:      1000,
		Status:      models.StatusPending,
		RequestedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = engine.ApproveDeposit(ctx, depositID, nil, "")
	require.ErrorIs(t, err, ErrSettingsMissing)
	assert.Equal(t, 0.0, loadBalance(t, ctx, db, userID))
}
