package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tasknest/tasknest_backend/models"
)

// stubSettle returns a SettleFunc that answers per-id from the given map
// and records every id it was invoked with.
func stubSettle(outcomes map[primitive.ObjectID]error, invoked *[]primitive.ObjectID) SettleFunc {
	return func(ctx context.Context, id primitive.ObjectID) (*SettlementResult, error) {
		*invoked = append(*invoked, id)
		if err, ok := outcomes[id]; ok && err != nil {
			return nil, err
		}
		return &SettlementResult{
			Kind:      models.KindDeposit,
			RequestID: id,
			Action:    models.StatusApproved,
			Amount:    100,
			Net:       95,
			Fee:       5,
		}, nil
	}
}

func TestApplyBulkAllSucceed(t *testing.T) {
	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, primitive.NewObjectID().Hex())
	}

	var invoked []primitive.ObjectID
	var committed []*SettlementResult
	summary := ApplyBulk(context.Background(), ids, stubSettle(nil, &invoked), func(r *SettlementResult) {
		committed = append(committed, r)
	})

	assert.Equal(t, 5, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Len(t, summary.Items, 5)
	assert.Len(t, invoked, 5)
	assert.Len(t, committed, 5)
	for _, item := range summary.Items {
		assert.Equal(t, "succeeded", item.Outcome)
		assert.Equal(t, 95.0, item.Net)
	}
}

// One failing item never blocks or rolls back the others.
func TestApplyBulkPartialFailure(t *testing.T) {
	good := []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()}
	broke := primitive.NewObjectID()

	outcomes := map[primitive.ObjectID]error{
		broke: &InsufficientBalanceError{Required: 220, Available: 150},
	}
	ids := []string{good[0].Hex(), broke.Hex(), good[1].Hex(), good[2].Hex()}

	var invoked []primitive.ObjectID
	summary := ApplyBulk(context.Background(), ids, stubSettle(outcomes, &invoked), nil)

	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Items, 4)

	failed := summary.Items[1]
	assert.Equal(t, broke.Hex(), failed.ID)
	assert.Equal(t, "failed", failed.Outcome)
	assert.Contains(t, failed.Detail, "insufficient balance")

	// every id was attempted despite the failure in the middle
	assert.Len(t, invoked, 4)
}

// A request settled by someone else between listing and clicking counts as
// succeeded: the intended end state already holds.
func TestApplyBulkAlreadySettledCountsAsSuccess(t *testing.T) {
	settled := primitive.NewObjectID()
	fresh := primitive.NewObjectID()

	outcomes := map[primitive.ObjectID]error{settled: ErrAlreadySettled}

	var invoked []primitive.ObjectID
	var committed []*SettlementResult
	summary := ApplyBulk(context.Background(), []string{settled.Hex(), fresh.Hex()}, stubSettle(outcomes, &invoked), func(r *SettlementResult) {
		committed = append(committed, r)
	})

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, "already processed", summary.Items[0].Detail)

	// the callback only fires for settlements committed by this call
	require.Len(t, committed, 1)
	assert.Equal(t, fresh, committed[0].RequestID)
}

func TestApplyBulkInvalidID(t *testing.T) {
	valid := primitive.NewObjectID()

	var invoked []primitive.ObjectID
	summary := ApplyBulk(context.Background(), []string{"not-a-hex-id", valid.Hex()}, stubSettle(nil, &invoked), nil)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, "invalid id format", summary.Items[0].Detail)

	// the malformed id never reaches the settlement routine
	require.Len(t, invoked, 1)
	assert.Equal(t, valid, invoked[0])
}

func TestApplyBulkEmptyInput(t *testing.T) {
	var invoked []primitive.ObjectID
	summary := ApplyBulk(context.Background(), nil, stubSettle(nil, &invoked), nil)

	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, summary.Items)
	assert.Empty(t, invoked)
}
