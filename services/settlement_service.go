package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tasknest/tasknest_backend/models"
	"github.com/tasknest/tasknest_backend/utils"
)

// SettlementService owns the one-transaction-per-request routines that move
// a request out of "pending" and apply its balance effect. Each routine is
// all-or-nothing: a validation failure leaves the request pending and the
// balance untouched.
type SettlementService struct {
	Client  *mongo.Client
	DB      *mongo.Database
	Ledger  *LedgerService
	Revenue *RevenueRecorder
	Retry   RetryPolicy
}

// NewSettlementService wires the settlement engine over one database
func NewSettlementService(client *mongo.Client, db *mongo.Database) *SettlementService {
	return &SettlementService{
		Client:  client,
		DB:      db,
		Ledger:  NewLedgerService(db),
		Revenue: NewRevenueRecorder(db),
		Retry:   DefaultRetryPolicy,
	}
}

// SettlementResult summarizes a committed settlement for notifications and
// the live event feed.
type SettlementResult struct {
	Kind      models.RequestKind `json:"kind"`
	RequestID primitive.ObjectID `json:"requestId"`
	UserID    primitive.ObjectID `json:"userId"`
	Action    string             `json:"action"`
	Amount    float64            `json:"amount"`
	Net       float64            `json:"net,omitempty"`
	Fee       float64            `json:"fee,omitempty"`
}

// loadSettings reads the fee-rate singleton inside the active transaction,
// so an approval always uses the rates in force at commit time.
func (s *SettlementService) loadSettings(sc mongo.SessionContext) (*models.Settings, error) {
	var settings models.Settings
	err := s.DB.Collection("settings").FindOne(sc, bson.M{"_id": models.SettingsDocID}).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSettingsMissing
		}
		return nil, err
	}
	return &settings, nil
}

// markSettled flips a request document out of "pending". The pending filter
// in the callers has already been checked on this session, so the update is
// part of the same atomic commit.
func (s *SettlementService) markSettled(sc mongo.SessionContext, collection string, id primitive.ObjectID, status string, adminID *primitive.ObjectID, note string, extra bson.M) error {
	set := bson.M{
		"status":      status,
		"processedAt": time.Now(),
	}
	if adminID != nil {
		set["adminId"] = *adminID
	}
	if note != "" {
		set["adminNote"] = note
	}
	for k, v := range extra {
		set[k] = v
	}
	_, err := s.DB.Collection(collection).UpdateOne(sc, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// ApproveDeposit credits the deposit amount net of the deposit fee and
// records the fee as platform revenue.
func (s *SettlementService) ApproveDeposit(ctx context.Context, depositID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		settings, err := s.loadSettings(sc)
		if err != nil {
			return err
		}
		var deposit models.Deposit
		if err := s.DB.Collection("deposits").FindOne(sc, bson.M{"_id": depositID}).Decode(&deposit); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if deposit.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		net, fee := utils.SplitFee(deposit.Amount, settings.DepositFeePercent)
		if _, err := s.Ledger.ApplyBalanceDelta(sc, deposit.UserID, net); err != nil {
			return err
		}
		if err := s.markSettled(sc, "deposits", deposit.ID, models.StatusApproved, adminID, note, bson.M{"netCredited": net}); err != nil {
			return err
		}
		if err := s.Revenue.RecordFee(sc, fee, deposit.Amount, deposit.UserID, deposit.ID, models.RevenueDepositFee); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindDeposit,
			RequestID: deposit.ID,
			UserID:    deposit.UserID,
			Action:    models.StatusApproved,
			Amount:    deposit.Amount,
			Net:       net,
			Fee:       fee,
		}
		return nil
	})
	return result, err
}

// RejectDeposit flips the request only; no money was escrowed
func (s *SettlementService) RejectDeposit(ctx context.Context, depositID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		var deposit models.Deposit
		if err := s.DB.Collection("deposits").FindOne(sc, bson.M{"_id": depositID}).Decode(&deposit); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if deposit.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		if err := s.markSettled(sc, "deposits", deposit.ID, models.StatusRejected, adminID, note, nil); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindDeposit,
			RequestID: deposit.ID,
			UserID:    deposit.UserID,
			Action:    models.StatusRejected,
			Amount:    deposit.Amount,
		}
		return nil
	})
	return result, err
}

// ApproveWithdrawal is a pure status flip: the amount was debited from the
// user's balance when the withdrawal was requested.
func (s *SettlementService) ApproveWithdrawal(ctx context.Context, withdrawalID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		var withdrawal models.Withdrawal
		if err := s.DB.Collection("withdrawals").FindOne(sc, bson.M{"_id": withdrawalID}).Decode(&withdrawal); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if withdrawal.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		if err := s.markSettled(sc, "withdrawals", withdrawal.ID, models.StatusApproved, adminID, note, nil); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindWithdrawal,
			RequestID: withdrawal.ID,
			UserID:    withdrawal.UserID,
			Action:    models.StatusApproved,
			Amount:    withdrawal.Amount,
		}
		return nil
	})
	return result, err
}

// RejectWithdrawal refunds the full amount back to the user's balance in
// the same transaction as the status flip.
func (s *SettlementService) RejectWithdrawal(ctx context.Context, withdrawalID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		var withdrawal models.Withdrawal
		if err := s.DB.Collection("withdrawals").FindOne(sc, bson.M{"_id": withdrawalID}).Decode(&withdrawal); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if withdrawal.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		if _, err := s.Ledger.ApplyBalanceDelta(sc, withdrawal.UserID, withdrawal.Amount); err != nil {
			return err
		}
		if err := s.markSettled(sc, "withdrawals", withdrawal.ID, models.StatusRejected, adminID, note, nil); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindWithdrawal,
			RequestID: withdrawal.ID,
			UserID:    withdrawal.UserID,
			Action:    models.StatusRejected,
			Amount:    withdrawal.Amount,
			Net:       withdrawal.Amount,
		}
		return nil
	})
	return result, err
}

// ApproveReferral credits the bonus to the referrer's balance. Referral
// bonuses carry no fee, so no revenue row is written.
func (s *SettlementService) ApproveReferral(ctx context.Context, referralID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		var referral models.Referral
		if err := s.DB.Collection("referrals").FindOne(sc, bson.M{"_id": referralID}).Decode(&referral); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if referral.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		if _, err := s.Ledger.ApplyBalanceDelta(sc, referral.ReferrerID, referral.BonusAmount); err != nil {
			return err
		}
		if err := s.markSettled(sc, "referrals", referral.ID, models.StatusApproved, adminID, note, nil); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindReferral,
			RequestID: referral.ID,
			UserID:    referral.ReferrerID,
			Action:    models.StatusApproved,
			Amount:    referral.BonusAmount,
			Net:       referral.BonusAmount,
		}
		return nil
	})
	return result, err
}

// RejectReferral flips the request only
func (s *SettlementService) RejectReferral(ctx context.Context, referralID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		var referral models.Referral
		if err := s.DB.Collection("referrals").FindOne(sc, bson.M{"_id": referralID}).Decode(&referral); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if referral.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		if err := s.markSettled(sc, "referrals", referral.ID, models.StatusRejected, adminID, note, nil); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindReferral,
			RequestID: referral.ID,
			UserID:    referral.ReferrerID,
			Action:    models.StatusRejected,
			Amount:    referral.BonusAmount,
		}
		return nil
	})
	return result, err
}

// ApproveTaskSubmission pays the submitter the reward net of the platform
// commission and records the commission as revenue.
func (s *SettlementService) ApproveTaskSubmission(ctx context.Context, submissionID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		settings, err := s.loadSettings(sc)
		if err != nil {
			return err
		}
		var submission models.TaskSubmission
		if err := s.DB.Collection("taskSubmissions").FindOne(sc, bson.M{"_id": submissionID}).Decode(&submission); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if submission.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		net, fee := utils.SplitFee(submission.Reward, settings.TaskCommissionPercent)
		if _, err := s.Ledger.ApplyBalanceDelta(sc, submission.UserID, net); err != nil {
			return err
		}
		if err := s.markSettled(sc, "taskSubmissions", submission.ID, models.StatusApproved, adminID, note, bson.M{"netPaid": net}); err != nil {
			return err
		}
		if err := s.Revenue.RecordFee(sc, fee, submission.Reward, submission.UserID, submission.ID, models.RevenueTaskCommission); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindTaskSubmission,
			RequestID: submission.ID,
			UserID:    submission.UserID,
			Action:    models.StatusApproved,
			Amount:    submission.Reward,
			Net:       net,
			Fee:       fee,
		}
		return nil
	})
	return result, err
}

// RejectTaskSubmission flips the request only
func (s *SettlementService) RejectTaskSubmission(ctx context.Context, submissionID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		var submission models.TaskSubmission
		if err := s.DB.Collection("taskSubmissions").FindOne(sc, bson.M{"_id": submissionID}).Decode(&submission); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if submission.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		if err := s.markSettled(sc, "taskSubmissions", submission.ID, models.StatusRejected, adminID, note, nil); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindTaskSubmission,
			RequestID: submission.ID,
			UserID:    submission.UserID,
			Action:    models.StatusRejected,
			Amount:    submission.Reward,
		}
		return nil
	})
	return result, err
}

// ApproveTaskRequest debits reward + listing fee from the creator, records
// the listing fee as revenue and publishes the task. Fails with
// InsufficientBalanceError when the creator cannot cover both.
func (s *SettlementService) ApproveTaskRequest(ctx context.Context, requestID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		settings, err := s.loadSettings(sc)
		if err != nil {
			return err
		}
		var request models.TaskRequest
		if err := s.DB.Collection("taskRequests").FindOne(sc, bson.M{"_id": requestID}).Decode(&request); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if request.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		creator, err := s.Ledger.GetUser(sc, request.CreatorID)
		if err != nil {
			return err
		}
		charge := utils.Round2(request.Reward + settings.TaskListingFee)
		if creator.Balance < charge {
			return &InsufficientBalanceError{Required: charge, Available: creator.Balance}
		}
		if _, err := s.Ledger.ApplyBalanceDelta(sc, request.CreatorID, -charge); err != nil {
			return err
		}
		if err := s.markSettled(sc, "taskRequests", request.ID, models.StatusApproved, adminID, note, nil); err != nil {
			return err
		}
		if err := s.Revenue.RecordFee(sc, settings.TaskListingFee, charge, request.CreatorID, request.ID, models.RevenueListingFee); err != nil {
			return err
		}
		if _, err := s.DB.Collection("tasks").InsertOne(sc, models.Task{
			CreatorID:   request.CreatorID,
			Title:       request.Title,
			Description: request.Description,
			Reward:      request.Reward,
			IsActive:    true,
			CreatedAt:   time.Now(),
		}); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindTaskRequest,
			RequestID: request.ID,
			UserID:    request.CreatorID,
			Action:    models.StatusApproved,
			Amount:    charge,
			Fee:       settings.TaskListingFee,
		}
		return nil
	})
	return result, err
}

// RejectTaskRequest flips the request only; no funds were reserved
func (s *SettlementService) RejectTaskRequest(ctx context.Context, requestID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		var request models.TaskRequest
		if err := s.DB.Collection("taskRequests").FindOne(sc, bson.M{"_id": requestID}).Decode(&request); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if request.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		if err := s.markSettled(sc, "taskRequests", request.ID, models.StatusRejected, adminID, note, nil); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindTaskRequest,
			RequestID: request.ID,
			UserID:    request.CreatorID,
			Action:    models.StatusRejected,
			Amount:    request.Reward,
		}
		return nil
	})
	return result, err
}

// ApproveBoosterPurchase applies the booster's declared benefits to the
// buyer and records the full price as revenue. The price was paid outside
// the platform, so there is no cost basis to net out.
func (s *SettlementService) ApproveBoosterPurchase(ctx context.Context, purchaseID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		var purchase models.BoosterPurchase
		if err := s.DB.Collection("boosterPurchases").FindOne(sc, bson.M{"_id": purchaseID}).Decode(&purchase); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if purchase.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		var booster models.Booster
		if err := s.DB.Collection("boosters").FindOne(sc, bson.M{"_id": purchase.BoosterID}).Decode(&booster); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrBoosterNotFound
			}
			return err
		}
		if err := s.Ledger.ApplyBoosterBenefits(sc, purchase.UserID, &booster); err != nil {
			return err
		}
		if err := s.markSettled(sc, "boosterPurchases", purchase.ID, models.StatusApproved, adminID, note, nil); err != nil {
			return err
		}
		if err := s.Revenue.RecordFee(sc, purchase.Price, purchase.Price, purchase.UserID, purchase.ID, models.RevenueBoosterSale); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindBoosterPurchase,
			RequestID: purchase.ID,
			UserID:    purchase.UserID,
			Action:    models.StatusApproved,
			Amount:    purchase.Price,
			Fee:       purchase.Price,
		}
		return nil
	})
	return result, err
}

// RejectBoosterPurchase flips the request only
func (s *SettlementService) RejectBoosterPurchase(ctx context.Context, purchaseID primitive.ObjectID, adminID *primitive.ObjectID, note string) (*SettlementResult, error) {
	var result *SettlementResult
	err := RunTransaction(ctx, s.Client, s.Retry, func(sc mongo.SessionContext) error {
		var purchase models.BoosterPurchase
		if err := s.DB.Collection("boosterPurchases").FindOne(sc, bson.M{"_id": purchaseID}).Decode(&purchase); err != nil {
			if err == mongo.ErrNoDocuments {
				return ErrRequestNotFound
			}
			return err
		}
		if purchase.Status != models.StatusPending {
			return ErrAlreadySettled
		}
		if err := s.markSettled(sc, "boosterPurchases", purchase.ID, models.StatusRejected, adminID, note, nil); err != nil {
			return err
		}
		result = &SettlementResult{
			Kind:      models.KindBoosterPurchase,
			RequestID: purchase.ID,
			UserID:    purchase.UserID,
			Action:    models.StatusRejected,
			Amount:    purchase.Price,
		}
		return nil
	})
	return result, err
}

// SettleFunc settles a single request and reports the committed result
type SettleFunc func(ctx context.Context, id primitive.ObjectID) (*SettlementResult, error)

// Routine returns the settlement routine for a kind/approve pair, with the
// reviewing admin baked in. Used by the bulk coordinator and the autopilot.
func (s *SettlementService) Routine(kind models.RequestKind, approve bool, adminID *primitive.ObjectID, note string) SettleFunc {
	type routine func(context.Context, primitive.ObjectID, *primitive.ObjectID, string) (*SettlementResult, error)
	var fn routine
	switch kind {
	case models.KindDeposit:
		fn = s.ApproveDeposit
		if !approve {
			fn = s.RejectDeposit
		}
	case models.KindWithdrawal:
		fn = s.ApproveWithdrawal
		if !approve {
			fn = s.RejectWithdrawal
		}
	case models.KindReferral:
		fn = s.ApproveReferral
		if !approve {
			fn = s.RejectReferral
		}
	case models.KindTaskSubmission:
		fn = s.ApproveTaskSubmission
		if !approve {
			fn = s.RejectTaskSubmission
		}
	case models.KindTaskRequest:
		fn = s.ApproveTaskRequest
		if !approve {
			fn = s.RejectTaskRequest
		}
	case models.KindBoosterPurchase:
		fn = s.ApproveBoosterPurchase
		if !approve {
			fn = s.RejectBoosterPurchase
		}
	default:
		return nil
	}
	return func(ctx context.Context, id primitive.ObjectID) (*SettlementResult, error) {
		return fn(ctx, id, adminID, note)
	}
}
