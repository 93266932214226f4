package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tasknest/tasknest_backend/models"
)

// AutopilotService runs automated review passes over pending requests.
// Each pass asks the classifier for a decision per request, falls back to a
// deterministic rule when the classifier fails or answers ambiguously, then
// invokes the same settlement routines a human reviewer would. Every
// decision is persisted for audit.
type AutopilotService struct {
	DB         *mongo.Database
	Settlement *SettlementService
	Classifier Classifier
}

// NewAutopilotService wires the autopilot over the settlement engine
func NewAutopilotService(db *mongo.Database, settlement *SettlementService, classifier Classifier) *AutopilotService {
	return &AutopilotService{DB: db, Settlement: settlement, Classifier: classifier}
}

// FallbackReferralDecision is the documented deterministic rule for
// referral bonuses: approve iff the referred user's payment status is
// verified. Identical to what a human reviewer concludes from the same
// field, never a guess.
func FallbackReferralDecision(paymentStatus string) Decision {
	if paymentStatus == models.PaymentStatusVerified {
		return DecisionApprove
	}
	return DecisionReject
}

// FallbackTaskSubmissionDecision is the documented deterministic rule for
// task submissions: the current policy approves every submission.
func FallbackTaskSubmissionDecision() Decision {
	return DecisionApprove
}

// decide runs the classifier and falls back to fallback on any failure or
// ambiguity. It reports the decision, its source and a human-readable
// justification for the audit log.
func (as *AutopilotService) decide(ctx context.Context, prompt string, fallback Decision, fallbackReason string) (Decision, string, string) {
	raw, err := as.Classifier.Decide(ctx, prompt)
	if err == nil {
		if decision, perr := ParseDecision(raw); perr == nil {
			return decision, models.DecisionSourceClassifier, fmt.Sprintf("classifier answered %q", decision)
		}
		log.Printf("autopilot: ambiguous classifier answer %q, using fallback", raw)
		return fallback, models.DecisionSourceFallback, fallbackReason + " (classifier answer was ambiguous)"
	}
	log.Printf("autopilot: classifier call failed (%v), using fallback", err)
	return fallback, models.DecisionSourceFallback, fallbackReason + " (classifier unavailable)"
}

// settleDecision invokes the settlement routine matching the decision
// exactly once and updates the run counters.
func (as *AutopilotService) settleDecision(ctx context.Context, run *models.AutopilotRun, kind models.RequestKind, id primitive.ObjectID, decision Decision, source, reason string) {
	item := models.AutopilotDecision{RequestID: id, Source: source, Reason: reason}
	settle := as.Settlement.Routine(kind, decision == DecisionApprove, nil, "autopilot: "+reason)
	_, err := settle(ctx, id)
	switch {
	case err == nil:
		if decision == DecisionApprove {
			item.Outcome = models.StatusApproved
			run.Approved++
		} else {
			item.Outcome = models.StatusRejected
			run.Rejected++
		}
	case errors.Is(err, ErrAlreadySettled):
		// settled by a staff member while the pass was running; the
		// intended end state already holds, so this is a no-op success
		if decision == DecisionApprove {
			item.Outcome = models.StatusApproved
			run.Approved++
		} else {
			item.Outcome = models.StatusRejected
			run.Rejected++
		}
		item.Error = err.Error()
	default:
		item.Outcome = "failed"
		item.Error = err.Error()
		run.Failed++
	}
	run.Processed++
	run.Decisions = append(run.Decisions, item)
}

// RunReferralPass reviews every pending referral bonus sequentially
func (as *AutopilotService) RunReferralPass(ctx context.Context) (*models.AutopilotRun, error) {
	run := &models.AutopilotRun{
		RunID:     uuid.NewString(),
		Category:  models.KindReferral,
		StartedAt: time.Now(),
		Decisions: []models.AutopilotDecision{},
	}

	cursor, err := as.DB.Collection("referrals").Find(ctx, bson.M{"status": models.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending referrals: %w", err)
	}
	var referrals []models.Referral
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, fmt.Errorf("failed to decode pending referrals: %w", err)
	}

	for _, referral := range referrals {
		var referred models.User
		err := as.DB.Collection("users").FindOne(ctx, bson.M{"_id": referral.ReferredID}).Decode(&referred)
		if err != nil {
			// without the referred user's payment status neither the
			// classifier nor the fallback can be computed
			run.Processed++
			run.Failed++
			run.Decisions = append(run.Decisions, models.AutopilotDecision{
				RequestID: referral.ID,
				Outcome:   "failed",
				Error:     "referred user not found",
			})
			continue
		}

		prompt := fmt.Sprintf(
			"You review referral bonuses for a rewards platform. A bonus of %.2f is pending for a referrer. "+
				"The referred user's payment status is %q. Policy: approve the bonus only if the referred user's "+
				"payment status is verified. Answer with a single word: APPROVE or REJECT.",
			referral.BonusAmount, referred.PaymentStatus,
		)
		fallback := FallbackReferralDecision(referred.PaymentStatus)
		fallbackReason := fmt.Sprintf("referred user payment status is %q", referred.PaymentStatus)

		decision, source, reason := as.decide(ctx, prompt, fallback, fallbackReason)
		as.settleDecision(ctx, run, models.KindReferral, referral.ID, decision, source, reason)
	}

	return as.finishRun(ctx, run)
}

// RunTaskSubmissionPass reviews every pending task submission sequentially
func (as *AutopilotService) RunTaskSubmissionPass(ctx context.Context) (*models.AutopilotRun, error) {
	run := &models.AutopilotRun{
		RunID:     uuid.NewString(),
		Category:  models.KindTaskSubmission,
		StartedAt: time.Now(),
		Decisions: []models.AutopilotDecision{},
	}

	cursor, err := as.DB.Collection("taskSubmissions").Find(ctx, bson.M{"status": models.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending task submissions: %w", err)
	}
	var submissions []models.TaskSubmission
	if err := cursor.All(ctx, &submissions); err != nil {
		return nil, fmt.Errorf("failed to decode pending task submissions: %w", err)
	}

	for _, submission := range submissions {
		var task models.Task
		taskTitle := "unknown task"
		if err := as.DB.Collection("tasks").FindOne(ctx, bson.M{"_id": submission.TaskID}).Decode(&task); err == nil {
			taskTitle = task.Title
		}

		prompt := fmt.Sprintf(
			"You review task submissions for a rewards platform. A submission for task %q with reward %.2f is "+
				"pending; the submitter wrote: %q. Policy: submissions are approved unless the proof is plainly "+
				"abusive. Answer with a single word: APPROVE or REJECT.",
			taskTitle, submission.Reward, submission.ProofText,
		)
		fallback := FallbackTaskSubmissionDecision()
		fallbackReason := "current policy approves all task submissions"

		decision, source, reason := as.decide(ctx, prompt, fallback, fallbackReason)
		as.settleDecision(ctx, run, models.KindTaskSubmission, submission.ID, decision, source, reason)
	}

	return as.finishRun(ctx, run)
}

// finishRun stamps and persists the audit log. A failed insert does not
// void the settlements that already committed, so it is logged and the run
// is still returned to the caller.
func (as *AutopilotService) finishRun(ctx context.Context, run *models.AutopilotRun) (*models.AutopilotRun, error) {
	run.FinishedAt = time.Now()
	if _, err := as.DB.Collection("autopilot_runs").InsertOne(ctx, run); err != nil {
		log.Printf("autopilot: failed to persist run %s: %v", run.RunID, err)
	}
	return run, nil
}
