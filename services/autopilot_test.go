package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tasknest/tasknest_backend/models"
)

// fakeClassifier answers with a fixed string or error
type fakeClassifier struct {
	answer string
	err    error
	calls  int
}

func (f *fakeClassifier) Decide(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func TestFallbackReferralDecision(t *testing.T) {
	tests := []struct {
		name          string
		paymentStatus string
		want          Decision
	}{
		{"verified account approves", models.PaymentStatusVerified, DecisionApprove},
		{"pending account rejects", models.PaymentStatusPending, DecisionReject},
		{"no payment rejects", models.PaymentStatusNone, DecisionReject},
		{"rejected payment rejects", models.PaymentStatusRejected, DecisionReject},
		{"unknown value rejects", "weird", DecisionReject},
		{"empty value rejects", "", DecisionReject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackReferralDecision(tt.paymentStatus))
		})
	}
}

// The fallback is a deterministic rule, not a guess: the same input always
// produces the same decision.
func TestFallbackReferralDecisionIsDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.Equal(t, DecisionApprove, FallbackReferralDecision(models.PaymentStatusVerified))
		assert.Equal(t, DecisionReject, FallbackReferralDecision(models.PaymentStatusPending))
	}
}

func TestFallbackTaskSubmissionDecision(t *testing.T) {
	assert.Equal(t, DecisionApprove, FallbackTaskSubmissionDecision())
}

func TestDecideUsesClassifierAnswer(t *testing.T) {
	service := &AutopilotService{Classifier: &fakeClassifier{answer: "APPROVE"}}

	decision, source, reason := service.decide(context.Background(), "prompt", DecisionReject, "fallback rule")
	assert.Equal(t, DecisionApprove, decision)
	assert.Equal(t, models.DecisionSourceClassifier, source)
	assert.Contains(t, reason, "classifier")
}

func TestDecideFallsBackOnGarbageAnswer(t *testing.T) {
	fake := &fakeClassifier{answer: "I cannot help with that"}
	service := &AutopilotService{Classifier: fake}

	decision, source, reason := service.decide(context.Background(), "prompt", DecisionReject, "referred user not verified")
	assert.Equal(t, DecisionReject, decision)
	assert.Equal(t, models.DecisionSourceFallback, source)
	assert.Contains(t, reason, "ambiguous")
	assert.Equal(t, 1, fake.calls)
}

func TestDecideFallsBackOnClassifierError(t *testing.T) {
	service := &AutopilotService{Classifier: &fakeClassifier{err: errors.New("connection refused")}}

	decision, source, reason := service.decide(context.Background(), "prompt", DecisionApprove, "current policy approves all task submissions")
	assert.Equal(t, DecisionApprove, decision)
	assert.Equal(t, models.DecisionSourceFallback, source)
	assert.Contains(t, reason, "unavailable")
}

// A flaky classifier must never make the pipeline nondeterministic in the
// failure path: with the classifier down, repeated runs over the same input
// always land on the fallback decision.
func TestDecideFailurePathIsDeterministic(t *testing.T) {
	service := &AutopilotService{Classifier: &fakeClassifier{err: ErrClassifierUnavailable}}

	for i := 0; i < 20; i++ {
		decision, source, _ := service.decide(context.Background(), "prompt", DecisionReject, "rule")
		assert.Equal(t, DecisionReject, decision)
		assert.Equal(t, models.DecisionSourceFallback, source)
	}
}

func TestDecideAnswerInsideSentence(t *testing.T) {
	service := &AutopilotService{Classifier: &fakeClassifier{answer: "Based on the policy I would reject this one."}}

	decision, source, _ := service.decide(context.Background(), "prompt", DecisionApprove, "rule")
	assert.Equal(t, DecisionReject, decision)
	assert.Equal(t, models.DecisionSourceClassifier, source)
}
