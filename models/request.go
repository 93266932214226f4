package models

// Request status values. A request leaves "pending" exactly once and never
// transitions back.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// RequestKind discriminates the six settleable request categories
type RequestKind string

const (
	KindDeposit         RequestKind = "deposit"
	KindWithdrawal      RequestKind = "withdrawal"
	KindReferral        RequestKind = "referral"
	KindTaskSubmission  RequestKind = "taskSubmission"
	KindTaskRequest     RequestKind = "taskRequest"
	KindBoosterPurchase RequestKind = "boosterPurchase"
)

// CollectionFor maps a request kind to its MongoDB collection name
func CollectionFor(kind RequestKind) string {
	switch kind {
	case KindDeposit:
		return "deposits"
	case KindWithdrawal:
		return "withdrawals"
	case KindReferral:
		return "referrals"
	case KindTaskSubmission:
		return "taskSubmissions"
	case KindTaskRequest:
		return "taskRequests"
	case KindBoosterPurchase:
		return "boosterPurchases"
	}
	return ""
}

// ReviewRequest is the body for single approve/reject endpoints
type ReviewRequest struct {
	AdminNote string `json:"adminNote,omitempty"`
}

// BulkReviewRequest is the body for bulk approve/reject endpoints
type BulkReviewRequest struct {
	IDs       []string `json:"ids" validate:"required,min=1"`
	AdminNote string   `json:"adminNote,omitempty"`
}
