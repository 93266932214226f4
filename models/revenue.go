package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Revenue transaction types
const (
	RevenueDepositFee     = "deposit_fee"
	RevenueListingFee     = "listing_fee"
	RevenueTaskCommission = "task_commission"
	RevenueBoosterSale    = "booster_purchase"
)

// RevenueTransaction is an immutable audit row written whenever the platform
// retains a fee or margin from a settlement. Never updated or deleted.
type RevenueTransaction struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AdminFeeAmount  float64            `json:"adminFeeAmount" bson:"adminFeeAmount"`
	OriginalAmount  float64            `json:"originalAmount" bson:"originalAmount"`
	SourceUser      primitive.ObjectID `json:"sourceUser" bson:"sourceUser"`
	TransactionType string             `json:"transactionType" bson:"transactionType"`
	RelatedDocID    primitive.ObjectID `json:"relatedDocId" bson:"relatedDocId"`
	Timestamp       time.Time          `json:"timestamp" bson:"timestamp"`
}
