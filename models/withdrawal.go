package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal is a payout request. The requested amount was already debited
// from the user's balance when the request was created, so approval is a
// pure status flip and rejection must refund the full amount.
type Withdrawal struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID  `json:"userId" bson:"userId"`
	Amount        float64             `json:"amount" bson:"amount"`
	Method        string              `json:"method" bson:"method"` // e.g. "easypaisa", "jazzcash", "bank"
	AccountNumber string              `json:"accountNumber" bson:"accountNumber"`
	AccountName   string              `json:"accountName,omitempty" bson:"accountName,omitempty"`
	Status        string              `json:"status" bson:"status"`
	RequestedAt   time.Time           `json:"requestedAt" bson:"requestedAt"`
	ProcessedAt   *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	AdminID       *primitive.ObjectID `json:"adminId,omitempty" bson:"adminId,omitempty"`
	AdminNote     string              `json:"adminNote,omitempty" bson:"adminNote,omitempty"`
}
