package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Deposit is a user's claim of an externally paid amount, verified by staff
// against the supplied transaction reference and proof screenshot.
type Deposit struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID  `json:"userId" bson:"userId"`
	Amount        float64             `json:"amount" bson:"amount"`
	TransactionID string              `json:"transactionId" bson:"transactionId"`
	ProofImage    string              `json:"proofImage,omitempty" bson:"proofImage,omitempty"`
	Status        string              `json:"status" bson:"status"`
	RequestedAt   time.Time           `json:"requestedAt" bson:"requestedAt"`
	ProcessedAt   *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	AdminID       *primitive.ObjectID `json:"adminId,omitempty" bson:"adminId,omitempty"`
	AdminNote     string              `json:"adminNote,omitempty" bson:"adminNote,omitempty"`
	// Filled on approval: credited amount after the deposit fee
	NetCredited float64 `json:"netCredited,omitempty" bson:"netCredited,omitempty"`
}
