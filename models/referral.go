package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Referral is a pending bonus for a referrer. The bonus is credited to the
// referrer, not the referred user.
type Referral struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ReferrerID  primitive.ObjectID  `json:"referrerId" bson:"referrerId"`
	ReferredID  primitive.ObjectID  `json:"referredId" bson:"referredId"`
	BonusAmount float64             `json:"bonusAmount" bson:"bonusAmount"`
	Status      string              `json:"status" bson:"status"`
	RequestedAt time.Time           `json:"requestedAt" bson:"requestedAt"`
	ProcessedAt *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	AdminID     *primitive.ObjectID `json:"adminId,omitempty" bson:"adminId,omitempty"`
	AdminNote   string              `json:"adminNote,omitempty" bson:"adminNote,omitempty"`
}
