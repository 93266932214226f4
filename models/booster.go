package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booster is a purchasable account upgrade. Benefits are declared on the
// booster itself and applied when a purchase is approved.
type Booster struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	Description      string             `json:"description" bson:"description"`
	Price            float64            `json:"price" bson:"price"`
	ActivatesAccount bool               `json:"activatesAccount" bson:"activatesAccount"`
	PointsGranted    int                `json:"pointsGranted" bson:"pointsGranted"`
	IsActive         bool               `json:"isActive" bson:"isActive"`
	CreatedBy        primitive.ObjectID `json:"createdBy" bson:"createdBy"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// BoosterRequest is the admin payload for creating a booster
type BoosterRequest struct {
	Name             string  `json:"name" validate:"required"`
	Description      string  `json:"description" validate:"required"`
	Price            float64 `json:"price" validate:"required,gt=0"`
	ActivatesAccount bool    `json:"activatesAccount"`
	PointsGranted    int     `json:"pointsGranted" validate:"min=0"`
}

// BoosterPurchase is a user's claim of an externally paid booster price,
// verified by staff before the booster's benefits are applied.
type BoosterPurchase struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        primitive.ObjectID  `json:"userId" bson:"userId"`
	BoosterID     primitive.ObjectID  `json:"boosterId" bson:"boosterId"`
	Price         float64             `json:"price" bson:"price"`
	TransactionID string              `json:"transactionId" bson:"transactionId"`
	Status        string              `json:"status" bson:"status"`
	RequestedAt   time.Time           `json:"requestedAt" bson:"requestedAt"`
	ProcessedAt   *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	AdminID       *primitive.ObjectID `json:"adminId,omitempty" bson:"adminId,omitempty"`
	AdminNote     string              `json:"adminNote,omitempty" bson:"adminNote,omitempty"`
}
