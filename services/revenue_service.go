package services

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tasknest/tasknest_backend/models"
)

// RevenueRecorder appends immutable revenue rows. It only ever inserts, so
// it never causes a transaction conflict on its own.
type RevenueRecorder struct {
	DB *mongo.Database
}

// NewRevenueRecorder creates a revenue recorder over the given database
func NewRevenueRecorder(db *mongo.Database) *RevenueRecorder {
	return &RevenueRecorder{DB: db}
}

// RecordFee writes one revenue row inside the caller's transaction. A fee
// record exists iff feeAmount > 0: zero-fee settlements produce no row.
func (rr *RevenueRecorder) RecordFee(sc mongo.SessionContext, feeAmount, originalAmount float64, sourceUser, relatedDocID primitive.ObjectID, transactionType string) error {
	if feeAmount <= 0 {
		return nil
	}
	_, err := rr.DB.Collection("revenue_transactions").InsertOne(sc, models.RevenueTransaction{
		AdminFeeAmount:  feeAmount,
		OriginalAmount:  originalAmount,
		SourceUser:      sourceUser,
		TransactionType: transactionType,
		RelatedDocID:    relatedDocID,
		Timestamp:       time.Now(),
	})
	return err
}
