package services

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tasknest/tasknest_backend/models"
	"github.com/tasknest/tasknest_backend/utils"
)

// LedgerService provides the atomic read-modify-write primitives on a
// user's balance and withdrawal points. Every method takes the session
// context of an active transaction; the new value is always computed from
// a read on that same session, never from a cached snapshot.
type LedgerService struct {
	DB *mongo.Database
}

// NewLedgerService creates a ledger service over the given database
func NewLedgerService(db *mongo.Database) *LedgerService {
	return &LedgerService{DB: db}
}

// GetUser reads a user inside the active transaction
func (ls *LedgerService) GetUser(sc mongo.SessionContext, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := ls.DB.Collection("users").FindOne(sc, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ApplyBalanceDelta credits (or debits, for negative delta) a user's balance
// and returns the new balance.
func (ls *LedgerService) ApplyBalanceDelta(sc mongo.SessionContext, userID primitive.ObjectID, delta float64) (float64, error) {
	user, err := ls.GetUser(sc, userID)
	if err != nil {
		return 0, err
	}
	newBalance := utils.Round2(user.Balance + delta)
	_, err = ls.DB.Collection("users").UpdateOne(sc, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{
			"balance":   newBalance,
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// ApplyPointsDelta adds delta to a user's withdrawal points and returns the
// new total. Points never go below zero.
func (ls *LedgerService) ApplyPointsDelta(sc mongo.SessionContext, userID primitive.ObjectID, delta int) (int, error) {
	user, err := ls.GetUser(sc, userID)
	if err != nil {
		return 0, err
	}
	newPoints := user.WithdrawalPoints + delta
	if newPoints < 0 {
		newPoints = 0
	}
	_, err = ls.DB.Collection("users").UpdateOne(sc, bson.M{"_id": userID}, bson.M{
		"$set": bson.M{
			"withdrawalPoints": newPoints,
			"updatedAt":        time.Now(),
		},
	})
	if err != nil {
		return 0, err
	}
	return newPoints, nil
}

// ApplyBoosterBenefits applies a booster's declared benefits to the user:
// account activation flips isPaid/paymentStatus, granted points are added
// to withdrawalPoints. Both writes happen in one update on the session.
func (ls *LedgerService) ApplyBoosterBenefits(sc mongo.SessionContext, userID primitive.ObjectID, booster *models.Booster) error {
	user, err := ls.GetUser(sc, userID)
	if err != nil {
		return err
	}
	set := bson.M{"updatedAt": time.Now()}
	if booster.ActivatesAccount {
		set["isPaid"] = true
		set["paymentStatus"] = models.PaymentStatusVerified
	}
	if booster.PointsGranted > 0 {
		set["withdrawalPoints"] = user.WithdrawalPoints + booster.PointsGranted
	}
	_, err = ls.DB.Collection("users").UpdateOne(sc, bson.M{"_id": userID}, bson.M{"$set": set})
	return err
}
