package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentStatus values for a user's account verification state
const (
	PaymentStatusNone     = "none"
	PaymentStatusPending  = "pending"
	PaymentStatusVerified = "verified"
	PaymentStatusRejected = "rejected"
)

// User represents a platform member whose balance and points are moved by settlements
type User struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FullName         string             `json:"fullName" bson:"fullName"`
	Email            string             `json:"email" bson:"email"`
	Password         string             `json:"-" bson:"password,omitempty"`
	Phone            string             `json:"phone,omitempty" bson:"phone,omitempty"`
	UserType         string             `json:"userType" bson:"userType"` // "user" or "admin"
	Balance          float64            `json:"balance" bson:"balance"`
	WithdrawalPoints int                `json:"withdrawalPoints" bson:"withdrawalPoints"`
	IsPaid           bool               `json:"isPaid" bson:"isPaid"`
	PaymentStatus    string             `json:"paymentStatus" bson:"paymentStatus"`
	ReferralCode     string             `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ReferredBy       primitive.ObjectID `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	FCMToken         string             `json:"-" bson:"fcmToken,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UserSummary is the projection of a user joined onto pending-request listings
type UserSummary struct {
	ID            primitive.ObjectID `json:"id"`
	FullName      string             `json:"fullName"`
	Email         string             `json:"email"`
	Phone         string             `json:"phone,omitempty"`
	Balance       float64            `json:"balance"`
	PaymentStatus string             `json:"paymentStatus"`
	IsPaid        bool               `json:"isPaid"`
}

// Summary returns the display projection used by pending-request listings
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:            u.ID,
		FullName:      u.FullName,
		Email:         u.Email,
		Phone:         u.Phone,
		Balance:       u.Balance,
		PaymentStatus: u.PaymentStatus,
		IsPaid:        u.IsPaid,
	}
}

// Response is the standard API response envelope
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
