package models

import "time"

// SettingsDocID is the _id of the singleton settings document
const SettingsDocID = "global"

// Settings holds the platform fee rates. Settlement routines read this
// document inside their own transaction so a rate edit never applies
// retroactively to an in-flight approval.
type Settings struct {
	ID                    string    `json:"id" bson:"_id"`
	DepositFeePercent     float64   `json:"depositFeePercent" bson:"depositFeePercent"`
	TaskListingFee        float64   `json:"taskListingFee" bson:"taskListingFee"`
	TaskCommissionPercent float64   `json:"taskCommissionPercent" bson:"taskCommissionPercent"`
	UpdatedAt             time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SettingsUpdateRequest is the admin edit payload for fee rates
type SettingsUpdateRequest struct {
	DepositFeePercent     float64 `json:"depositFeePercent" validate:"min=0,max=100"`
	TaskListingFee        float64 `json:"taskListingFee" validate:"min=0"`
	TaskCommissionPercent float64 `json:"taskCommissionPercent" validate:"min=0,max=100"`
}
