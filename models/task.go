package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is a live micro-task users can complete for a reward
type Task struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	CreatorID   primitive.ObjectID `json:"creatorId" bson:"creatorId"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	Reward      float64            `json:"reward" bson:"reward"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// TaskSubmission is a user's claim of a completed task, paid out net of the
// platform commission on approval.
type TaskSubmission struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	TaskID      primitive.ObjectID  `json:"taskId" bson:"taskId"`
	UserID      primitive.ObjectID  `json:"userId" bson:"userId"`
	Reward      float64             `json:"reward" bson:"reward"`
	ProofText   string              `json:"proofText,omitempty" bson:"proofText,omitempty"`
	ProofImage  string              `json:"proofImage,omitempty" bson:"proofImage,omitempty"`
	Status      string              `json:"status" bson:"status"`
	RequestedAt time.Time           `json:"requestedAt" bson:"requestedAt"`
	ProcessedAt *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	AdminID     *primitive.ObjectID `json:"adminId,omitempty" bson:"adminId,omitempty"`
	AdminNote   string              `json:"adminNote,omitempty" bson:"adminNote,omitempty"`
	// Filled on approval: paid amount after commission
	NetPaid float64 `json:"netPaid,omitempty" bson:"netPaid,omitempty"`
}

// TaskRequest is a creator's request to list a new task. Approval debits
// reward + listing fee from the creator and publishes the task.
type TaskRequest struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	CreatorID   primitive.ObjectID  `json:"creatorId" bson:"creatorId"`
	Title       string              `json:"title" bson:"title"`
	Description string              `json:"description" bson:"description"`
	Reward      float64             `json:"reward" bson:"reward"`
	Status      string              `json:"status" bson:"status"`
	RequestedAt time.Time           `json:"requestedAt" bson:"requestedAt"`
	ProcessedAt *time.Time          `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
	AdminID     *primitive.ObjectID `json:"adminId,omitempty" bson:"adminId,omitempty"`
	AdminNote   string              `json:"adminNote,omitempty" bson:"adminNote,omitempty"`
}
