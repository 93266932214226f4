package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decision sources recorded for audit
const (
	DecisionSourceClassifier = "classifier"
	DecisionSourceFallback   = "fallback"
)

// AutopilotDecision is one request's outcome within an autopilot run
type AutopilotDecision struct {
	RequestID primitive.ObjectID `json:"requestId" bson:"requestId"`
	Outcome   string             `json:"outcome" bson:"outcome"` // approved, rejected or failed
	Source    string             `json:"source,omitempty" bson:"source,omitempty"`
	Reason    string             `json:"reason,omitempty" bson:"reason,omitempty"`
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
}

// AutopilotRun is the persisted audit log of one automated review pass
type AutopilotRun struct {
	ID         primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	RunID      string              `json:"runId" bson:"runId"`
	Category   RequestKind         `json:"category" bson:"category"`
	StartedAt  time.Time           `json:"startedAt" bson:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt" bson:"finishedAt"`
	Processed  int                 `json:"processed" bson:"processed"`
	Approved   int                 `json:"approved" bson:"approved"`
	Rejected   int                 `json:"rejected" bson:"rejected"`
	Failed     int                 `json:"failed" bson:"failed"`
	Decisions  []AutopilotDecision `json:"decisions" bson:"decisions"`
}
