package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BulkItemResult is one request's outcome inside a bulk action
type BulkItemResult struct {
	ID      string  `json:"id"`
	Outcome string  `json:"outcome"` // "succeeded" or "failed"
	Detail  string  `json:"detail,omitempty"`
	Net     float64 `json:"net,omitempty"`
}

// BulkSummary aggregates a bulk action's per-item outcomes
type BulkSummary struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Items     []BulkItemResult `json:"items"`
}

// ApplyBulk settles each id independently: every item is its own
// transaction, and one item's failure never rolls back or blocks the
// others. A request that was already settled counts as succeeded because
// the intended end state already holds. The optional onSettled callback
// fires once per committed settlement.
func ApplyBulk(ctx context.Context, ids []string, settle SettleFunc, onSettled func(*SettlementResult)) BulkSummary {
	summary := BulkSummary{Items: make([]BulkItemResult, 0, len(ids))}
	for _, raw := range ids {
		item := BulkItemResult{ID: raw}
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			item.Outcome = "failed"
			item.Detail = "invalid id format"
			summary.Failed++
			summary.Items = append(summary.Items, item)
			continue
		}
		result, err := settle(ctx, oid)
		switch {
		case err == nil:
			item.Outcome = "succeeded"
			if result != nil {
				item.Net = result.Net
			}
			summary.Succeeded++
			if onSettled != nil && result != nil {
				onSettled(result)
			}
		case errors.Is(err, ErrAlreadySettled):
			item.Outcome = "succeeded"
			item.Detail = "already processed"
			summary.Succeeded++
		default:
			item.Outcome = "failed"
			item.Detail = err.Error()
			summary.Failed++
		}
		summary.Items = append(summary.Items, item)
	}
	return summary
}
