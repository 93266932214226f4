package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// The dashboard's "today" window must start at the operator's midnight, not
// UTC midnight.
func TestStartOfDay(t *testing.T) {
	karachi := time.FixedZone("PKT", 5*3600)

	early := time.Date(2026, 8, 25, 1, 30, 0, 0, karachi)
	got := startOfDay(early)
	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, karachi), got)
	assert.Equal(t, karachi, got.Location())

	late := time.Date(2026, 8, 25, 23, 59, 59, 0, karachi)
	assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, karachi), startOfDay(late))

	// 01:30 PKT is still the previous day in UTC; the local window must not
	// slide back across it
	assert.True(t, startOfDay(early).After(early.UTC().Truncate(24*time.Hour)))
}
