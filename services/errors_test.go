package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestInsufficientBalanceError(t *testing.T) {
	err := &InsufficientBalanceError{Required: 220, Available: 150.5}

	assert.Equal(t, "insufficient balance: required 220.00, available 150.50", err.Error())
	assert.InDelta(t, 69.5, err.Shortfall(), 1e-9)
}

func TestIsInsufficientBalance(t *testing.T) {
	err := &InsufficientBalanceError{Required: 100, Available: 40}

	assert.True(t, IsInsufficientBalance(err))
	assert.True(t, IsInsufficientBalance(fmt.Errorf("settling withdrawal: %w", err)))
	assert.False(t, IsInsufficientBalance(ErrUserNotFound))
	assert.False(t, IsInsufficientBalance(nil))
}

func TestIsTransientTxnError(t *testing.T) {
	transient := mongo.CommandError{
		Code:    112,
		Message: "WriteConflict",
		Labels:  []string{"TransientTransactionError"},
	}
	assert.True(t, isTransientTxnError(transient))

	plain := mongo.CommandError{Code: 11000, Message: "duplicate key"}
	assert.False(t, isTransientTxnError(plain))
	assert.False(t, isTransientTxnError(errors.New("not a driver error")))
	assert.False(t, isTransientTxnError(ErrAlreadySettled))
}
