package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"whole amount", 200, 200},
		{"two decimals kept", 19.99, 19.99},
		{"rounds up", 10.005, 10.01},
		{"rounds down", 10.004, 10.00},
		{"negative amount", -10.005, -10.01},
		{"float noise collapses", 219.99999999999997, 220},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round2(tt.in))
		})
	}
}

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		rate    float64
		wantNet float64
		wantFee float64
	}{
		{"five percent deposit fee", 1000, 5, 950, 50},
		{"commission on task reward", 200, 10, 180, 20},
		{"fractional rate", 100, 2.5, 97.5, 2.5},
		{"sub-cent fee rounds", 33.33, 7.5, 30.83, 2.50},
		{"zero rate keeps amount", 75.25, 0, 75.25, 0},
		{"full rate", 40, 100, 0, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, fee := SplitFee(tt.amount, tt.rate)
			assert.Equal(t, tt.wantNet, net)
			assert.Equal(t, tt.wantFee, fee)
		})
	}
}

// The split must conserve money: whatever the fee rounds to, net absorbs
// the remainder so nothing is created or destroyed.
func TestSplitFeeConservation(t *testing.T) {
	amounts := []float64{0.01, 0.99, 1, 19.47, 33.33, 100, 249.99, 1000, 123456.78}
	rates := []float64{0, 0.1, 2.5, 5, 7.5, 10, 33.33, 50, 100}

	for _, amount := range amounts {
		for _, rate := range rates {
			net, fee := SplitFee(amount, rate)
			require.InDelta(t, amount, net+fee, 1e-9,
				"amount %.2f at rate %.2f split into %.2f + %.2f", amount, rate, net, fee)
			require.GreaterOrEqual(t, fee, 0.0)
		}
	}
}
