package utils

import "github.com/shopspring/decimal"

// Round2 rounds a currency amount to two decimal places
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// SplitFee splits amount into a net payout and a platform fee for the given
// percentage rate. The fee is rounded to two decimals and the net is the
// exact remainder, so net + fee == amount always holds.
func SplitFee(amount, ratePercent float64) (net, fee float64) {
	a := decimal.NewFromFloat(amount)
	f := a.Mul(decimal.NewFromFloat(ratePercent)).Div(decimal.NewFromInt(100)).Round(2)
	n := a.Sub(f)
	fee, _ = f.Float64()
	net, _ = n.Float64()
	return net, fee
}
