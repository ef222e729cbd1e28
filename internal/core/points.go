package core

import "github.com/shopspring/decimal"

const (
	lowerTier = 50
	upperTier = 100
)

// CalculatePoints returns the reward points for a single purchase amount.
//
// 1 point per whole dollar spent over $50 up to $100, plus 2 points per whole
// dollar over $100. Cents never earn partial points.
func CalculatePoints(amount decimal.Decimal) int64 {
	dollars := WholeDollars(amount)
	switch {
	case dollars > upperTier:
		return (upperTier - lowerTier) + 2*(dollars-upperTier)
	case dollars > lowerTier:
		return dollars - lowerTier
	default:
		return 0
	}
}
