// Package core holds the reward points formula and the aggregation engine.
//
// This file contains amount parsing helpers shared by the record sources
// and the ingestion endpoints.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative
// values parse successfully; rejecting them is the aggregator's job so that
// the failure surfaces as ErrInvalidTransaction.
//
// Examples:
//
//	ParseAmount("120")    -> 120
//	ParseAmount("80,50")  -> 80.5
//	ParseAmount("-5")     -> -5
//	ParseAmount("abc")    -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// WholeDollars truncates the amount toward zero.
func WholeDollars(amount decimal.Decimal) int64 {
	return amount.Truncate(0).IntPart()
}
