// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Quantity represents an on-hand quantity or a signed ledger delta with
// full precision. Uses decimal.Decimal so that summing ledger deltas
// reproduces the current balance exactly, with no floating-point drift.
// Maps onto Postgres NUMERIC(18,4) via the pgx shopspring codec.
type Quantity = decimal.Decimal

// NewQuantity creates a Quantity from a float.
// WARNING: Use QuantityFromString for values coming off the wire.
func NewQuantity(f float64) Quantity {
	return decimal.NewFromFloat(f)
}

// QuantityFromString creates a Quantity from a decimal string.
func QuantityFromString(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity creates a Quantity from a string, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ZeroQuantity returns the zero quantity.
func ZeroQuantity() Quantity {
	return decimal.Zero
}
