// Package units converts between human amounts and integer base units.
package units

import (
	"errors"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are not positive and finite,
// or that floor to zero base units.
var ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// ToBaseUnits scales amount by 10^decimals and truncates the remainder.
// It never rounds up, so a converted amount never exceeds what the user typed.
func ToBaseUnits(amount float64, decimals uint8) (uint64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, ErrInvalidAmount
	}

	d := decimal.NewFromFloat(amount).Shift(int32(decimals)).Floor()
	if !d.IsPositive() || d.GreaterThan(maxUint64) {
		return 0, ErrInvalidAmount
	}
	return d.BigInt().Uint64(), nil
}

// FromBaseUnits returns amount / 10^decimals exactly.
func FromBaseUnits(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}

// FromBaseUnitsFloat is FromBaseUnits for display and balance comparisons.
func FromBaseUnitsFloat(amount uint64, decimals uint8) float64 {
	return FromBaseUnits(amount, decimals).InexactFloat64()
}

// Format renders a base amount with a fixed number of places, e.g. "48.00".
func Format(amount uint64, decimals uint8, places int32) string {
	return FromBaseUnits(amount, decimals).StringFixed(places)
}

// FormatHuman renders a user-entered amount without trailing zeros.
func FormatHuman(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
