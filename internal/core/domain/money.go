package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientCredit = errors.New("not enough credit")
	ErrInvalidTier        = errors.New("apiLevel must be a non-negative integer")
)

// satoshiExp is the exponent between minor and major units of the swept asset.
const satoshiExp = -8

// RoundCents rounds to two decimal places, half away from zero.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MinorToMajor converts satoshis to whole coins.
func MinorToMajor(minor int64) decimal.Decimal {
	return decimal.New(minor, satoshiExp)
}
