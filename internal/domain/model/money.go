package model

import (
	"fmt"
	"math"
)

// Money is an EGP amount held in piastres (1/100 EGP). The gateway's minor units
// are the same value, so no conversion happens on the way out.
type Money int64

const CurrencyEGP = "EGP"

// MoneyFromEGP converts a decimal pound amount to piastres using round-half-even.
func MoneyFromEGP(egp float64) Money {
	return Money(math.RoundToEven(egp * 100))
}

// MinorUnits is the integer amount sent to the payment gateway.
func (m Money) MinorUnits() int64 { return int64(m) }

// String renders the amount with exactly two decimals, e.g. "8.00".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
