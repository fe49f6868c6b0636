// Package core holds the ledger domain model shared by every component.
package core

import (
	"fmt"
	"math"
)

// Money is a currency-agnostic positive magnitude stored in cents so that
// arithmetic never goes through floating point.
type Money struct {
	Cents int64
}

// MoneyFromFloat converts an amount as produced by the classifier (a JSON
// number) into cents with half-up rounding on fractional cents.
func MoneyFromFloat(amount float64) Money {
	return Money{Cents: int64(math.Round(amount * 100))}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// String renders whole amounts without decimals ("20") and fractional
// amounts with two ("20.50"), matching how users type them.
func (m Money) String() string {
	if m.Cents%100 == 0 {
		return fmt.Sprintf("%d", m.Cents/100)
	}
	sign := ""
	cents := m.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
