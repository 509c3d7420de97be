// Package core provides the ledger domain: money, dates, accounts,
// categories, transactions and their aggregates.
//
// This file contains money parsing and formatting. Amounts are held as
// integer cents and rendered through shopspring/decimal so no value ever
// passes through binary floating point.
package core

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxIntegerDigits bounds the integer part of an amount or fee.
const MaxIntegerDigits = 10

var amountPattern = regexp.MustCompile(`^\d{1,` + strconv.Itoa(MaxIntegerDigits) + `}(\.\d{1,2})?$`)

// Money is an exact amount in cents.
type Money struct {
	Cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// MoneyFromDecimal converts d to cents, truncating anything past two places.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).IntPart()}
}

// Decimal returns m as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats m with exactly two decimal places. Only negative values
// carry a sign.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return m.Neg()
	}
	return m
}

// ParseAmount parses a transaction amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, at most
// ten integer digits and at most two decimal places. Unlike a display parser
// it never rounds: "0.001" is an error, not 0.00. Zero and negative values
// are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 1234 cents
//	ParseAmount("12,3")  -> 1230 cents
//	ParseAmount("0.001") -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	m, err := parseMoney(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseFee parses a transfer fee. Same format as ParseAmount, but zero is
// allowed.
func ParseFee(s string) (Money, error) {
	m, err := parseMoney(s)
	if err != nil {
		return Money{}, ErrInvalidFee
	}
	return m, nil
}

func parseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if !amountPattern.MatchString(s) {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}
