// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package percent implements the 18-decimal fixed-point fractions used to
// express compound split percentages. A fraction of Scale() is 100%.
package percent

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits carried by a fraction.
const Decimals = 18

var scale = uint256.NewInt(1_000_000_000_000_000_000)

var (
	ErrOutOfRange = errors.New("fraction exceeds 100%")
	ErrOverflow   = errors.New("fraction sum overflow")
	ErrParse      = errors.New("invalid percentage")
)

// Scale returns the fraction representing 100%.
func Scale() *uint256.Int {
	return new(uint256.Int).Set(scale)
}

// Zero returns a zero fraction.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// InRange reports whether 0 <= f <= Scale(). A nil fraction counts as zero.
func InRange(f *uint256.Int) bool {
	return f == nil || !f.Gt(scale)
}

// Proportion returns floor(amount * f / Scale()).
// The product is computed with a 512-bit intermediate so it never overflows,
// and the result never exceeds amount.
func Proportion(amount, f *uint256.Int) (*uint256.Int, error) {
	if amount == nil || f == nil || amount.IsZero() || f.IsZero() {
		return new(uint256.Int), nil
	}
	if f.Gt(scale) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, f.Dec())
	}
	out, overflow := new(uint256.Int).MulDivOverflow(amount, f, scale)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s", ErrOverflow, amount.Dec(), f.Dec())
	}
	return out, nil
}

// Sum adds parts together. The boolean is false on overflow.
func Sum(parts []*uint256.Int) (*uint256.Int, bool) {
	total := new(uint256.Int)
	for _, p := range parts {
		if p == nil {
			continue
		}
		if _, overflow := total.AddOverflow(total, p); overflow {
			return nil, false
		}
	}
	return total, true
}

// ValidateSplit reports whether parts is a complete split: either empty, or
// every part within range and the parts summing to exactly Scale().
func ValidateSplit(parts []*uint256.Int) bool {
	if len(parts) == 0 {
		return true
	}
	for _, p := range parts {
		if !InRange(p) {
			return false
		}
	}
	total, ok := Sum(parts)
	return ok && total.Eq(scale)
}

// Parse converts a decimal fraction such as "0.35" (35%) into fixed point.
// At most Decimals fractional digits are accepted.
func Parse(s string) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrParse, s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w %q: negative", ErrParse, s)
	}
	if d.Exponent() < -Decimals {
		return nil, fmt.Errorf("%w %q: more than %d decimals", ErrParse, s, Decimals)
	}
	f, overflow := uint256.FromBig(d.Shift(Decimals).BigInt())
	if overflow {
		return nil, fmt.Errorf("%w %q: overflow", ErrParse, s)
	}
	return f, nil
}

// MustParse is Parse for constants and tests. It panics on error.
func MustParse(s string) *uint256.Int {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Format renders f as a decimal fraction, e.g. 0.35.
func Format(f *uint256.Int) string {
	if f == nil {
		return "0"
	}
	return decimal.NewFromBigInt(f.ToBig(), -Decimals).String()
}
