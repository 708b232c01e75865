// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package fixed provides the Q22.10 signed fixed-point number used for every
// physical quantity in the flight core.
//
// A Num carries 22 integer bits (including sign) and 10 fractional bits in an
// int32. Addition, subtraction and negation use the native int32 operators and
// wrap on overflow. Mul and Div use a 64-bit intermediate and also wrap when the
// result leaves the int32 range. Every operation is integer-only, so results are
// bit-identical on every platform; the raw bit pattern is what goes on the wire.
package fixed

import (
	"math"
	"strconv"

	"golang.org/x/exp/constraints"
)

// FracBits is the number of fractional bits
const FracBits = 10

// Num is a Q22.10 fixed-point number
type Num int32

// Well-known values
const (
	Zero  Num = 0
	One   Num = 1 << FracBits
	Half  Num = One / 2
	Pi    Num = 3217 // round(pi * 1024)
	TwoPi Num = 2 * Pi
	Max   Num = math.MaxInt32
	Min   Num = math.MinInt32
)

// FromInt converts an integer to a Num
func FromInt[T constraints.Integer](v T) Num {
	return Num(int64(v) << FracBits)
}

// FromFloat converts a float to the nearest Num, ties to even.
// Values outside the representable range saturate.
func FromFloat(f float64) Num {
	v := math.RoundToEven(f * float64(One))
	switch {
	case math.IsNaN(v):
		return Zero
	case v >= math.MaxInt32:
		return Max
	case v <= math.MinInt32:
		return Min
	}
	return Num(v)
}

// FromBits reinterprets a raw bit pattern as a Num
func FromBits(bits int32) Num {
	return Num(bits)
}

// Bits returns the raw bit pattern
func (n Num) Bits() int32 {
	return int32(n)
}

// Int returns the integer part, rounded toward negative infinity
func (n Num) Int() int32 {
	return int32(n >> FracBits)
}

// Uint16 returns the integer part clamped to [0, 65535]
func (n Num) Uint16() uint16 {
	v := n.Int()
	if v < 0 {
		return 0
	}
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

// Float returns the value as a float64 (display and tests only)
func (n Num) Float() float64 {
	return float64(n) / float64(One)
}

// Mul returns n*m, rounded toward negative infinity
func (n Num) Mul(m Num) Num {
	return Num((int64(n) * int64(m)) >> FracBits)
}

// Div returns n/m, truncated toward zero. Division by zero saturates to Max or
// Min according to the sign of n (zero stays zero).
func (n Num) Div(m Num) Num {
	if m == 0 {
		switch {
		case n > 0:
			return Max
		case n < 0:
			return Min
		}
		return Zero
	}
	return Num((int64(n) << FracBits) / int64(m))
}

// Sqrt returns the square root, rounded down. Negative inputs yield zero.
func (n Num) Sqrt() Num {
	if n <= 0 {
		return Zero
	}
	return Num(isqrt(uint64(n) << FracBits))
}

// String renders the value with three decimals
func (n Num) String() string {
	return strconv.FormatFloat(n.Float(), 'f', 3, 64)
}

func isqrt(v uint64) uint64 {
	var r uint64
	bit := uint64(1) << 62
	for bit > v {
		bit >>= 2
	}
	for bit != 0 {
		if v >= r+bit {
			v -= r + bit
			r = r>>1 + bit
		} else {
			r >>= 1
		}
		bit >>= 2
	}
	return r
}
