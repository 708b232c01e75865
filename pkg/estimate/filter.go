// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package estimate

import "github.com/Thermoquad/rotorcore/pkg/fixed"

// Default low-pass parameters: 100 Hz sampling, 10 Hz cutoff
const (
	DefaultSampleRate = 100
	DefaultCutoff     = 10
)

// LowPass is a first-order IIR low-pass filter:
//
//	y = b0*x + b1*x[-1] + a1*y[-1]
//
// with n = fs/fc, b0 = b1 = 1/(2n) and a1 = 1 - 1/n.
type LowPass struct {
	b0, b1, a1 fixed.Num
	x1, y1     fixed.Num
}

// NewLowPass builds a filter for sample rate fs and cutoff fc (both Hz)
func NewLowPass(fs, fc int) *LowPass {
	n := fs / fc
	if n < 1 {
		n = 1
	}
	b := fixed.One.Div(fixed.FromInt(2 * n))
	return &LowPass{
		b0: b,
		b1: b,
		a1: fixed.One - fixed.One.Div(fixed.FromInt(n)),
	}
}

// Filter feeds one sample and returns the filtered value
func (f *LowPass) Filter(x fixed.Num) fixed.Num {
	y := f.b0.Mul(x) + f.b1.Mul(f.x1) + f.a1.Mul(f.y1)
	f.x1 = x
	f.y1 = y
	return y
}

// Prime seeds the input and output history with v
func (f *LowPass) Prime(v fixed.Num) {
	f.x1 = v
	f.y1 = v
}

// Unwrapper removes the ±Pi discontinuity from a wrapped angle stream.
// Each crossing from above +2.5 to below -2.5 adds 2Pi to the offset and the
// reverse crossing removes 2Pi.
type Unwrapper struct {
	prev   fixed.Num
	offset fixed.Num
}

var wrapThreshold = fixed.FromFloat(2.5)

// Unwrap returns the continuous angle for the wrapped sample v
func (u *Unwrapper) Unwrap(v fixed.Num) fixed.Num {
	switch {
	case u.prev > wrapThreshold && v < -wrapThreshold:
		u.offset += fixed.TwoPi
	case u.prev < -wrapThreshold && v > wrapThreshold:
		u.offset -= fixed.TwoPi
	}
	u.prev = v
	return v + u.offset
}

// Offset returns the accumulated unwrap offset
func (u *Unwrapper) Offset() fixed.Num {
	return u.offset
}

// Reset clears the offset and the sample history
func (u *Unwrapper) Reset() {
	*u = Unwrapper{}
}

// ComplementaryAxis fuses a gyro rate with an accelerometer angle for one
// axis and tracks the gyro bias.
type ComplementaryAxis struct {
	Angle fixed.Num
	Bias  fixed.Num
	C1    fixed.Num
	C2    fixed.Num
}

// Default complementary filter gains
var (
	DefaultC1 = fixed.FromInt(1)
	DefaultC2 = fixed.FromInt(1000)

	biasStep = fixed.FromFloat(0.01)
)

// NewComplementaryAxis returns an axis filter with the default gains
func NewComplementaryAxis() ComplementaryAxis {
	return ComplementaryAxis{C1: DefaultC1, C2: DefaultC2}
}

// Update advances the filter by one tick. rate is in rad/s, accAngle in rad
// and tickRate in Hz.
func (c *ComplementaryAxis) Update(rate, accAngle, tickRate fixed.Num) fixed.Num {
	predicted := c.Angle + (rate - c.Bias).Div(tickRate)
	e := predicted - accAngle
	c.Angle = predicted - e.Div(c.C1)
	c.Bias += e.Div(biasStep).Div(c.C2)
	return c.Angle
}
