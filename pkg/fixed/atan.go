// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fixed

import "math"

// CORDIC angles are kept in Q2.30 radians and inputs are widened by
// cordicShift bits so that small vectors keep their resolution.
const (
	cordicIters = 28
	cordicShift = 20
	angleBits   = 30
)

var (
	atanTable [cordicIters]int64
	piQ30     = int64(math.Round(math.Pi * (1 << angleBits)))
)

func init() {
	for i := range atanTable {
		atanTable[i] = int64(math.Round(math.Atan(math.Ldexp(1, -i)) * (1 << angleBits)))
	}
}

// Atan2 returns the angle of the vector (x, y) in radians, in [-Pi, Pi].
// Atan2(0, 0) is zero.
func Atan2(y, x Num) Num {
	if x == 0 && y == 0 {
		return Zero
	}

	X := int64(x) << cordicShift
	Y := int64(y) << cordicShift
	var z int64

	// CORDIC vectoring converges for the right half plane only
	if X < 0 {
		X, Y = -X, -Y
		if y >= 0 {
			z = piQ30
		} else {
			z = -piQ30
		}
	}

	for i := 0; i < cordicIters; i++ {
		dx := Y >> i
		dy := X >> i
		if Y > 0 {
			X += dx
			Y -= dy
			z += atanTable[i]
		} else {
			X -= dx
			Y += dy
			z -= atanTable[i]
		}
	}

	const drop = angleBits - FracBits
	return Num((z + 1<<(drop-1)) >> drop)
}
