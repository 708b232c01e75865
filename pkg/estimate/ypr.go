// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package estimate turns motion sensor samples into yaw/pitch/roll angles.
//
// Fused derives the angles from the quaternion computed by the motion
// processor. Raw runs a complementary filter per axis on raw accelerometer
// and gyroscope counts. Both are integer-only and deterministic.
package estimate

import (
	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/hal"
)

// YPR is a yaw/pitch/roll triple in radians
type YPR struct {
	Yaw, Pitch, Roll fixed.Num
}

// Add returns the element-wise sum
func (a YPR) Add(b YPR) YPR {
	return YPR{a.Yaw + b.Yaw, a.Pitch + b.Pitch, a.Roll + b.Roll}
}

// Sub returns the element-wise difference
func (a YPR) Sub(b YPR) YPR {
	return YPR{a.Yaw - b.Yaw, a.Pitch - b.Pitch, a.Roll - b.Roll}
}

// Scale multiplies every element by k
func (a YPR) Scale(k fixed.Num) YPR {
	return YPR{a.Yaw.Mul(k), a.Pitch.Mul(k), a.Roll.Mul(k)}
}

// Div divides every element by k
func (a YPR) Div(k fixed.Num) YPR {
	return YPR{a.Yaw.Div(k), a.Pitch.Div(k), a.Roll.Div(k)}
}

// Array returns the triple in yaw, pitch, roll order
func (a YPR) Array() [3]fixed.Num {
	return [3]fixed.Num{a.Yaw, a.Pitch, a.Roll}
}

// FromQuaternion converts an orientation quaternion to Euler angles
func FromQuaternion(q hal.Quaternion) YPR {
	two := fixed.FromInt(2)
	w, x, y, z := q.W, q.X, q.Y, q.Z

	yaw := fixed.Atan2(
		two.Mul(x.Mul(y))-two.Mul(w.Mul(z)),
		two.Mul(w.Mul(w))+two.Mul(x.Mul(x))-fixed.One,
	)

	// Gravity vector in the body frame
	gx := two.Mul(x.Mul(z) - w.Mul(y))
	gy := two.Mul(w.Mul(x) + y.Mul(z))
	gz := w.Mul(w) - x.Mul(x) - y.Mul(y) + z.Mul(z)

	pitch := fixed.Atan2(gx, (gy.Mul(gy) + gz.Mul(gz)).Sqrt())
	roll := fixed.Atan2(gy, gz)

	return YPR{Yaw: yaw, Pitch: pitch, Roll: roll}
}
