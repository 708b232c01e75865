// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package estimate

import (
	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/hal"
)

// DegToRad converts gyro counts (deg/s) to rad/s
var DegToRad = fixed.FromFloat(0.017)

// Fused derives attitude from the motion processor quaternion.
// Pitch is negated; yaw and roll are unwrapped.
type Fused struct {
	yaw  Unwrapper
	roll Unwrapper
}

// Update converts one quaternion sample
func (f *Fused) Update(q hal.Quaternion) YPR {
	a := FromQuaternion(q)
	return YPR{
		Yaw:   f.yaw.Unwrap(a.Yaw),
		Pitch: -a.Pitch,
		Roll:  f.roll.Unwrap(a.Roll),
	}
}

// Reset clears the unwrap offsets
func (f *Fused) Reset() {
	f.yaw.Reset()
	f.roll.Reset()
}

// Raw estimates attitude from raw accelerometer and gyro samples.
//
// Pitch and roll come from complementary filters (pitch pairs the gyro y
// rate with atan2(ax, az), roll the gyro x rate with atan2(ay, az)). Yaw is
// the low-passed gyro z rate, not an angle. Pitch is negated and roll
// unwrapped on output.
type Raw struct {
	TickRate fixed.Num

	pitch ComplementaryAxis
	roll  ComplementaryAxis
	yaw   *LowPass
	unw   Unwrapper
}

// NewRaw creates a raw estimator running at tickRate Hz
func NewRaw(tickRate int) *Raw {
	return &Raw{
		TickRate: fixed.FromInt(tickRate),
		pitch:    NewComplementaryAxis(),
		roll:     NewComplementaryAxis(),
		yaw:      NewLowPass(DefaultSampleRate, DefaultCutoff),
	}
}

// Update feeds one raw sample
func (r *Raw) Update(s hal.RawSample) YPR {
	ax := fixed.FromInt(s.Accel[0])
	ay := fixed.FromInt(s.Accel[1])
	az := fixed.FromInt(s.Accel[2])

	gx := fixed.FromInt(s.Gyro[0]).Mul(DegToRad)
	gy := fixed.FromInt(s.Gyro[1]).Mul(DegToRad)
	gz := fixed.FromInt(s.Gyro[2]).Mul(DegToRad)

	pitch := r.pitch.Update(gy, fixed.Atan2(ax, az), r.TickRate)
	roll := r.roll.Update(gx, fixed.Atan2(ay, az), r.TickRate)
	yaw := r.yaw.Filter(gz)

	return YPR{Yaw: yaw, Pitch: -pitch, Roll: r.unw.Unwrap(roll)}
}

// Reset clears the roll unwrap offset
func (r *Raw) Reset() {
	r.unw.Reset()
}
