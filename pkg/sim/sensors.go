// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import (
	"math"

	"github.com/westphae/quaternion"

	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/hal"
)

// IMU reports a scripted attitude. Raw accelerometer counts are derived from
// the attitude so both estimators agree; gyro rates are set directly.
type IMU struct {
	Q    quaternion.Quaternion
	Gyro [3]int16
	Err  error
}

// NewIMU returns a level IMU
func NewIMU() *IMU {
	return &IMU{Q: quaternion.Quaternion{W: 1}}
}

// SetAttitude sets the orientation from Euler angles in radians, applied in
// yaw, pitch, roll order
func (m *IMU) SetAttitude(yaw, pitch, roll float64) {
	m.Q = quaternion.Prod(
		axisAngle(yaw, 0, 0, 1),
		axisAngle(pitch, 0, 1, 0),
		axisAngle(roll, 1, 0, 0),
	)
}

func axisAngle(angle, x, y, z float64) quaternion.Quaternion {
	s := math.Sin(angle / 2)
	return quaternion.Quaternion{W: math.Cos(angle / 2), X: x * s, Y: y * s, Z: z * s}
}

// ReadOrientation implements hal.IMU
func (m *IMU) ReadOrientation() (hal.Quaternion, error) {
	if m.Err != nil {
		return hal.Quaternion{}, m.Err
	}
	return hal.Quaternion{
		W: fixed.FromFloat(m.Q.W),
		X: fixed.FromFloat(m.Q.X),
		Y: fixed.FromFloat(m.Q.Y),
		Z: fixed.FromFloat(m.Q.Z),
	}, nil
}

// ReadRaw implements hal.IMU
func (m *IMU) ReadRaw() (hal.RawSample, error) {
	if m.Err != nil {
		return hal.RawSample{}, m.Err
	}

	// Gravity seen from the body frame
	g := quaternion.Prod(m.Q.Conj(), quaternion.Quaternion{Z: 1}, m.Q)
	return hal.RawSample{
		Accel: [3]int16{counts(g.X), counts(g.Y), counts(g.Z)},
		Gyro:  m.Gyro,
	}, nil
}

func counts(g float64) int16 {
	return int16(math.Round(g * GravityCounts))
}

// Barometer reports a settable pressure
type Barometer struct {
	Pressure uint32
	Err      error
}

// ReadPressure implements hal.Barometer
func (b *Barometer) ReadPressure() (uint32, error) {
	return b.Pressure, b.Err
}

// Battery reports a settable level
type Battery struct {
	Level uint16
	Err   error
}

// ReadBattery implements hal.Battery
func (b *Battery) ReadBattery() (uint16, error) {
	return b.Level, b.Err
}
