// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import "github.com/Thermoquad/rotorcore/pkg/fixed"

// Command is one decoded protocol message. The set of implementations is
// closed; use a type switch to inspect the payload.
type Command interface {
	Kind() Kind
	command()
}

// Exit asks the ground station to terminate
type Exit struct{}

// KeepAlive carries no payload; any valid message resets the link watchdog
type KeepAlive struct{}

// ModeChange requests (inbound) or announces (outbound) a flight mode
type ModeChange struct {
	Mode Mode
}

// SetGain sets the P or D gain of one axis controller. The drone echoes the
// command back with the stored value.
type SetGain struct {
	Axis  Axis
	Term  Term
	Value int16
}

// SetReference sets a joystick reference for one axis
type SetReference struct {
	Axis  Axis
	Value fixed.Num
}

// SetThrottle sets the joystick throttle reference
type SetThrottle struct {
	Value int16
}

// ReferenceBack echoes the joystick reference of one axis
type ReferenceBack struct {
	Axis  Axis
	Value fixed.Num
}

// ThrottleBack echoes the joystick throttle reference
type ThrottleBack struct {
	Value int16
}

// Attitude reports the estimated angle of one axis
type Attitude struct {
	Axis  Axis
	Value fixed.Num
}

// Height reports the scaled barometric height
type Height struct {
	Value fixed.Num
}

// Time reports a duration in microseconds
type Time struct {
	Micros uint64
}

// Speed reports the throttle computed by the height controller
type Speed struct {
	Value fixed.Num
}

// Datalog is a flight data snapshot persisted to flash
type Datalog struct {
	Mode       Mode
	YPR        [3]fixed.Num
	RawYPR     [3]fixed.Num
	Motors     [4]uint16
	TimeMillis uint32
	Speed      fixed.Num
}

// Motors reports all four motor speeds
type Motors struct {
	Speeds [4]uint16
}

// MotorValue reports the speed of a single motor, Index 0..3
type MotorValue struct {
	Index uint8
	Speed uint16
}

// BatteryCheck reports the raw battery reading
type BatteryCheck struct {
	Level uint16
}

func (Exit) Kind() Kind {
	return KindExit
}

func (KeepAlive) Kind() Kind {
	return KindKeepAlive
}

func (ModeChange) Kind() Kind {
	return KindModeChange
}

func (SetThrottle) Kind() Kind {
	return KindThrottleSet
}

func (ThrottleBack) Kind() Kind {
	return KindThrottleBack
}

func (Height) Kind() Kind {
	return KindHeight
}

func (Time) Kind() Kind {
	return KindTime
}

func (Speed) Kind() Kind {
	return KindSpeed
}

func (Datalog) Kind() Kind {
	return KindDatalog
}

func (Motors) Kind() Kind {
	return KindMotor
}

func (BatteryCheck) Kind() Kind {
	return KindBatteryCheck
}

func (c SetGain) Kind() Kind {
	return KindYawPSet + Kind(c.Axis)*2 + Kind(c.Term)
}

func (c SetReference) Kind() Kind {
	return KindYawSet + Kind(c.Axis)
}

func (c ReferenceBack) Kind() Kind {
	return KindYawBack + Kind(c.Axis)
}

func (c Attitude) Kind() Kind {
	return KindTrueYaw + Kind(c.Axis)
}

func (c MotorValue) Kind() Kind {
	return KindMotor1 + Kind(c.Index)
}

func (Exit) command() {}
func (KeepAlive) command() {}
func (ModeChange) command() {}
func (SetGain) command() {}
func (SetReference) command() {}
func (SetThrottle) command() {}
func (ReferenceBack) command() {}
func (ThrottleBack) command() {}
func (Attitude) command() {}
func (Height) command() {}
func (Time) command() {}
func (Speed) command() {}
func (Datalog) command() {}
func (Motors) command() {}
func (MotorValue) command() {}
func (BatteryCheck) command() {}
