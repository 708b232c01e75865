// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package hal declares the hardware capabilities the flight core needs.
// The core never touches devices directly; the firmware target, the bench
// simulator and the tests each supply their own Hardware.
package hal

import (
	"time"

	"github.com/Thermoquad/rotorcore/pkg/fixed"
)

// Quaternion is the fused orientation reported by the motion processor
type Quaternion struct {
	W, X, Y, Z fixed.Num
}

// RawSample is one raw accelerometer and gyroscope reading, in sensor counts
// (gyro in degrees per second)
type RawSample struct {
	Accel [3]int16
	Gyro  [3]int16
}

// IMU provides fused and raw motion samples
type IMU interface {
	ReadOrientation() (Quaternion, error)
	ReadRaw() (RawSample, error)
}

// Barometer provides the raw pressure reading
type Barometer interface {
	ReadPressure() (uint32, error)
}

// Battery provides the raw battery reading in ADC units
type Battery interface {
	ReadBattery() (uint16, error)
}

// Motors drives the four ESCs. Implementations cap every speed at
// wire.MaxMotorSpeed.
type Motors interface {
	SetMotors(speeds [4]uint16) error
	Motors() [4]uint16
}

// Link is the byte link to the ground station. Receive never blocks: it
// returns 0 when nothing is pending.
type Link interface {
	Receive(buf []byte) (int, error)
	Send(data []byte) error
}

// Flash is the external flash chip holding the datalog
type Flash interface {
	ReadBlock(addr uint32, buf []byte) error
	WriteBlock(addr uint32, data []byte) error
	EraseChip() error
}

// Led identifies a status LED
type Led uint8

// Status LEDs
const (
	LedRed Led = iota
	LedYellow
	LedGreen
	LedBlue
)

func (l Led) String() string {
	switch l {
	case LedRed:
		return "red"
	case LedYellow:
		return "yellow"
	case LedGreen:
		return "green"
	case LedBlue:
		return "blue"
	}
	return "led?"
}

// Indicators drives the status LEDs
type Indicators interface {
	LedOn(l Led)
	LedOff(l Led)
	LedToggle(l Led)
}

// Clock is the tick source. Now is the time since boot.
type Clock interface {
	Now() time.Duration
	WaitForNextTick()
	Delay(d time.Duration)
}

// Hardware bundles every capability of one board
type Hardware struct {
	IMU        IMU
	Barometer  Barometer
	Battery    Battery
	Motors     Motors
	Link       Link
	Flash      Flash
	Indicators Indicators
	Clock      Clock
}
