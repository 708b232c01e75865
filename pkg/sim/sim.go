// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sim provides in-memory implementations of every hal capability.
// There is no physics: sensors report whatever the test or bench sets, and
// actuators only record what they were told.
package sim

import (
	"github.com/Thermoquad/rotorcore/pkg/hal"
)

// Default sensor readings of a board sitting level on a bench
const (
	DefaultPressure = 101325
	DefaultBattery  = 1100
	GravityCounts   = 16384
)

// Board groups one simulated instance of every device
type Board struct {
	IMU       *IMU
	Barometer *Barometer
	Battery   *Battery
	Motors    *Motors
	Link      *Link
	Flash     *Flash
	Leds      *Leds
	Clock     *ManualClock
}

// NewBoard returns a level board with a manual clock ticking at tickRate Hz
func NewBoard(tickRate int) *Board {
	return &Board{
		IMU:       NewIMU(),
		Barometer: &Barometer{Pressure: DefaultPressure},
		Battery:   &Battery{Level: DefaultBattery},
		Motors:    &Motors{},
		Link:      &Link{},
		Flash:     NewFlash(),
		Leds:      &Leds{},
		Clock:     NewManualClock(tickRate),
	}
}

// Hardware exposes the board through the hal interfaces
func (b *Board) Hardware() hal.Hardware {
	return hal.Hardware{
		IMU:        b.IMU,
		Barometer:  b.Barometer,
		Battery:    b.Battery,
		Motors:     b.Motors,
		Link:       b.Link,
		Flash:      b.Flash,
		Indicators: b.Leds,
		Clock:      b.Clock,
	}
}
