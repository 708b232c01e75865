// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import (
	"github.com/Thermoquad/rotorcore/pkg/hal"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

// Motors records the commanded speeds, capped like the real ESC driver
type Motors struct {
	speeds [4]uint16
	Writes int
	Err    error

	// Record keeps every write in History when set
	Record  bool
	History [][4]uint16
}

// SetMotors implements hal.Motors
func (m *Motors) SetMotors(speeds [4]uint16) error {
	if m.Err != nil {
		return m.Err
	}
	for i, s := range speeds {
		if s > wire.MaxMotorSpeed {
			s = wire.MaxMotorSpeed
		}
		m.speeds[i] = s
	}
	m.Writes++
	if m.Record {
		m.History = append(m.History, m.speeds)
	}
	return nil
}

// Motors implements hal.Motors
func (m *Motors) Motors() [4]uint16 {
	return m.speeds
}

// Leds tracks the state of the four status LEDs
type Leds struct {
	state [4]bool
}

// LedOn implements hal.Indicators
func (l *Leds) LedOn(led hal.Led) {
	if int(led) < len(l.state) {
		l.state[led] = true
	}
}

// LedOff implements hal.Indicators
func (l *Leds) LedOff(led hal.Led) {
	if int(led) < len(l.state) {
		l.state[led] = false
	}
}

// LedToggle implements hal.Indicators
func (l *Leds) LedToggle(led hal.Led) {
	if int(led) < len(l.state) {
		l.state[led] = !l.state[led]
	}
}

// On reports whether led is lit
func (l *Leds) On(led hal.Led) bool {
	return int(led) < len(l.state) && l.state[led]
}
