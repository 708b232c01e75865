// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package flight implements the drone's flight mode state machine and the
// per-mode control laws.
//
// The Drone is driven by the tick scheduler: every inbound command goes
// through ProcessCommand and the active mode's law runs once per tick in
// Operate. Nothing in here is safe for concurrent use; the core is single
// threaded.
package flight

import (
	"fmt"
	"time"

	"github.com/Thermoquad/rotorcore/pkg/control"
	"github.com/Thermoquad/rotorcore/pkg/datalog"
	"github.com/Thermoquad/rotorcore/pkg/estimate"
	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/hal"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

// Drone holds the complete flight state
type Drone struct {
	hw  hal.Hardware
	log *datalog.Log

	mode     wire.Mode
	tickRate fixed.Num

	// Joystick references
	js         estimate.YPR
	jsThrottle int16

	fused *estimate.Fused
	raw   *estimate.Raw

	sensor         estimate.YPR // fused attitude, calibrated
	rawYPR         estimate.YPR // raw attitude, calibrated
	lastRaw        hal.RawSample
	prevControl    estimate.YPR // fused attitude at the end of the last control tick
	calibration    estimate.YPR
	calibrationRaw estimate.YPR

	prevErr [3]fixed.Num
	output  estimate.YPR
	pids    [3]control.PID

	height  *Height
	linkAge time.Duration
}

// New creates a drone in Safe mode
func New(hw hal.Hardware, log *datalog.Log, tickRate int) *Drone {
	return &Drone{
		hw:       hw,
		log:      log,
		mode:     wire.ModeSafe,
		tickRate: fixed.FromInt(tickRate),
		fused:    &estimate.Fused{},
		raw:      estimate.NewRaw(tickRate),
		height:   NewHeight(),
	}
}

// Mode returns the current flight mode
func (d *Drone) Mode() wire.Mode { return d.mode }

// Joystick returns the joystick references
func (d *Drone) Joystick() (estimate.YPR, int16) { return d.js, d.jsThrottle }

// Gains returns the controller of one axis
func (d *Drone) Gains(axis wire.Axis) control.PID { return d.pids[axis] }

// Output returns the last yaw/pitch/roll control outputs fed to the mixer
func (d *Drone) Output() estimate.YPR { return d.output }

// Attitude returns the last calibrated fused and raw attitudes
func (d *Drone) Attitude() (fused, raw estimate.YPR) { return d.sensor, d.rawYPR }

// Calibration returns the fused and raw calibration offsets
func (d *Drone) Calibration() (fused, raw estimate.YPR) { return d.calibration, d.calibrationRaw }

// Height returns the height-hold state
func (d *Drone) Height() *Height { return d.height }

// LinkAge returns the time since the last inbound byte, as passed to Operate
func (d *Drone) LinkAge() time.Duration { return d.linkAge }

// IsOperation reports whether m is an operation mode. Operation modes can
// only be left for Safe or Panic.
func IsOperation(m wire.Mode) bool {
	switch m {
	case wire.ModeManual, wire.ModeCalibration, wire.ModeYawControlled,
		wire.ModeFullControl, wire.ModeRaw, wire.ModeHeight:
		return true
	}
	return false
}

// IsFlying reports whether m is an operation mode that flies from joystick
// references
func IsFlying(m wire.Mode) bool {
	return IsOperation(m) && m != wire.ModeCalibration
}

// ProcessCommand applies one inbound command. Mode changes always go through
// the transition rule; every other command only has an effect while flying.
func (d *Drone) ProcessCommand(cmd wire.Command) error {
	if mc, ok := cmd.(wire.ModeChange); ok {
		return d.changeMode(mc.Mode)
	}
	if !IsFlying(d.mode) {
		return nil
	}

	switch c := cmd.(type) {
	case wire.SetThrottle:
		d.jsThrottle = c.Value
	case wire.SetReference:
		d.setRef(c.Axis, c.Value)
	case wire.SetGain:
		if c.Axis > wire.AxisRoll {
			return nil
		}
		pid := &d.pids[c.Axis]
		v := fixed.FromInt(c.Value)
		if c.Term == wire.TermP {
			pid.P = v
		} else {
			pid.D = v
		}
		return d.Send(wire.SetGain{Axis: c.Axis, Term: c.Term, Value: int16(v.Int())})
	}
	return nil
}

func (d *Drone) setRef(axis wire.Axis, v fixed.Num) {
	switch axis {
	case wire.AxisYaw:
		d.js.Yaw = v
	case wire.AxisPitch:
		d.js.Pitch = v
	case wire.AxisRoll:
		d.js.Roll = v
	}
}

// changeMode applies the transition rule. Rejected requests are dropped
// without a reply.
func (d *Drone) changeMode(m wire.Mode) error {
	if !m.Valid() {
		return nil
	}
	if IsOperation(d.mode) {
		if m != wire.ModeSafe && m != wire.ModePanic {
			return nil
		}
	} else if m == d.mode {
		return nil
	}

	ind := d.hw.Indicators
	ind.LedOff(hal.LedRed)
	ind.LedOff(hal.LedGreen)
	ind.LedOff(hal.LedYellow)

	if m == wire.ModeLogOut {
		d.log.Rewind()
	}
	d.mode = m
	return d.Send(wire.ModeChange{Mode: m})
}

// Send encodes commands as live frames and transmits them in one write
func (d *Drone) Send(cmds ...wire.Command) error {
	data, err := wire.EncodeLiveBatch(cmds...)
	if err != nil {
		return err
	}
	if err := d.hw.Link.Send(data); err != nil {
		return fmt.Errorf("link send: %w", err)
	}
	return nil
}

func (d *Drone) readFused() error {
	q, err := d.hw.IMU.ReadOrientation()
	if err != nil {
		return fmt.Errorf("read orientation: %w", err)
	}
	ypr := d.fused.Update(q)
	if d.mode != wire.ModeCalibration {
		ypr = ypr.Sub(d.calibration)
	}
	d.sensor = ypr
	return nil
}

func (d *Drone) readRaw() error {
	s, err := d.hw.IMU.ReadRaw()
	if err != nil {
		return fmt.Errorf("read raw motion: %w", err)
	}
	d.lastRaw = s
	ypr := d.raw.Update(s)
	if d.mode != wire.ModeCalibration {
		ypr = ypr.Sub(d.calibrationRaw)
	}
	d.rawYPR = ypr
	return nil
}

func (d *Drone) setMotors(speeds [4]uint16) error {
	if err := d.hw.Motors.SetMotors(speeds); err != nil {
		return fmt.Errorf("set motors: %w", err)
	}
	return nil
}
