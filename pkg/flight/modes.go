// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package flight

import (
	"fmt"
	"time"

	"github.com/Thermoquad/rotorcore/pkg/control"
	"github.com/Thermoquad/rotorcore/pkg/estimate"
	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/hal"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

// CalibrationSamples is the number of samples averaged by Calibration
const CalibrationSamples = 20

// PanicDelays is the hold time of each stage of the Panic ramp-down
var PanicDelays = [4]time.Duration{
	40 * time.Millisecond,
	20 * time.Millisecond,
	20 * time.Millisecond,
	20 * time.Millisecond,
}

// Control law scales
var (
	yawRefScale  = fixed.FromInt(3)
	rawYawScale  = fixed.FromFloat(0.7)
	fullPScale   = fixed.FromInt(10)
	fullDScale   = fixed.FromInt(500)
	heightPScale = fixed.FromInt(10)
	heightDScale = fixed.FromInt(100)
	rawPitchP    = fixed.FromInt(15)
	rawPitchD    = fixed.FromInt(150)
	rawRollP     = fixed.FromInt(10)
	rawRollD     = fixed.FromInt(100)
	passThrough  = [3]fixed.Num{control.PassYaw, control.PassPitch, control.PassRoll}
	calibDivisor = fixed.FromInt(CalibrationSamples)
)

// Operate runs the current mode's control law for one tick. dt is the time
// since the last inbound byte.
func (d *Drone) Operate(dt time.Duration) error {
	d.linkAge = dt

	switch d.mode {
	case wire.ModeSafe:
		return d.operateSafe()
	case wire.ModePanic:
		return d.operatePanic()
	case wire.ModeManual:
		return d.operateManual()
	case wire.ModeCalibration:
		return d.operateCalibration()
	case wire.ModeYawControlled:
		return d.operateYawControlled()
	case wire.ModeFullControl:
		return d.operateFullControl()
	case wire.ModeRaw:
		return d.operateRaw()
	case wire.ModeHeight:
		return d.operateHeight()
	case wire.ModeLogOut:
		return d.operateLogOut()
	}
	return fmt.Errorf("no control law for mode %s", d.mode)
}

func (d *Drone) resetReferences() {
	d.js = estimate.YPR{}
	d.jsThrottle = 0
}

func (d *Drone) operateSafe() error {
	d.hw.Indicators.LedOn(hal.LedYellow)
	d.resetReferences()
	return d.setMotors([4]uint16{})
}

// operatePanic ramps the motors down from an eighth of their summed speed in
// four halving stages, stops them and drops to Safe
func (d *Drone) operatePanic() error {
	d.resetReferences()
	d.hw.Indicators.LedOn(hal.LedRed)

	var sum uint32
	for _, s := range d.hw.Motors.Motors() {
		sum += uint32(s)
	}
	stage := uint16(sum / 8)

	for i, hold := range PanicDelays {
		if i > 0 {
			stage /= 2
		}
		if err := d.setMotors([4]uint16{stage, stage, stage, stage}); err != nil {
			return err
		}
		d.hw.Clock.Delay(hold)
	}

	if err := d.setMotors([4]uint16{}); err != nil {
		return err
	}
	d.hw.Indicators.LedOff(hal.LedRed)
	return d.changeMode(wire.ModeSafe)
}

func (d *Drone) operateManual() error {
	d.hw.Indicators.LedOn(hal.LedGreen)
	d.output = estimate.YPR{
		Yaw:   control.PassYaw.Mul(d.js.Yaw),
		Pitch: control.PassPitch.Mul(d.js.Pitch),
		Roll:  control.PassRoll.Mul(d.js.Roll),
	}
	return d.mix(fixed.FromInt(d.jsThrottle))
}

func (d *Drone) operateYawControlled() error {
	if err := d.readFused(); err != nil {
		return err
	}
	d.output = estimate.YPR{
		Yaw:   d.yawLaw(d.fusedYawRate(), fixed.One),
		Pitch: control.PassPitch.Mul(d.js.Pitch),
		Roll:  control.PassRoll.Mul(d.js.Roll),
	}
	if err := d.mix(fixed.FromInt(d.jsThrottle)); err != nil {
		return err
	}
	d.prevControl = d.sensor
	return nil
}

func (d *Drone) operateFullControl() error {
	if err := d.readFused(); err != nil {
		return err
	}
	d.output = estimate.YPR{
		Yaw:   d.yawLaw(d.fusedYawRate(), fixed.One),
		Pitch: d.pdLaw(wire.AxisPitch, d.js.Pitch, d.sensor.Pitch, fullPScale, fullDScale),
		Roll:  d.pdLaw(wire.AxisRoll, d.js.Roll, d.sensor.Roll, fullPScale, fullDScale),
	}
	if err := d.sendAttitude(d.sensor); err != nil {
		return err
	}
	if err := d.mix(fixed.FromInt(d.jsThrottle)); err != nil {
		return err
	}
	d.prevControl = d.sensor
	return nil
}

func (d *Drone) operateHeight() error {
	if err := d.readFused(); err != nil {
		return err
	}
	p, err := d.hw.Barometer.ReadPressure()
	if err != nil {
		return fmt.Errorf("read pressure: %w", err)
	}
	d.height.Sample(p)
	speed := d.height.Update(d.jsThrottle)
	if err := d.Send(wire.Speed{Value: speed}); err != nil {
		return err
	}

	d.output = estimate.YPR{
		Yaw:   d.yawLaw(d.fusedYawRate(), fixed.One),
		Pitch: d.pdLaw(wire.AxisPitch, d.js.Pitch, d.sensor.Pitch, heightPScale, heightDScale),
		Roll:  d.pdLaw(wire.AxisRoll, d.js.Roll, d.sensor.Roll, heightPScale, heightDScale),
	}
	if err := d.sendAttitude(d.sensor); err != nil {
		return err
	}
	if err := d.mix(d.height.Throttle); err != nil {
		return err
	}
	d.prevControl = d.sensor
	return nil
}

func (d *Drone) operateRaw() error {
	if err := d.readRaw(); err != nil {
		return err
	}
	d.output = estimate.YPR{
		Yaw:   d.yawLaw(d.rawYPR.Yaw, rawYawScale),
		Pitch: d.pdLaw(wire.AxisPitch, d.js.Pitch, d.rawYPR.Pitch, rawPitchP, rawPitchD),
		Roll:  d.pdLaw(wire.AxisRoll, d.js.Roll, d.rawYPR.Roll, rawRollP, rawRollD),
	}
	if err := d.sendAttitude(d.rawYPR); err != nil {
		return err
	}
	return d.mix(fixed.FromInt(d.jsThrottle))
}

// operateCalibration averages a burst of samples into the calibration
// offsets and the pressure baseline, then returns to Safe
func (d *Drone) operateCalibration() error {
	d.fused.Reset()
	d.raw.Reset()

	var sumFused, sumRaw estimate.YPR
	var sumPressure fixed.Num
	for i := 0; i < CalibrationSamples; i++ {
		if err := d.readFused(); err != nil {
			return err
		}
		if err := d.readRaw(); err != nil {
			return err
		}
		p, err := d.hw.Barometer.ReadPressure()
		if err != nil {
			return fmt.Errorf("read pressure: %w", err)
		}
		sumFused = sumFused.Add(d.sensor)
		sumRaw = sumRaw.Add(d.rawYPR)
		sumPressure += fixed.FromInt(p)
	}

	d.calibration = sumFused.Div(calibDivisor)
	d.calibrationRaw = sumRaw.Div(calibDivisor)
	if err := d.sendAttitude(d.sensor); err != nil {
		return err
	}

	d.height.Calibrate(sumPressure.Div(calibDivisor))
	d.prevControl = estimate.YPR{}
	d.prevErr = [3]fixed.Num{}
	return d.changeMode(wire.ModeSafe)
}

// operateLogOut replays one datalog slot per tick
func (d *Drone) operateLogOut() error {
	cmd, err := d.log.Next()
	if err != nil {
		return err
	}
	if cmd == nil {
		return nil
	}
	d.hw.Indicators.LedToggle(hal.LedYellow)
	return d.Send(cmd)
}

// fusedYawRate is the measured yaw rate in rad/s between control ticks
func (d *Drone) fusedYawRate() fixed.Num {
	return d.tickRate.Mul(d.sensor.Yaw - d.prevControl.Yaw)
}

// yawLaw drives the yaw rate towards three times the joystick yaw
func (d *Drone) yawLaw(measuredRate, scale fixed.Num) fixed.Num {
	pid := d.pids[wire.AxisYaw]
	if pid.Untuned() {
		return control.PassYaw.Mul(d.js.Yaw)
	}
	return pid.Rate(yawRefScale.Mul(d.js.Yaw), measuredRate, scale)
}

// pdLaw runs the PD law for pitch or roll and remembers the error
func (d *Drone) pdLaw(axis wire.Axis, ref, actual, pScale, dScale fixed.Num) fixed.Num {
	err := ref - actual
	prev := d.prevErr[axis]
	d.prevErr[axis] = err

	pid := d.pids[axis]
	if pid.Untuned() {
		return passThrough[axis].Mul(ref)
	}
	return pid.PD(err, prev, pScale, dScale, d.tickRate)
}

func (d *Drone) mix(throttle fixed.Num) error {
	return d.setMotors(control.Mix(throttle, d.output))
}

func (d *Drone) sendAttitude(a estimate.YPR) error {
	return d.Send(
		wire.Attitude{Axis: wire.AxisYaw, Value: a.Yaw},
		wire.Attitude{Axis: wire.AxisPitch, Value: a.Pitch},
		wire.Attitude{Axis: wire.AxisRoll, Value: a.Roll},
	)
}
