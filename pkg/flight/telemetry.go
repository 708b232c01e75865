// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package flight

import (
	"fmt"
	"time"

	"github.com/Thermoquad/rotorcore/pkg/datalog"
	"github.com/Thermoquad/rotorcore/pkg/estimate"
	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

// Snapshot samples both estimators and appends a Datalog record. It returns
// the time spent writing the record.
func (d *Drone) Snapshot(elapsed time.Duration) (time.Duration, error) {
	if err := d.readFused(); err != nil {
		return 0, err
	}
	if err := d.readRaw(); err != nil {
		return 0, err
	}

	speed := fixed.FromInt(d.lastRaw.Gyro[1]).Mul(estimate.DegToRad)
	rec := datalog.Snapshot(d.mode, d.sensor, d.rawYPR, d.hw.Motors.Motors(), elapsed, speed)

	start := d.hw.Clock.Now()
	if err := d.log.Append(rec); err != nil {
		return 0, err
	}
	return d.hw.Clock.Now() - start, nil
}

// SendMotorValues reports each motor speed individually
func (d *Drone) SendMotorValues() error {
	m := d.hw.Motors.Motors()
	return d.Send(
		wire.MotorValue{Index: 0, Speed: m[0]},
		wire.MotorValue{Index: 1, Speed: m[1]},
		wire.MotorValue{Index: 2, Speed: m[2]},
		wire.MotorValue{Index: 3, Speed: m[3]},
	)
}

// SendJoystickEcho reports the joystick references back to the ground
// station. Only flying modes echo.
func (d *Drone) SendJoystickEcho() error {
	if !IsFlying(d.mode) {
		return nil
	}
	return d.Send(
		wire.ReferenceBack{Axis: wire.AxisYaw, Value: d.js.Yaw},
		wire.ReferenceBack{Axis: wire.AxisPitch, Value: d.js.Pitch},
		wire.ReferenceBack{Axis: wire.AxisRoll, Value: d.js.Roll},
		wire.ThrottleBack{Value: d.jsThrottle},
	)
}

// SendHeight reports the unfiltered barometric height relative to the
// calibration baseline
func (d *Drone) SendHeight() error {
	p, err := d.hw.Barometer.ReadPressure()
	if err != nil {
		return fmt.Errorf("read pressure: %w", err)
	}
	return d.Send(wire.Height{Value: d.height.Baseline - fixed.FromInt(p)})
}

// SendBattery reports a battery reading
func (d *Drone) SendBattery(level uint16) error {
	return d.Send(wire.BatteryCheck{Level: level})
}
