// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package flight

import (
	"github.com/Thermoquad/rotorcore/pkg/control"
	"github.com/Thermoquad/rotorcore/pkg/estimate"
	"github.com/Thermoquad/rotorcore/pkg/fixed"
)

// StickOverride is the stick throttle above which the pilot keeps direct
// throttle control in Height mode
const StickOverride = -185

var (
	heightScale = fixed.FromInt(50)
	heightGain  = fixed.FromFloat(0.05)
)

// Height is the barometric height-hold controller.
//
// Pressure is low-passed and subtracted from the baseline captured during
// calibration, so Level grows as the drone climbs. The stick throttle is the
// height reference.
type Height struct {
	PID      control.PID
	Baseline fixed.Num
	Level    fixed.Num
	Throttle fixed.Num

	filter *estimate.LowPass
}

// NewHeight returns a height controller with P = D = 20
func NewHeight() *Height {
	return &Height{
		PID:    control.PID{P: fixed.FromInt(20), D: fixed.FromInt(20)},
		filter: estimate.NewLowPass(estimate.DefaultSampleRate, estimate.DefaultCutoff),
	}
}

// Calibrate sets the pressure baseline and seeds the filter with it
func (h *Height) Calibrate(baseline fixed.Num) {
	h.Baseline = baseline
	h.Level = 0
	h.filter.Prime(baseline)
}

// Sample filters one pressure reading and updates Level
func (h *Height) Sample(pressure uint32) fixed.Num {
	h.Level = h.Baseline - h.filter.Filter(fixed.FromInt(pressure))
	return h.Level
}

// Update computes the hold throttle for the stick throttle jsThrottle. It
// returns the controller output, reported as Speed; Throttle holds the value
// actually fed to the mixer, which is the stick itself above StickOverride.
func (h *Height) Update(jsThrottle int16) fixed.Num {
	err := fixed.FromInt(-int32(jsThrottle)) - h.Level.Mul(heightScale)
	speed := -heightGain.Mul(h.PID.P).Mul(err)

	h.Throttle = speed
	if jsThrottle > StickOverride {
		h.Throttle = fixed.FromInt(jsThrottle)
	}
	return speed
}
