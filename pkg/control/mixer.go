// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package control

import (
	"math"

	"github.com/Thermoquad/rotorcore/pkg/estimate"
	"github.com/Thermoquad/rotorcore/pkg/fixed"
)

// Mixer constants
const (
	liftGain   = 1000
	yawGain    = 7000
	MinEngaged = 180
)

// ThrottleDeadZone is the stick throttle above which every motor is stopped.
// Throttle is negative when the stick is pushed up.
var ThrottleDeadZone = fixed.FromInt(-50)

// Mix converts throttle and the yaw/pitch/roll control outputs into four
// motor speeds. Motors 1 and 3 sit on the pitch axis, 2 and 4 on the roll
// axis; the yaw term alternates sign between the pairs.
//
// Each motor's thrust term is clipped at zero and the speed is its square
// root. While the throttle is engaged no motor drops below MinEngaged.
func Mix(throttle fixed.Num, u estimate.YPR) [4]uint16 {
	var speeds [4]uint16
	if throttle > ThrottleDeadZone {
		return speeds
	}

	// Work on raw Q22.10 bits in 64 bits; scalar products keep the format
	t := -int64(throttle) / 4
	p := int64(u.Pitch) / 2
	r := int64(u.Roll) / 2
	y := int64(u.Yaw) / 4

	thrust := [4]int64{
		(t-p)*liftGain - y*yawGain,
		(t-r)*liftGain + y*yawGain,
		(t+p)*liftGain - y*yawGain,
		(t+r)*liftGain + y*yawGain,
	}

	for i, a := range thrust {
		switch {
		case a < 0:
			a = 0
		case a > math.MaxInt32:
			a = math.MaxInt32
		}
		speeds[i] = fixed.Num(a).Sqrt().Uint16()
		if throttle < ThrottleDeadZone && speeds[i] < MinEngaged {
			speeds[i] = MinEngaged
		}
	}
	return speeds
}
