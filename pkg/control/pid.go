// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package control holds the per-axis control laws and the motor mixer
package control

import "github.com/Thermoquad/rotorcore/pkg/fixed"

// Joystick pass-through scales used when a controller is untuned or the
// mode has no closed loop for the axis
var (
	PassYaw   = fixed.FromInt(100)
	PassPitch = fixed.FromInt(500)
	PassRoll  = fixed.FromInt(500)
)

var hundred = fixed.FromInt(100)

// PID holds the gains of one axis controller. I is reserved; no mode
// integrates.
type PID struct {
	P, I, D fixed.Num
}

// Untuned reports whether both P and D are below one, in which case the
// axis falls back to joystick pass-through
func (p PID) Untuned() bool {
	return p.P < fixed.One && p.D < fixed.One
}

// Rate is the proportional rate law: scale * P * (ref - measured)
func (p PID) Rate(ref, measured, scale fixed.Num) fixed.Num {
	return scale.Mul(p.P).Mul(ref - measured)
}

// PD is the proportional-derivative law:
//
//	pScale*P*err + dScale*D*(err-prevErr)*(tickRate/100)
func (p PID) PD(err, prevErr, pScale, dScale, tickRate fixed.Num) fixed.Num {
	dErr := (err - prevErr).Mul(tickRate.Div(hundred))
	return pScale.Mul(p.P).Mul(err) + dScale.Mul(p.D).Mul(dErr)
}
