// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import "fmt"

// AnomalyType represents different types of telemetry anomalies
type AnomalyType int

const (
	AnomalyBatteryUnsafe AnomalyType = iota
	AnomalyMotorOverCap
	AnomalyUnknownMode
)

// ValidationError represents a telemetry validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// Validate checks a decoded command for values the flight core should never
// produce. Returns an empty slice for a clean command.
func Validate(cmd Command) []ValidationError {
	errors := []ValidationError{}

	switch c := cmd.(type) {
	case BatteryCheck:
		if c.Level > BatteryUnsafeLow && c.Level < BatteryUnsafeHigh {
			errors = append(errors, ValidationError{
				Type:    AnomalyBatteryUnsafe,
				Message: fmt.Sprintf("Battery level=%d inside unsafe band (%d, %d)", c.Level, BatteryUnsafeLow, BatteryUnsafeHigh),
				Details: map[string]interface{}{"level": c.Level},
			})
		}
	case Motors:
		for i, s := range c.Speeds {
			errors = append(errors, validateMotor(i, s)...)
		}
	case MotorValue:
		errors = append(errors, validateMotor(int(c.Index), c.Speed)...)
	case Datalog:
		for i, s := range c.Motors {
			errors = append(errors, validateMotor(i, s)...)
		}
		errors = append(errors, validateMode(c.Mode)...)
	case ModeChange:
		errors = append(errors, validateMode(c.Mode)...)
	}

	return errors
}

func validateMotor(index int, speed uint16) []ValidationError {
	if speed <= MaxMotorSpeed {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyMotorOverCap,
		Message: fmt.Sprintf("Motor %d speed=%d above cap %d", index+1, speed, MaxMotorSpeed),
		Details: map[string]interface{}{"motor": index + 1, "speed": speed},
	}}
}

func validateMode(m Mode) []ValidationError {
	if m.Valid() {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyUnknownMode,
		Message: fmt.Sprintf("Unknown mode=%d", uint8(m)),
		Details: map[string]interface{}{"mode": uint8(m)},
	}}
}
