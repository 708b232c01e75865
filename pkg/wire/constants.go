// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package wire implements the rotorcore serial protocol spoken between the
// flight core and the ground station.
//
// Every command travels as a live frame:
//
//	[0xFE][len][serialized command][checksum-hi][checksum-lo][0xFF]
//
// and is persisted to the flash datalog as a fixed 64-byte log frame. The
// command itself is a CBOR array [kind, field...]; on the live link the CBOR
// bytes are escaped so that the frame markers never appear inside a payload.
package wire

// Protocol framing bytes
const (
	StartByte = 0xFE
	EndByte   = 0xFF
	EscByte   = 0xFD
	EscXor    = 0x20
)

// Frame sizes. The live len byte stays below the marker range and log
// payloads are zero padded to LogPayloadSize.
const (
	FrameOverhead     = 5 // start + len + 2 checksum + end
	MaxLivePayload    = 0xFC
	LogFrameSize      = 64
	LogPayloadSize    = LogFrameSize - FrameOverhead
	MaxParserBuffer   = 256
	liveChecksumMod   = 511
	liveChecksumByte  = 253
	logChecksumModulo = 256
)

// CRC-16/CCITT-FALSE configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Kind identifies a command on the wire. Peers agree on these values, so they
// must never be renumbered.
type Kind uint8

// Command kinds
const (
	KindExit Kind = iota
	KindKeepAlive
	KindModeChange
	KindYawPSet
	KindYawDSet
	KindPitchPSet
	KindPitchDSet
	KindRollPSet
	KindRollDSet
	KindHeight
	KindTime
	KindThrottleSet
	KindYawBack
	KindPitchBack
	KindRollBack
	KindThrottleBack
	KindYawSet
	KindPitchSet
	KindRollSet
	KindTrueYaw
	KindTruePitch
	KindTrueRoll
	KindSpeed
	KindDatalog
	KindMotor
	KindMotor1
	KindMotor2
	KindMotor3
	KindMotor4
	KindBatteryCheck

	kindCount
)

// Mode is a flight mode of the drone
type Mode uint8

// Flight modes
const (
	ModeSafe Mode = iota
	ModePanic
	ModeManual
	ModeCalibration
	ModeYawControlled
	ModeFullControl
	ModeRaw
	ModeHeight
	ModeLogOut

	modeCount
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m < modeCount
}

// Axis selects yaw, pitch or roll
type Axis uint8

// Axes
const (
	AxisYaw Axis = iota
	AxisPitch
	AxisRoll

	axisCount
)

// Term selects the proportional or derivative gain of a PID law
type Term uint8

// Gain terms
const (
	TermP Term = iota
	TermD

	termCount
)

// Battery band in raw ADC units; readings strictly inside it are unsafe
const (
	BatteryUnsafeLow  = 500
	BatteryUnsafeHigh = 1050
)

// MaxMotorSpeed is the cap applied by the motor driver
const MaxMotorSpeed = 1000
