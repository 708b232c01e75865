// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/rotorcore/pkg/fixed"
)

// ParseCommand builds a ground-station command from text arguments, as typed
// on the command line or in the dashboard:
//
//	mode <name>                 ModeChange
//	gain <axis> <p|d> <value>   SetGain
//	throttle <value>            SetThrottle
//	ref <axis> <radians>        SetReference
//	keepalive                   KeepAlive
//	exit                        Exit
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	verb := strings.ToLower(args[0])
	rest := args[1:]

	switch verb {
	case "exit":
		if err := wantArgs(verb, rest, 0); err != nil {
			return nil, err
		}
		return Exit{}, nil

	case "keepalive", "keep-alive":
		if err := wantArgs(verb, rest, 0); err != nil {
			return nil, err
		}
		return KeepAlive{}, nil

	case "mode":
		if err := wantArgs(verb, rest, 1); err != nil {
			return nil, err
		}
		m, err := ParseMode(rest[0])
		if err != nil {
			return nil, err
		}
		return ModeChange{Mode: m}, nil

	case "gain":
		if err := wantArgs(verb, rest, 3); err != nil {
			return nil, err
		}
		axis, err := ParseAxis(rest[0])
		if err != nil {
			return nil, err
		}
		var term Term
		switch strings.ToLower(rest[1]) {
		case "p":
			term = TermP
		case "d":
			term = TermD
		default:
			return nil, fmt.Errorf("invalid gain term %q (expected p or d)", rest[1])
		}
		v, err := strconv.ParseInt(rest[2], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid gain value %q: %w", rest[2], err)
		}
		return SetGain{Axis: axis, Term: term, Value: int16(v)}, nil

	case "throttle":
		if err := wantArgs(verb, rest, 1); err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(rest[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid throttle %q: %w", rest[0], err)
		}
		return SetThrottle{Value: int16(v)}, nil

	case "ref":
		if err := wantArgs(verb, rest, 2); err != nil {
			return nil, err
		}
		axis, err := ParseAxis(rest[0])
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(rest[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid reference %q: %w", rest[1], err)
		}
		return SetReference{Axis: axis, Value: fixed.FromFloat(f)}, nil
	}

	return nil, fmt.Errorf("unknown command %q", args[0])
}

// ParseMode accepts a mode name (safe, full-control, FULL_CONTROL, ...) or
// its numeric value
func ParseMode(s string) (Mode, error) {
	norm := strings.ToUpper(strings.ReplaceAll(s, "-", "_"))
	for m, name := range modeNames {
		if name == norm {
			return Mode(m), nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && Mode(n).Valid() {
		return Mode(n), nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// ParseAxis accepts yaw, pitch or roll
func ParseAxis(s string) (Axis, error) {
	norm := strings.ToLower(s)
	for a, name := range axisNames {
		if name == norm {
			return Axis(a), nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

func wantArgs(verb string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", verb, n, len(args))
	}
	return nil
}
