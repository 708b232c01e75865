// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"fmt"
	"strings"
	"time"
)

var kindNames = [kindCount]string{
	KindExit:         "EXIT",
	KindKeepAlive:    "KEEP_ALIVE",
	KindModeChange:   "MODE_CHANGE",
	KindYawPSet:      "YAW_P_SET",
	KindYawDSet:      "YAW_D_SET",
	KindPitchPSet:    "PITCH_P_SET",
	KindPitchDSet:    "PITCH_D_SET",
	KindRollPSet:     "ROLL_P_SET",
	KindRollDSet:     "ROLL_D_SET",
	KindHeight:       "HEIGHT",
	KindTime:         "TIME",
	KindThrottleSet:  "THROTTLE_SET",
	KindYawBack:      "YAW_BACK",
	KindPitchBack:    "PITCH_BACK",
	KindRollBack:     "ROLL_BACK",
	KindThrottleBack: "THROTTLE_BACK",
	KindYawSet:       "YAW_SET",
	KindPitchSet:     "PITCH_SET",
	KindRollSet:      "ROLL_SET",
	KindTrueYaw:      "TRUE_YAW",
	KindTruePitch:    "TRUE_PITCH",
	KindTrueRoll:     "TRUE_ROLL",
	KindSpeed:        "SPEED",
	KindDatalog:      "DATALOG",
	KindMotor:        "MOTOR",
	KindMotor1:       "MOTOR1",
	KindMotor2:       "MOTOR2",
	KindMotor3:       "MOTOR3",
	KindMotor4:       "MOTOR4",
	KindBatteryCheck: "BATTERY_CHECK",
}

var modeNames = [modeCount]string{
	ModeSafe:          "SAFE",
	ModePanic:         "PANIC",
	ModeManual:        "MANUAL",
	ModeCalibration:   "CALIBRATION",
	ModeYawControlled: "YAW_CONTROLLED",
	ModeFullControl:   "FULL_CONTROL",
	ModeRaw:           "RAW",
	ModeHeight:        "HEIGHT",
	ModeLogOut:        "LOG_OUT",
}

var axisNames = [axisCount]string{"yaw", "pitch", "roll"}

// FormatKind returns the human-readable name for a command kind
func FormatKind(k Kind) string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("UNKNOWN_0x%02X", uint8(k))
}

// FormatMode returns the human-readable name for a flight mode
func FormatMode(m Mode) string {
	if m.Valid() {
		return modeNames[m]
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(m))
}

func (k Kind) String() string { return FormatKind(k) }
func (m Mode) String() string { return FormatMode(m) }

func (a Axis) String() string {
	if a < axisCount {
		return axisNames[a]
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

func (t Term) String() string {
	switch t {
	case TermP:
		return "p"
	case TermD:
		return "d"
	default:
		return fmt.Sprintf("term(%d)", uint8(t))
	}
}

// FormatCommand formats a command received at ts as one line
func FormatCommand(ts time.Time, cmd Command) string {
	return fmt.Sprintf("[%s] %s %s", ts.Format("15:04:05.000"), FormatKind(cmd.Kind()), FormatPayload(cmd))
}

// FormatPayload renders the fields of a command
func FormatPayload(cmd Command) string {
	switch c := cmd.(type) {
	case Exit, KeepAlive:
		return ""
	case ModeChange:
		return fmt.Sprintf("mode=%s", FormatMode(c.Mode))
	case SetGain:
		return fmt.Sprintf("value=%d", c.Value)
	case SetReference:
		return fmt.Sprintf("value=%s rad", c.Value)
	case ReferenceBack:
		return fmt.Sprintf("value=%s rad", c.Value)
	case Attitude:
		return fmt.Sprintf("value=%s rad", c.Value)
	case SetThrottle:
		return fmt.Sprintf("value=%d", c.Value)
	case ThrottleBack:
		return fmt.Sprintf("value=%d", c.Value)
	case Height:
		return fmt.Sprintf("value=%s", c.Value)
	case Speed:
		return fmt.Sprintf("value=%s", c.Value)
	case Time:
		return fmt.Sprintf("micros=%d", c.Micros)
	case Datalog:
		var sb strings.Builder
		fmt.Fprintf(&sb, "mode=%s t=%dms", FormatMode(c.Mode), c.TimeMillis)
		fmt.Fprintf(&sb, " ypr=[%s %s %s]", c.YPR[0], c.YPR[1], c.YPR[2])
		fmt.Fprintf(&sb, " raw=[%s %s %s]", c.RawYPR[0], c.RawYPR[1], c.RawYPR[2])
		fmt.Fprintf(&sb, " motors=%v speed=%s", c.Motors, c.Speed)
		return sb.String()
	case Motors:
		return fmt.Sprintf("speeds=%v", c.Speeds)
	case MotorValue:
		return fmt.Sprintf("speed=%d", c.Speed)
	case BatteryCheck:
		return fmt.Sprintf("level=%d", c.Level)
	default:
		return fmt.Sprintf("%+v", cmd)
	}
}
