// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/rotorcore/pkg/fixed"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: cbor enc mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 16,
		MaxNestedLevels:  4,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("wire: cbor dec mode: %v", err))
	}
}

// MarshalCommand serializes a command as the CBOR array [kind, field...].
// Fixed point fields are carried as their raw int32 bits.
func MarshalCommand(cmd Command) ([]byte, error) {
	if cmd == nil {
		return nil, fmt.Errorf("nil command")
	}
	msg := []int64{int64(cmd.Kind())}

	switch c := cmd.(type) {
	case Exit, KeepAlive:
	case ModeChange:
		msg = append(msg, int64(c.Mode))
	case SetGain:
		if c.Axis >= axisCount || c.Term >= termCount {
			return nil, fmt.Errorf("gain target out of range: axis %d term %d", c.Axis, c.Term)
		}
		msg = append(msg, int64(c.Value))
	case SetReference:
		if c.Axis >= axisCount {
			return nil, fmt.Errorf("axis out of range: %d", c.Axis)
		}
		msg = append(msg, int64(c.Value))
	case ReferenceBack:
		if c.Axis >= axisCount {
			return nil, fmt.Errorf("axis out of range: %d", c.Axis)
		}
		msg = append(msg, int64(c.Value))
	case Attitude:
		if c.Axis >= axisCount {
			return nil, fmt.Errorf("axis out of range: %d", c.Axis)
		}
		msg = append(msg, int64(c.Value))
	case SetThrottle:
		msg = append(msg, int64(c.Value))
	case ThrottleBack:
		msg = append(msg, int64(c.Value))
	case Height:
		msg = append(msg, int64(c.Value))
	case Speed:
		msg = append(msg, int64(c.Value))
	case Time:
		if c.Micros > math.MaxInt64 {
			return nil, fmt.Errorf("time out of range: %d", c.Micros)
		}
		msg = append(msg, int64(c.Micros))
	case Datalog:
		msg = append(msg, int64(c.Mode))
		for _, v := range c.YPR {
			msg = append(msg, int64(v))
		}
		for _, v := range c.RawYPR {
			msg = append(msg, int64(v))
		}
		for _, v := range c.Motors {
			msg = append(msg, int64(v))
		}
		msg = append(msg, int64(c.TimeMillis), int64(c.Speed))
	case Motors:
		for _, v := range c.Speeds {
			msg = append(msg, int64(v))
		}
	case MotorValue:
		if c.Index >= 4 {
			return nil, fmt.Errorf("motor index out of range: %d", c.Index)
		}
		msg = append(msg, int64(c.Speed))
	case BatteryCheck:
		msg = append(msg, int64(c.Level))
	default:
		return nil, fmt.Errorf("unsupported command type %T", cmd)
	}

	return encMode.Marshal(msg)
}

// UnmarshalCommand parses the CBOR array produced by MarshalCommand
func UnmarshalCommand(data []byte) (Command, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty CBOR payload")
	}

	var msg []int64
	if err := decMode.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	if len(msg) == 0 {
		return nil, fmt.Errorf("empty command array")
	}
	if msg[0] < 0 || msg[0] >= int64(kindCount) {
		return nil, fmt.Errorf("unknown command kind: %d", msg[0])
	}
	kind := Kind(msg[0])
	r := &fieldReader{fields: msg[1:]}

	var cmd Command
	switch {
	case kind == KindExit:
		cmd = Exit{}
	case kind == KindKeepAlive:
		cmd = KeepAlive{}
	case kind == KindModeChange:
		cmd = ModeChange{Mode: Mode(r.uint(math.MaxUint8))}
	case kind >= KindYawPSet && kind <= KindRollDSet:
		off := kind - KindYawPSet
		cmd = SetGain{Axis: Axis(off / 2), Term: Term(off % 2), Value: r.int16()}
	case kind == KindHeight:
		cmd = Height{Value: r.fixed()}
	case kind == KindTime:
		cmd = Time{Micros: uint64(r.uint(math.MaxInt64))}
	case kind == KindThrottleSet:
		cmd = SetThrottle{Value: r.int16()}
	case kind >= KindYawBack && kind <= KindRollBack:
		cmd = ReferenceBack{Axis: Axis(kind - KindYawBack), Value: r.fixed()}
	case kind == KindThrottleBack:
		cmd = ThrottleBack{Value: r.int16()}
	case kind >= KindYawSet && kind <= KindRollSet:
		cmd = SetReference{Axis: Axis(kind - KindYawSet), Value: r.fixed()}
	case kind >= KindTrueYaw && kind <= KindTrueRoll:
		cmd = Attitude{Axis: Axis(kind - KindTrueYaw), Value: r.fixed()}
	case kind == KindSpeed:
		cmd = Speed{Value: r.fixed()}
	case kind == KindDatalog:
		var d Datalog
		d.Mode = Mode(r.uint(math.MaxUint8))
		for i := range d.YPR {
			d.YPR[i] = r.fixed()
		}
		for i := range d.RawYPR {
			d.RawYPR[i] = r.fixed()
		}
		for i := range d.Motors {
			d.Motors[i] = uint16(r.uint(math.MaxUint16))
		}
		d.TimeMillis = uint32(r.uint(math.MaxUint32))
		d.Speed = r.fixed()
		cmd = d
	case kind == KindMotor:
		var m Motors
		for i := range m.Speeds {
			m.Speeds[i] = uint16(r.uint(math.MaxUint16))
		}
		cmd = m
	case kind >= KindMotor1 && kind <= KindMotor4:
		cmd = MotorValue{Index: uint8(kind - KindMotor1), Speed: uint16(r.uint(math.MaxUint16))}
	case kind == KindBatteryCheck:
		cmd = BatteryCheck{Level: uint16(r.uint(math.MaxUint16))}
	}

	if err := r.done(); err != nil {
		return nil, fmt.Errorf("kind %d: %w", kind, err)
	}
	return cmd, nil
}

// fieldReader walks the fields of a decoded command array, recording the
// first range or arity violation.
type fieldReader struct {
	fields []int64
	pos    int
	err    error
}

func (r *fieldReader) next() int64 {
	if r.err != nil {
		return 0
	}
	if r.pos >= len(r.fields) {
		r.err = fmt.Errorf("missing field %d", r.pos)
		return 0
	}
	v := r.fields[r.pos]
	r.pos++
	return v
}

func (r *fieldReader) uint(limit int64) int64 {
	v := r.next()
	if r.err == nil && (v < 0 || v > limit) {
		r.err = fmt.Errorf("field %d out of range: %d", r.pos-1, v)
		return 0
	}
	return v
}

func (r *fieldReader) int16() int16 {
	v := r.next()
	if r.err == nil && (v < math.MinInt16 || v > math.MaxInt16) {
		r.err = fmt.Errorf("field %d out of range: %d", r.pos-1, v)
		return 0
	}
	return int16(v)
}

func (r *fieldReader) fixed() fixed.Num {
	v := r.next()
	if r.err == nil && (v < math.MinInt32 || v > math.MaxInt32) {
		r.err = fmt.Errorf("field %d out of range: %d", r.pos-1, v)
		return 0
	}
	return fixed.FromBits(int32(v))
}

func (r *fieldReader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.fields) {
		return fmt.Errorf("%d trailing fields", len(r.fields)-r.pos)
	}
	return nil
}
