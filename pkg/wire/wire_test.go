// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/Thermoquad/rotorcore/pkg/fixed"
)

// sampleCommands covers every command type with non-trivial field values
func sampleCommands() []struct {
	name string
	cmd  Command
} {
	return []struct {
		name string
		cmd  Command
	}{
		{"exit", Exit{}},
		{"keepalive", KeepAlive{}},
		{"mode change", ModeChange{Mode: ModeFullControl}},
		{"yaw p gain", SetGain{Axis: AxisYaw, Term: TermP, Value: 20}},
		{"roll d gain", SetGain{Axis: AxisRoll, Term: TermD, Value: -300}},
		{"pitch reference", SetReference{Axis: AxisPitch, Value: fixed.FromFloat(-0.25)}},
		{"throttle", SetThrottle{Value: -200}},
		{"roll back", ReferenceBack{Axis: AxisRoll, Value: fixed.FromFloat(0.125)}},
		{"throttle back", ThrottleBack{Value: -32768}},
		{"true yaw", Attitude{Axis: AxisYaw, Value: fixed.Pi}},
		{"height", Height{Value: fixed.FromInt(-1234)}},
		{"time", Time{Micros: 1<<40 + 7}},
		{"speed", Speed{Value: fixed.FromFloat(3.5)}},
		{"datalog", Datalog{
			Mode:       ModeHeight,
			YPR:        [3]fixed.Num{fixed.FromFloat(0.5), fixed.FromFloat(-0.1), fixed.Pi},
			RawYPR:     [3]fixed.Num{fixed.Min, fixed.Max, fixed.Zero},
			Motors:     [4]uint16{180, 250, 999, 1000},
			TimeMillis: 123456789,
			Speed:      fixed.FromInt(-40),
		}},
		{"motors", Motors{Speeds: [4]uint16{0, 1, 254, 65535}}},
		{"motor 3", MotorValue{Index: 2, Speed: 255}},
		{"battery", BatteryCheck{Level: 1100}},
	}
}

// ============================================================================
// Checksums
// ============================================================================

func TestCalculateCRC_KnownValue(t *testing.T) {
	if got := CalculateCRC([]byte("123456789")); got != 0x29B1 {
		t.Errorf("CalculateCRC(123456789) = 0x%04X, want 0x29B1", got)
	}
	if got := CalculateCRC(nil); got != 0xFFFF {
		t.Errorf("CalculateCRC(nil) = 0x%04X, want 0xFFFF", got)
	}
}

func TestLiveChecksum(t *testing.T) {
	// 0x29B1 % 511 = 453 = 0x01C5
	hi, lo := LiveChecksum([]byte("123456789"))
	if hi != 0x01 || lo != 0xC5 {
		t.Errorf("LiveChecksum = %02X%02X, want 01C5", hi, lo)
	}
}

func TestLiveChecksum_NeverMarker(t *testing.T) {
	rng := newFuzzRng(t)
	for i := 0; i < getFuzzRounds(); i++ {
		data := make([]byte, rng.Intn(64))
		rng.Read(data)
		hi, lo := LiveChecksum(data)
		if hi >= EscByte || lo >= EscByte {
			t.Fatalf("checksum byte in marker range: %02X %02X", hi, lo)
		}
	}
}

func TestLogChecksum(t *testing.T) {
	tests := []struct {
		data   []byte
		hi, lo byte
	}{
		{[]byte{10, 20}, 0, 30},
		{[]byte{1, 2, 3, 250}, 0, 0},
		{[]byte{0xFF, 0xFF}, 0, 0xFE},
	}
	for _, tc := range tests {
		hi, lo := LogChecksum(tc.data)
		if hi != tc.hi || lo != tc.lo {
			t.Errorf("LogChecksum(%v) = %d,%d, want %d,%d", tc.data, hi, lo, tc.hi, tc.lo)
		}
	}
}

// ============================================================================
// Live frames
// ============================================================================

func TestEncodeLive_RoundTrip(t *testing.T) {
	for _, tc := range sampleCommands() {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := EncodeLive(tc.cmd)
			if err != nil {
				t.Fatalf("EncodeLive failed: %v", err)
			}

			if frame[0] != StartByte || frame[len(frame)-1] != EndByte {
				t.Fatalf("bad markers: % X", frame)
			}
			if int(frame[1]) != len(frame)-FrameOverhead {
				t.Errorf("len byte = %d, want %d", frame[1], len(frame)-FrameOverhead)
			}

			got, err := DecodeLive(frame)
			if err != nil {
				t.Fatalf("DecodeLive failed: %v", err)
			}
			if got != tc.cmd {
				t.Errorf("got %+v, want %+v", got, tc.cmd)
			}
		})
	}
}

func TestEncodeLive_NoMarkersInsideFrame(t *testing.T) {
	for _, tc := range sampleCommands() {
		frame, err := EncodeLive(tc.cmd)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if frame[1] >= EscByte {
			t.Errorf("%s: len byte 0x%02X in marker range", tc.name, frame[1])
		}
		inner := frame[2 : len(frame)-1]
		if bytes.IndexByte(inner, StartByte) >= 0 || bytes.IndexByte(inner, EndByte) >= 0 {
			t.Errorf("%s: marker inside frame: % X", tc.name, frame)
		}
	}
}

func TestEncodeLive_InvalidTargets(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"gain axis", SetGain{Axis: 3}},
		{"gain term", SetGain{Term: 2}},
		{"reference axis", SetReference{Axis: 7}},
		{"motor index", MotorValue{Index: 4}},
		{"time overflow", Time{Micros: math.MaxUint64}},
		{"nil", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := EncodeLive(tc.cmd); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEncodeLiveBatch(t *testing.T) {
	batch, err := EncodeLiveBatch(ModeChange{Mode: ModeSafe}, BatteryCheck{Level: 1200})
	if err != nil {
		t.Fatalf("EncodeLiveBatch failed: %v", err)
	}

	p := NewParser()
	cmds := p.FeedAll(batch)
	if len(cmds) != 2 {
		t.Fatalf("decoded %d commands, want 2", len(cmds))
	}
	if cmds[0] != (ModeChange{Mode: ModeSafe}) || cmds[1] != (BatteryCheck{Level: 1200}) {
		t.Errorf("unexpected commands: %+v", cmds)
	}
}

func TestDecodeLive_Errors(t *testing.T) {
	valid, err := EncodeLive(SetThrottle{Value: -120})
	if err != nil {
		t.Fatal(err)
	}

	badChecksum := append([]byte(nil), valid...)
	badChecksum[len(badChecksum)-3] ^= 0x01

	badLength := append([]byte(nil), valid...)
	badLength[1]++

	badEnd := append([]byte(nil), valid...)
	badEnd[len(badEnd)-1] = 0x00

	tests := []struct {
		name   string
		frame  []byte
		reason DecodeReason
	}{
		{"too short", []byte{StartByte, 0, EndByte}, ReasonLength},
		{"bad end marker", badEnd, ReasonMarkers},
		{"length mismatch", badLength, ReasonLength},
		{"checksum", badChecksum, ReasonChecksum},
		{"dangling escape", rawLiveFrame([]byte{0x81, EscByte}), ReasonEscape},
		{"empty array", rawLiveFrame([]byte{0x80}), ReasonPayload},
		{"unknown kind", rawLiveFrame([]byte{0x81, 0x18, 0x40}), ReasonPayload},
		{"missing field", rawLiveFrame([]byte{0x81, 0x02}), ReasonPayload},
		{"trailing field", rawLiveFrame([]byte{0x82, 0x00, 0x01}), ReasonPayload},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeLive(tc.frame)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
			if de.Reason != tc.reason {
				t.Errorf("reason = %s, want %s (%v)", de.Reason, tc.reason, err)
			}
		})
	}
}

// rawLiveFrame wraps already-stuffed bytes in a live frame with a valid checksum
func rawLiveFrame(stuffed []byte) []byte {
	hi, lo := LiveChecksum(stuffed)
	frame := []byte{StartByte, byte(len(stuffed))}
	frame = append(frame, stuffed...)
	return append(frame, hi, lo, EndByte)
}

// ============================================================================
// Log frames
// ============================================================================

func TestEncodeLog_RoundTrip(t *testing.T) {
	for _, tc := range sampleCommands() {
		t.Run(tc.name, func(t *testing.T) {
			slot, err := EncodeLog(tc.cmd)
			if err != nil {
				t.Fatalf("EncodeLog failed: %v", err)
			}
			if slot[0] != StartByte || slot[LogFrameSize-1] != EndByte {
				t.Fatalf("bad markers: % X", slot)
			}
			if slot[LogFrameSize-3] != 0 {
				t.Errorf("checksum high byte = %d, want 0", slot[LogFrameSize-3])
			}
			got, err := DecodeLog(slot[:])
			if err != nil {
				t.Fatalf("DecodeLog failed: %v", err)
			}
			if got != tc.cmd {
				t.Errorf("got %+v, want %+v", got, tc.cmd)
			}
		})
	}
}

func TestEncodeLog_WorstCaseDatalogFits(t *testing.T) {
	d := Datalog{
		Mode:       ModeLogOut,
		YPR:        [3]fixed.Num{fixed.Min, fixed.Min, fixed.Min},
		RawYPR:     [3]fixed.Num{fixed.Min, fixed.Min, fixed.Min},
		Motors:     [4]uint16{65535, 65535, 65535, 65535},
		TimeMillis: math.MaxUint32,
		Speed:      fixed.Min,
	}
	payload, err := MarshalCommand(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload) > LogPayloadSize-1 {
		t.Errorf("worst case datalog is %d bytes, want <= %d", len(payload), LogPayloadSize-1)
	}
	if _, err := EncodeLog(d); err != nil {
		t.Errorf("EncodeLog failed: %v", err)
	}
}

func TestDecodeLog_ErasedSlot(t *testing.T) {
	erased := bytes.Repeat([]byte{0xFF}, LogFrameSize)
	_, err := DecodeLog(erased)
	var de *DecodeError
	if !errors.As(err, &de) || de.Reason != ReasonMarkers {
		t.Errorf("expected marker error for erased slot, got %v", err)
	}
}

func TestDecodeLog_Corrupted(t *testing.T) {
	slot, err := EncodeLog(Height{Value: fixed.FromInt(12)})
	if err != nil {
		t.Fatal(err)
	}

	corrupt := slot
	corrupt[3] ^= 0x40
	if _, err := DecodeLog(corrupt[:]); err == nil {
		t.Error("expected checksum error")
	}

	tooLong := slot
	tooLong[1] = LogPayloadSize + 1
	if _, err := DecodeLog(tooLong[:]); err == nil {
		t.Error("expected length error")
	}

	if _, err := DecodeLog(slot[:32]); err == nil {
		t.Error("expected error for short slot")
	}
}
