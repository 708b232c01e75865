// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

type recordingSender struct {
	sent []wire.Command
	err  error
}

func (r *recordingSender) send(c wire.Command) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, c)
	return nil
}

func newTestDashboard() (dashboardModel, *recordingSender) {
	rs := &recordingSender{}
	return initialDashboardModel(rs, "test", 0), rs
}

func enterLine(t *testing.T, m dashboardModel, line string) (dashboardModel, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(dashboardModel), cmd
}

func lastLog(m dashboardModel) eventLogEntry {
	return m.eventLog[len(m.eventLog)-1]
}

// ============================================================================
// Command line
// ============================================================================

func TestDashboard_SubmitSendsCommand(t *testing.T) {
	m, rs := newTestDashboard()

	m, _ = enterLine(t, m, "gain pitch p 20")
	if len(rs.sent) != 1 || rs.sent[0] != (wire.SetGain{Axis: wire.AxisPitch, Term: wire.TermP, Value: 20}) {
		t.Fatalf("sent %v", rs.sent)
	}
	if m.sentFrames != 1 || m.input.Value() != "" {
		t.Errorf("sentFrames=%d input=%q", m.sentFrames, m.input.Value())
	}

	m, _ = enterLine(t, m, "mode full-control")
	if rs.sent[1] != (wire.ModeChange{Mode: wire.ModeFullControl}) {
		t.Errorf("sent %v", rs.sent[1])
	}
}

func TestDashboard_SubmitErrors(t *testing.T) {
	m, rs := newTestDashboard()

	m, _ = enterLine(t, m, "fly higher")
	if len(rs.sent) != 0 {
		t.Errorf("sent %v for a bad command", rs.sent)
	}
	if e := lastLog(m); !e.isError || !strings.Contains(e.message, "unknown command") {
		t.Errorf("log %+v", e)
	}

	rs.err = errors.New("port gone")
	m, _ = enterLine(t, m, "throttle -300")
	if e := lastLog(m); !e.isError || !strings.Contains(e.message, "port gone") {
		t.Errorf("log %+v", e)
	}
	if m.sentFrames != 0 {
		t.Errorf("sentFrames=%d", m.sentFrames)
	}
}

func TestDashboard_ExitQuits(t *testing.T) {
	m, rs := newTestDashboard()

	m, cmd := enterLine(t, m, "exit")
	if !m.quitting || cmd == nil {
		t.Error("exit did not quit")
	}
	if len(rs.sent) != 1 || rs.sent[0] != (wire.Exit{}) {
		t.Errorf("sent %v", rs.sent)
	}
}

func TestDashboard_KeepAlive(t *testing.T) {
	m, rs := newTestDashboard()
	m.keepAlive = 1

	next, _ := m.Update(keepAliveMsg{})
	m = next.(dashboardModel)
	if len(rs.sent) != 1 || rs.sent[0] != (wire.KeepAlive{}) {
		t.Fatalf("sent %v", rs.sent)
	}

	next, _ = m.Update(connectionLostMsg{})
	m = next.(dashboardModel)
	next, _ = m.Update(keepAliveMsg{})
	if len(rs.sent) != 1 {
		t.Errorf("keepalive sent while disconnected")
	}
}

// ============================================================================
// Telemetry
// ============================================================================

func frames(cmds ...wire.Command) frameBatchMsg {
	var b frameBatchMsg
	for _, c := range cmds {
		b.frames = append(b.frames, frameMsg{cmd: c, validationErrors: wire.Validate(c)})
	}
	return b
}

func TestDashboard_AppliesTelemetry(t *testing.T) {
	m, _ := newTestDashboard()

	next, _ := m.Update(frames(
		wire.ModeChange{Mode: wire.ModeHeight},
		wire.Attitude{Axis: wire.AxisRoll, Value: fixed.Half},
		wire.ReferenceBack{Axis: wire.AxisYaw, Value: fixed.One},
		wire.ThrottleBack{Value: -250},
		wire.MotorValue{Index: 2, Speed: 321},
		wire.Height{Value: fixed.FromInt(4)},
		wire.Time{Micros: 77},
		wire.SetGain{Axis: wire.AxisRoll, Term: wire.TermD, Value: 6},
		wire.BatteryCheck{Level: 1100},
	))
	m = next.(dashboardModel)

	tel := m.telemetry
	if !tel.hasMode || tel.mode != wire.ModeHeight {
		t.Errorf("mode %v", tel.mode)
	}
	if tel.attitude[wire.AxisRoll] != fixed.Half || tel.references[wire.AxisYaw] != fixed.One {
		t.Errorf("attitude %v references %v", tel.attitude, tel.references)
	}
	if tel.throttle != -250 || tel.motors[2] != 321 || tel.height != fixed.FromInt(4) {
		t.Errorf("telemetry %+v", tel)
	}
	if tel.logMicros != 77 || tel.battery != 1100 || tel.gains[wire.AxisRoll][wire.TermD] != 6 {
		t.Errorf("telemetry %+v", tel)
	}
	if !m.synchronized || m.stats.ValidFrames != 9 {
		t.Errorf("synchronized=%v valid=%d", m.synchronized, m.stats.ValidFrames)
	}
}

func TestDashboard_AnomaliesAndDecodeErrors(t *testing.T) {
	m, _ := newTestDashboard()
	decodeErr := &wire.DecodeError{Reason: wire.ReasonChecksum, Err: errors.New("mismatch")}

	// Decode errors before the first good frame are counted but not logged
	next, _ := m.Update(frameBatchMsg{frames: []frameMsg{{decodeErr: decodeErr}}})
	m = next.(dashboardModel)
	if len(m.eventLog) != 0 {
		t.Errorf("logged before sync: %+v", m.eventLog)
	}

	next, _ = m.Update(frames(wire.BatteryCheck{Level: 800}))
	m = next.(dashboardModel)
	if m.stats.UnsafeBattery != 1 {
		t.Errorf("unsafe battery count %d", m.stats.UnsafeBattery)
	}
	if e := lastLog(m); !e.isError || !strings.Contains(e.message, "BATTERY_CHECK") {
		t.Errorf("log %+v", e)
	}

	next, _ = m.Update(frameBatchMsg{frames: []frameMsg{{decodeErr: decodeErr}}})
	m = next.(dashboardModel)
	if e := lastLog(m); !e.isError || !strings.Contains(e.message, "DECODE ERROR") {
		t.Errorf("log %+v", e)
	}
	if m.stats.ChecksumErrors != 2 {
		t.Errorf("checksum errors %d", m.stats.ChecksumErrors)
	}

	if view := m.View(); !strings.Contains(view, "ROTORCORE") {
		t.Error("view missing title")
	}
}
