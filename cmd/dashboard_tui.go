// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

// commandSender delivers ground station commands to the drone
type commandSender interface {
	send(c wire.Command) error
}

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// Latest telemetry reported by the drone
type telemetryData struct {
	updated    time.Time
	mode       wire.Mode
	hasMode    bool
	attitude   [3]fixed.Num
	references [3]fixed.Num
	throttle   int16
	motors     [4]uint16
	height     fixed.Num
	speed      fixed.Num
	battery    uint16
	logMicros  uint64
	gains      [3][2]int16
	logRecords uint64
}

// TUI model
type dashboardModel struct {
	sender         commandSender
	connInfo       string
	keepAlive      time.Duration
	stats          *wire.Statistics
	telemetry      telemetryData
	eventLog       []eventLogEntry
	maxLogEntries  int
	input          textinput.Model
	synchronized   bool
	connectionLost bool
	sentFrames     uint64
	width          int
	height         int
	quitting       bool
}

// Messages
type dashboardTickMsg time.Time

type keepAliveMsg time.Time

type frameMsg struct {
	cmd              wire.Command
	decodeErr        error
	validationErrors []wire.ValidationError
}

type frameBatchMsg struct {
	frames []frameMsg
}

type connectionLostMsg struct{}

type reconnectedMsg struct {
	connInfo string
}

func initialDashboardModel(sender commandSender, connInfo string, keepAlive time.Duration) dashboardModel {
	ti := textinput.New()
	ti.Placeholder = "mode calibration"
	ti.Prompt = "> "
	ti.CharLimit = 48
	ti.Width = 40
	ti.Focus()

	return dashboardModel{
		sender:        sender,
		connInfo:      connInfo,
		keepAlive:     keepAlive,
		stats:         wire.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		input:         ti,
		width:         80,
		height:        24,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{dashboardTickCmd(), textinput.Blink}
	if m.keepAlive > 0 {
		cmds = append(cmds, keepAliveCmd(m.keepAlive))
	}
	return tea.Batch(cmds...)
}

func dashboardTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return dashboardTickMsg(t)
	})
}

func keepAliveCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return keepAliveMsg(t)
	})
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case dashboardTickMsg:
		m.stats.CalculateRates()
		return m, dashboardTickCmd()

	case keepAliveMsg:
		if !m.connectionLost {
			if err := m.sender.send(wire.KeepAlive{}); err != nil {
				m.addLogEntry(fmt.Sprintf("KeepAlive failed: %v", err), true)
			} else {
				m.sentFrames++
			}
		}
		return m, keepAliveCmd(m.keepAlive)

	case frameBatchMsg:
		for _, f := range msg.frames {
			m.processFrame(f)
		}
		return m, nil

	case connectionLostMsg:
		m.connectionLost = true
		m.synchronized = false
		m.addLogEntry("Connection lost - reconnecting...", true)
		return m, nil

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected", false)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit parses and sends the command line
func (m dashboardModel) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if line == "" {
		return m, nil
	}

	c, err := wire.ParseCommand(strings.Fields(line))
	if err != nil {
		m.addLogEntry(err.Error(), true)
		return m, nil
	}

	if err := m.sender.send(c); err != nil {
		m.addLogEntry(fmt.Sprintf("Send failed: %v", err), true)
		return m, nil
	}
	m.sentFrames++
	m.addLogEntry(fmt.Sprintf("Sent %s %s", wire.FormatKind(c.Kind()), wire.FormatPayload(c)), false)

	if _, ok := c.(wire.Exit); ok {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *dashboardModel) processFrame(f frameMsg) {
	if f.decodeErr != nil {
		m.stats.Update(nil, f.decodeErr, nil)
		if m.synchronized {
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", f.decodeErr), true)
		}
		return
	}
	if f.cmd == nil {
		return
	}

	if !m.synchronized {
		m.synchronized = true
		m.addLogEntry("Synchronized", false)
	}
	m.stats.Update(f.cmd, nil, f.validationErrors)
	m.applyTelemetry(f.cmd)

	kind := wire.FormatKind(f.cmd.Kind())
	for _, v := range f.validationErrors {
		m.addLogEntry(fmt.Sprintf("%s: %s", kind, v.Message), true)
	}
}

// applyTelemetry folds one drone report into the telemetry panel
func (m *dashboardModel) applyTelemetry(c wire.Command) {
	t := &m.telemetry
	t.updated = time.Now()

	switch c := c.(type) {
	case wire.ModeChange:
		if !t.hasMode || t.mode != c.Mode {
			m.addLogEntry(fmt.Sprintf("Mode %s", wire.FormatMode(c.Mode)), false)
		}
		t.mode = c.Mode
		t.hasMode = true
	case wire.Attitude:
		if c.Axis <= wire.AxisRoll {
			t.attitude[c.Axis] = c.Value
		}
	case wire.ReferenceBack:
		if c.Axis <= wire.AxisRoll {
			t.references[c.Axis] = c.Value
		}
	case wire.ThrottleBack:
		t.throttle = c.Value
	case wire.MotorValue:
		if int(c.Index) < len(t.motors) {
			t.motors[c.Index] = c.Speed
		}
	case wire.Motors:
		t.motors = c.Speeds
	case wire.Height:
		t.height = c.Value
	case wire.Speed:
		t.speed = c.Value
	case wire.BatteryCheck:
		t.battery = c.Level
	case wire.Time:
		t.logMicros = c.Micros
	case wire.SetGain:
		if c.Axis <= wire.AxisRoll && c.Term <= wire.TermD {
			t.gains[c.Axis][c.Term] = c.Value
			m.addLogEntry(fmt.Sprintf("Gain %s %s = %d", c.Axis, c.Term, c.Value), false)
		}
	case wire.Datalog:
		t.logRecords++
	}
}

func (m *dashboardModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m dashboardModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("ROTORCORE - GROUND STATION"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Sent: %d | Press Esc to quit", m.connInfo, m.sentFrames)))
	s.WriteString("\n\n")

	switch {
	case m.connectionLost:
		s.WriteString(errorStyle.Render("✗ Connection lost"))
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
	default:
		s.WriteString(valueStyle.Render("✓ Synchronized"))
	}
	s.WriteString("\n\n")

	// Telemetry
	t := m.telemetry
	mode := "unknown"
	if t.hasMode {
		mode = wire.FormatMode(t.mode)
	}
	batteryStyle := valueStyle
	if t.battery > wire.BatteryUnsafeLow && t.battery < wire.BatteryUnsafeHigh {
		batteryStyle = errorStyle
	}

	tel := strings.Builder{}
	tel.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Mode:"), valueStyle.Render(mode),
		labelStyle.Render("Battery:"), batteryStyle.Render(fmt.Sprintf("%d", t.battery)),
		labelStyle.Render("Log write:"), valueStyle.Render(fmt.Sprintf("%d µs", t.logMicros)),
	))
	tel.WriteString(fmt.Sprintf("%s %s\n",
		labelStyle.Render("Attitude:"),
		valueStyle.Render(fmt.Sprintf("yaw %s  pitch %s  roll %s", t.attitude[0], t.attitude[1], t.attitude[2])),
	))
	tel.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Reference:"),
		valueStyle.Render(fmt.Sprintf("yaw %s  pitch %s  roll %s", t.references[0], t.references[1], t.references[2])),
		labelStyle.Render("Throttle:"), valueStyle.Render(fmt.Sprintf("%d", t.throttle)),
	))
	tel.WriteString(fmt.Sprintf("%s %s\n",
		labelStyle.Render("Motors:"),
		valueStyle.Render(fmt.Sprintf("%4d %4d %4d %4d", t.motors[0], t.motors[1], t.motors[2], t.motors[3])),
	))
	tel.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		labelStyle.Render("Height:"), valueStyle.Render(t.height.String()),
		labelStyle.Render("Speed:"), valueStyle.Render(t.speed.String()),
	))
	tel.WriteString(fmt.Sprintf("%s %s",
		labelStyle.Render("Gains P/D:"),
		valueStyle.Render(fmt.Sprintf("yaw %d/%d  pitch %d/%d  roll %d/%d",
			t.gains[0][0], t.gains[0][1], t.gains[1][0], t.gains[1][1], t.gains[2][0], t.gains[2][1])),
	))
	if t.logRecords > 0 {
		tel.WriteString(fmt.Sprintf("\n%s %s", labelStyle.Render("Log records:"), valueStyle.Render(fmt.Sprintf("%d", t.logRecords))))
	}
	s.WriteString(boxStyle.Render(tel.String()))
	s.WriteString("\n\n")

	// Statistics
	statsContent := fmt.Sprintf("%s %s   %s %s   %s %s   %s %s",
		labelStyle.Render("Frames:"), valueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFrames)),
		labelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.Errors())),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f fr/s", m.stats.FrameRate)),
		labelStyle.Render("Anomalies:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.Anomalies)),
	)
	s.WriteString(boxStyle.Render(statsContent))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 22 // header, telemetry, stats and input
	if logHeight < 5 {
		logHeight = 5
	}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	logContent := strings.Builder{}
	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), errorStyle.Render("✗ "+entry.message)))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n", headerStyle.Render(timestamp), warningStyle.Render("ℹ "+entry.message)))
			}
		}
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(boxStyle.Width(width).Render(logContent.String()))
	s.WriteString("\n")
	s.WriteString(m.input.View())

	return s.String()
}
