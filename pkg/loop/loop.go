// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package loop runs the fixed-rate tick: receive, telemetry, control and
// the link and battery watchdog.
package loop

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Thermoquad/rotorcore/pkg/datalog"
	"github.com/Thermoquad/rotorcore/pkg/flight"
	"github.com/Thermoquad/rotorcore/pkg/hal"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

// Config holds the scheduler tunables
type Config struct {
	TickRate int // Hz

	// Watchdog: after BootSettleTicks, every WatchdogEvery ticks counts one
	// miss; WatchdogMisses consecutive misses without an inbound command
	// force Panic
	BootSettleTicks uint64
	WatchdogEvery   uint64
	WatchdogMisses  int

	// Battery readings strictly between BatteryLow and BatteryHigh force Panic
	BatteryLow  uint16
	BatteryHigh uint16

	// Telemetry periods in ticks
	MotorsEvery   uint64
	JoystickEvery uint64
	HeightEvery   uint64

	Logger *log.Logger
}

// DefaultConfig returns the flight configuration
func DefaultConfig() Config {
	return Config{
		TickRate:        100,
		BootSettleTicks: 200,
		WatchdogEvery:   5,
		WatchdogMisses:  20,
		BatteryLow:      wire.BatteryUnsafeLow,
		BatteryHigh:     wire.BatteryUnsafeHigh,
		MotorsEvery:     2,
		JoystickEvery:   9,
		HeightEvery:     6,
	}
}

// Stats counts scheduler events
type Stats struct {
	Ticks          uint64
	Commands       uint64
	DecodeErrors   uint64
	HardwareErrors uint64
	WatchdogPanics uint64
	BatteryPanics  uint64
}

// Scheduler drives one Drone at the configured tick rate
type Scheduler struct {
	cfg    Config
	hw     hal.Hardware
	drone  *flight.Drone
	parser *wire.Parser
	buf    [32]byte

	tick        uint64
	start       time.Duration
	lastInbound time.Duration
	misses      int
	stats       Stats
}

// New creates a scheduler and its drone. The drone starts in Safe mode.
func New(cfg Config, hw hal.Hardware, dl *datalog.Log) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	now := hw.Clock.Now()
	return &Scheduler{
		cfg:         cfg,
		hw:          hw,
		drone:       flight.New(hw, dl, cfg.TickRate),
		parser:      wire.NewParser(),
		start:       now,
		lastInbound: now,
	}
}

// Drone returns the scheduled drone
func (s *Scheduler) Drone() *flight.Drone { return s.drone }

// Tick returns the number of completed ticks
func (s *Scheduler) Tick() uint64 { return s.tick }

// Misses returns the current watchdog miss count
func (s *Scheduler) Misses() int { return s.misses }

// Stats returns a copy of the counters
func (s *Scheduler) Stats() Stats { return s.stats }

// Step runs one tick and waits for the next one. A hardware error ends the
// phase it occurred in and is logged. The control law and the watchdog run
// every tick regardless. The first error of the tick is returned.
func (s *Scheduler) Step() error {
	now := s.hw.Clock.Now()

	var first error
	fail := func(err error) {
		if err == nil {
			return
		}
		s.stats.HardwareErrors++
		s.cfg.Logger.Printf("tick %d: %v", s.tick, err)
		if first == nil {
			first = err
		}
	}

	fail(s.receive(now))
	fail(s.telemetry(now))
	fail(s.drone.Operate(now - s.lastInbound))
	fail(s.watchdog())

	s.tick++
	s.stats.Ticks++
	s.hw.Clock.WaitForNextTick()
	return first
}

// Run steps until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_ = s.Step()
	}
}

// receive drains the link into the parser and dispatches every decoded
// command. A failed dispatch does not stop the drain; the first such error
// is returned once the link is empty.
func (s *Scheduler) receive(now time.Duration) error {
	var first error
	for {
		n, err := s.hw.Link.Receive(s.buf[:])
		if err != nil {
			if first == nil {
				first = fmt.Errorf("link receive: %w", err)
			}
			return first
		}
		if n == 0 {
			return first
		}
		s.lastInbound = now

		for _, b := range s.buf[:n] {
			cmd, err := s.parser.Feed(b)
			if err != nil {
				s.stats.DecodeErrors++
				continue
			}
			if cmd == nil {
				continue
			}
			s.stats.Commands++
			s.misses = 0
			if err := s.drone.ProcessCommand(cmd); err != nil && first == nil {
				first = err
			}
		}
	}
}

// telemetry logs a snapshot and sends the periodic reports. Nothing is
// logged or reported while the datalog is being read out.
func (s *Scheduler) telemetry(now time.Duration) error {
	if s.drone.Mode() == wire.ModeLogOut {
		return nil
	}

	took, err := s.drone.Snapshot(now - s.start)
	if err != nil {
		return err
	}
	if err := s.drone.Send(wire.Time{Micros: uint64(took.Microseconds())}); err != nil {
		return err
	}

	if s.tick%s.cfg.JoystickEvery == 0 {
		s.hw.Indicators.LedToggle(hal.LedBlue)
		if err := s.drone.SendJoystickEcho(); err != nil {
			return err
		}
	}
	if s.tick%s.cfg.MotorsEvery == 0 {
		s.hw.Indicators.LedToggle(hal.LedBlue)
		if err := s.drone.SendMotorValues(); err != nil {
			return err
		}
	}
	if s.tick%s.cfg.HeightEvery == 0 {
		if err := s.drone.SendHeight(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) watchdog() error {
	if s.tick <= s.cfg.BootSettleTicks || s.tick%s.cfg.WatchdogEvery != 0 {
		return nil
	}

	s.misses++
	if s.misses >= s.cfg.WatchdogMisses {
		if s.misses == s.cfg.WatchdogMisses {
			s.cfg.Logger.Printf("tick %d: link lost", s.tick)
		}
		s.stats.WatchdogPanics++
		if err := s.forcePanic(); err != nil {
			return err
		}
	}

	level, err := s.hw.Battery.ReadBattery()
	if err != nil {
		return fmt.Errorf("read battery: %w", err)
	}
	if level > s.cfg.BatteryLow && level < s.cfg.BatteryHigh {
		s.cfg.Logger.Printf("tick %d: battery %d unsafe", s.tick, level)
		s.stats.BatteryPanics++
		if err := s.forcePanic(); err != nil {
			return err
		}
	}
	return s.drone.SendBattery(level)
}

func (s *Scheduler) forcePanic() error {
	return s.drone.ProcessCommand(wire.ModeChange{Mode: wire.ModePanic})
}
