// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rotorcore/pkg/datalog"
	"github.com/Thermoquad/rotorcore/pkg/link"
	"github.com/Thermoquad/rotorcore/pkg/loop"
	"github.com/Thermoquad/rotorcore/pkg/sim"
)

var (
	benchTicks      int
	benchFlashImage string
	benchBattery    uint16
	benchPressure   uint32
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the flight core on simulated sensors over a real link",
	Long: `Run the flight core at its real tick rate against simulated hardware.

Sensors, motors, LEDs and the flash chip are simulated; the ground link is
the serial port or WebSocket given by the connection flags, so a ground
station (or the dashboard command) can fly the bench exactly as it would
the drone.

The simulated flash can be loaded from and saved to an image file with
--flash-image, which the logdump command decodes.

Runs until interrupted, or for --ticks ticks.`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 0, "Number of ticks to run (0 runs until interrupted)")
	benchCmd.Flags().StringVar(&benchFlashImage, "flash-image", "", "Flash image file to load at start and save at exit")
	benchCmd.Flags().Uint16Var(&benchBattery, "battery", sim.DefaultBattery, "Simulated battery reading (ADC units)")
	benchCmd.Flags().Uint32Var(&benchPressure, "pressure", sim.DefaultPressure, "Simulated barometer reading")
}

func runBench(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(20 * time.Millisecond)
	if err != nil {
		return err
	}
	pump := link.NewPump(conn, link.DefaultDepth)
	defer pump.Close()

	cfg := loop.DefaultConfig()
	cfg.Logger = log.New(os.Stderr, "bench: ", log.LstdFlags|log.Lmicroseconds)

	board := sim.NewBoard(cfg.TickRate)
	board.Battery.Level = benchBattery
	board.Barometer.Pressure = benchPressure
	if benchFlashImage != "" {
		if err := board.Flash.LoadImage(benchFlashImage); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	clock := sim.NewRealClock(cfg.TickRate)
	defer clock.Stop()

	hw := board.Hardware()
	hw.Link = pump
	hw.Clock = clock

	sched := loop.New(cfg, hw, datalog.New(board.Flash))

	fmt.Printf("Rotorcore - Bench\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Tick rate: %d Hz\n", cfg.TickRate)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if benchTicks > 0 {
		for i := 0; i < benchTicks && ctx.Err() == nil; i++ {
			sched.Step()
		}
	} else {
		sched.Run(ctx)
	}

	st := sched.Stats()
	fmt.Printf("\n--- Bench summary ---\n")
	fmt.Printf("Ticks: %d\n", st.Ticks)
	fmt.Printf("Final mode: %s\n", sched.Drone().Mode())
	fmt.Printf("Commands: %d (decode errors: %d)\n", st.Commands, st.DecodeErrors)
	fmt.Printf("Hardware errors: %d\n", st.HardwareErrors)
	fmt.Printf("Watchdog panics: %d, battery panics: %d\n", st.WatchdogPanics, st.BatteryPanics)

	if benchFlashImage != "" {
		if err := board.Flash.SaveImage(benchFlashImage); err != nil {
			return err
		}
		fmt.Printf("Flash image saved to %s\n", benchFlashImage)
	}
	return nil
}
