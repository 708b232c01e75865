// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/rotorcore/pkg/wire"
)

var (
	showAll       bool
	statsInterval int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Decode and display live frames",
	Long: `Continuously decode and display live frames as they arrive.

Each decoded command is printed with a timestamp, its kind and its payload.
Frames are validated as they arrive: unsafe battery readings, motor speeds
above the cap and unknown modes are highlighted. Decode errors are only
reported once the stream is synchronized.

By default every command is shown; use --show-all=false to only display
errors and anomalies. Statistics are printed every --stats-interval seconds
(0 disables them).

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", true, "Show every command (not just errors)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics interval in seconds (0 to disable)")
}

var (
	monitorErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	monitorWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	monitorSyncStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(0)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Rotorcore - Live Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	parser := wire.NewParser()
	stats := wire.NewStatistics()

	// Sync tracking: decode errors before the first good frame are noise
	synchronized := false

	reads := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				reads <- data
			}
			if err != nil {
				if connectionClosed(err) {
					readErr <- err
					return
				}
				log.Printf("Read error: %v", err)
			}
		}
	}()

	var statsTick <-chan time.Time
	if statsInterval > 0 {
		ticker := time.NewTicker(time.Duration(statsInterval) * time.Second)
		defer ticker.Stop()
		statsTick = ticker.C
	}

	for {
		select {
		case data := <-reads:
			for _, b := range data {
				c, decodeErr := parser.Feed(b)
				if decodeErr != nil {
					if synchronized {
						stats.Update(nil, decodeErr, nil)
						fmt.Printf("[%s] %s %v\n", time.Now().Format("15:04:05.000"),
							monitorErrorStyle.Render("DECODE ERROR:"), decodeErr)
					}
					continue
				}
				if c == nil {
					continue
				}

				if !synchronized {
					synchronized = true
					fmt.Println(monitorSyncStyle.Render("[SYNC] Synchronized"))
				}

				validationErrors := wire.Validate(c)
				stats.Update(c, nil, validationErrors)
				printMonitored(c, validationErrors)
			}

		case err := <-readErr:
			log.Printf("Connection closed: %v", err)
			stats.CalculateRates()
			fmt.Print(stats.String())
			return nil

		case <-statsTick:
			stats.CalculateRates()
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}

func printMonitored(c wire.Command, validationErrors []wire.ValidationError) {
	if len(validationErrors) == 0 {
		if showAll {
			fmt.Println(wire.FormatCommand(time.Now(), c))
		}
		return
	}

	fmt.Printf("%s %s\n", wire.FormatCommand(time.Now(), c), monitorWarningStyle.Render("ANOMALY"))
	for i, v := range validationErrors {
		style := monitorWarningStyle
		if v.Type == wire.AnomalyBatteryUnsafe {
			style = monitorErrorStyle
		}
		fmt.Printf("  Issue %d: %s\n", i+1, style.Render(v.Message))
	}
}
