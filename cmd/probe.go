// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rotorcore/pkg/wire"
)

var (
	probeTimeout int
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test connection by waiting for a valid live frame",
	Long: `Wait for a valid live frame on the connection until timeout.

This command connects to a serial port or WebSocket and waits for any valid
frame. Invalid bytes and frames failing the checksum are skipped.

A drone in any mode other than LogOut reports telemetry every tick, so a
healthy link answers almost immediately.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runProbe(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Rotorcore - Link Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", probeTimeout)
	fmt.Printf("Waiting for valid frame...\n\n")

	parser := wire.NewParser()
	buf := make([]byte, 128)

	cmdChan := make(chan wire.Command, 1)
	errChan := make(chan error, 1)

	go func() {
		rejected := 0
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			for i := 0; i < n; i++ {
				c, decodeErr := parser.Feed(buf[i])
				if decodeErr != nil {
					rejected++
					continue
				}
				if c != nil {
					if rejected > 0 {
						fmt.Printf("(skipped %d rejected frames before sync)\n", rejected)
					}
					cmdChan <- c
					return
				}
			}
		}
	}()

	select {
	case c := <-cmdChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Kind: %s (0x%02X)\n", wire.FormatKind(c.Kind()), uint8(c.Kind()))
		fmt.Printf("  Payload: %s\n", wire.FormatPayload(c))
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(probeTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", probeTimeout)
		os.Exit(1)
	}

	return nil
}
