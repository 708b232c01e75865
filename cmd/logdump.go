// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rotorcore/pkg/datalog"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

var logdumpErrorsOnly bool

var logdumpCmd = &cobra.Command{
	Use:   "logdump <image>",
	Short: "Decode the datalog slots of a flash image",
	Long: `Decode every 64-byte log slot of a raw flash image.

Erased slots are skipped. Slots that fail their checksum or do not decode
are reported with their address. Images are produced by the bench command
(--flash-image) or read back from the drone's flash chip.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogdump,
}

func init() {
	rootCmd.AddCommand(logdumpCmd)
	logdumpCmd.Flags().BoolVar(&logdumpErrorsOnly, "errors", false, "Only show slots that fail to decode")
}

func runLogdump(cmd *cobra.Command, args []string) error {
	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	entries := datalog.Scan(image)
	stats := wire.NewStatistics()

	for _, e := range entries {
		if e.Err != nil {
			stats.Update(nil, e.Err, nil)
			fmt.Printf("0x%06X \033[1;31mBAD SLOT:\033[0m %v\n", e.Addr, e.Err)
			continue
		}

		validationErrors := wire.Validate(e.Cmd)
		stats.Update(e.Cmd, nil, validationErrors)
		if logdumpErrorsOnly && len(validationErrors) == 0 {
			continue
		}
		fmt.Printf("0x%06X %s %s\n", e.Addr, wire.FormatKind(e.Cmd.Kind()), wire.FormatPayload(e.Cmd))
		for _, v := range validationErrors {
			fmt.Printf("  \033[1;33m%s\033[0m\n", v.Message)
		}
	}

	fmt.Printf("\n--- %d slots used of %d ---\n", len(entries), len(image)/datalog.SlotSize)
	fmt.Printf("Valid: %d  Bad: %d  Anomalies: %d\n", stats.ValidFrames, stats.Errors(), stats.Anomalies)
	return nil
}
