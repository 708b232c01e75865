// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/rotorcore/pkg/wire"
)

var sendRepeat int

var sendCmd = &cobra.Command{
	Use:   "send <command> [args...]",
	Short: "Encode and send one command",
	Long: `Encode one command as a live frame and send it.

Commands:
  mode <name|number>          request a mode change (safe, panic, manual,
                              calibration, yaw-controlled, full-control,
                              raw, height, log-out)
  gain <axis> <p|d> <value>   set a controller gain
  throttle <value>            set the throttle reference
  ref <axis> <radians>        set an attitude reference
  keepalive                   keep the link watchdog fed
  exit                        ask the ground station session to end

Examples:
  rotorcore send -p /dev/ttyUSB0 mode calibration
  rotorcore send -p /dev/ttyUSB0 gain pitch p 20`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendRepeat, "repeat", 1, "Number of times to send the frame, 100 ms apart")
}

func runSend(cmd *cobra.Command, args []string) error {
	c, err := wire.ParseCommand(args)
	if err != nil {
		return err
	}
	frame, err := wire.EncodeLive(c)
	if err != nil {
		return fmt.Errorf("encode %s: %w", strings.Join(args, " "), err)
	}

	conn, connInfo, err := OpenConnection(0)
	if err != nil {
		return err
	}
	defer conn.Close()

	for i := 0; i < sendRepeat; i++ {
		if i > 0 {
			time.Sleep(100 * time.Millisecond)
		}
		if _, err := conn.Write(frame); err != nil {
			return fmt.Errorf("send failed: %w", err)
		}
	}

	fmt.Printf("Sent %s %s to %s (% X)\n", wire.FormatKind(c.Kind()), wire.FormatPayload(c), connInfo, frame)
	return nil
}
