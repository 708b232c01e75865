// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaud is the drone UART rate
const DefaultBaud = 115200

// OpenSerial opens a serial port at 8N1. A positive readTimeout makes Read
// return (0, nil) when the port stays idle.
func OpenSerial(portName string, baudRate int, readTimeout time.Duration) (Conn, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
		}
	}
	return port, nil
}

// Ports lists the serial ports present on the host
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
