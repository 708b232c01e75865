// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/rotorcore/pkg/link"
)

// OpenConnection opens either a serial or WebSocket connection based on
// flags. readTimeout only applies to serial ports.
func OpenConnection(readTimeout time.Duration) (link.Conn, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = link.Password()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := link.OpenWebSocket(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		conn, err := link.OpenSerial(portName, baudRate, readTimeout)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// connectionClosed reports whether a read error means the link is gone for
// good rather than a transient serial error
func connectionClosed(err error) bool {
	return errors.Is(err, link.ErrClosed) || errors.Is(err, io.EOF)
}
