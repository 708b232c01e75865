// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/rotorcore/pkg/link"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

var dashboardKeepAlive time.Duration

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive ground station TUI",
	Long: `Fly and monitor the drone from an interactive terminal UI.

The dashboard shows live telemetry (mode, attitude, references, motors,
height, battery), frame statistics and an event log, and accepts commands
on its command line:

  mode <name>                 request a mode change
  gain <axis> <p|d> <value>   set a controller gain
  throttle <value>            set the throttle reference
  ref <axis> <radians>        set an attitude reference
  exit                        send Exit and leave the dashboard

A KeepAlive is sent every --keepalive interval so the drone's link watchdog
stays fed. The connection is re-established automatically when it drops.

Supports both serial and WebSocket connections.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().DurationVar(&dashboardKeepAlive, "keepalive", 250*time.Millisecond, "KeepAlive interval (0 disables)")
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	conn     link.Conn
	connInfo string
	mu       sync.RWMutex
	p        *tea.Program
	done     chan struct{}
}

func (cm *connectionManager) getConn() link.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn
}

func (cm *connectionManager) setConn(conn link.Conn, connInfo string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
	cm.connInfo = connInfo
}

// send encodes c and writes it to the current connection
func (cm *connectionManager) send(c wire.Command) error {
	frame, err := wire.EncodeLive(c)
	if err != nil {
		return err
	}
	conn := cm.getConn()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	_, err = conn.Write(frame)
	return err
}

func runDashboard(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection(0)
	if err != nil {
		return err
	}

	cm := &connectionManager{
		conn:     conn,
		connInfo: connInfo,
		done:     make(chan struct{}),
	}

	m := initialDashboardModel(cm, connInfo, dashboardKeepAlive)
	p := tea.NewProgram(m, tea.WithAltScreen())
	cm.p = p

	go cm.readerLoop()

	_, err = p.Run()
	close(cm.done)
	if c := cm.getConn(); c != nil {
		c.Close()
	}
	if err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// readerLoop reads from the connection and reconnects when it is lost
func (cm *connectionManager) readerLoop() {
	for {
		select {
		case <-cm.done:
			return
		default:
		}

		if !cm.readFromConnection() {
			return
		}

		cm.p.Send(connectionLostMsg{})
		if !cm.reconnect() {
			return
		}
	}
}

// readFromConnection decodes frames until the connection fails. Decoded
// frames are forwarded to the TUI in batches every 50 ms. Returns true if
// the connection was lost, false if shutdown was requested.
func (cm *connectionManager) readFromConnection() bool {
	parser := wire.NewParser()
	synchronized := false

	batchChan := make(chan frameMsg, 256)
	readerDone := make(chan struct{})

	go func() {
		defer close(readerDone)
		buf := make([]byte, 128)
		for {
			select {
			case <-cm.done:
				return
			default:
			}

			conn := cm.getConn()
			if conn == nil {
				return
			}

			n, err := conn.Read(buf)
			for i := 0; i < n; i++ {
				c, decodeErr := parser.Feed(buf[i])
				if decodeErr != nil {
					if synchronized {
						select {
						case batchChan <- frameMsg{decodeErr: decodeErr}:
						default:
						}
					}
					continue
				}
				if c == nil {
					continue
				}
				synchronized = true
				select {
				case batchChan <- frameMsg{cmd: c, validationErrors: wire.Validate(c)}:
				default:
				}
			}

			if err != nil {
				if connectionClosed(err) {
					return
				}
				select {
				case <-cm.done:
					return
				default:
				}
				// Transient serial error
				time.Sleep(10 * time.Millisecond)
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-cm.done:
				return
			case <-readerDone:
				return
			case <-ticker.C:
				var batch frameBatchMsg
			drainLoop:
				for {
					select {
					case msg := <-batchChan:
						batch.frames = append(batch.frames, msg)
					default:
						break drainLoop
					}
				}
				if len(batch.frames) > 0 {
					cm.p.Send(batch)
				}
			}
		}
	}()

	<-readerDone

	select {
	case <-cm.done:
		return false
	default:
		return true
	}
}

// reconnect attempts to reconnect with exponential backoff. Returns false if
// shutdown was requested during reconnection.
func (cm *connectionManager) reconnect() bool {
	if conn := cm.getConn(); conn != nil {
		conn.Close()
	}
	cm.setConn(nil, "")

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-cm.done:
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := OpenConnection(0)
		if err == nil {
			cm.setConn(conn, connInfo)
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			return true
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
