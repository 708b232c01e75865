// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link connects the host tools and the bench to a byte stream: a
// serial port or a websocket bridge.
package link

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Conn is a blocking byte connection
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// ErrClosed is returned by a connection that has already failed or closed
var ErrClosed = errors.New("link closed")

// DefaultDepth is the number of received chunks a Pump buffers
const DefaultDepth = 64

// Pump adapts a blocking Conn to the non-blocking hal.Link. A reader
// goroutine queues every received chunk on a bounded channel and Receive
// drains it without blocking. Once the connection fails, Receive returns
// the queued data first and then the read error.
type Pump struct {
	conn Conn
	data chan []byte
	errc chan error
	done chan struct{}

	pending []byte
	err     error

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewPump starts the reader goroutine. depth bounds the number of queued
// chunks; the reader blocks when the queue is full.
func NewPump(conn Conn, depth int) *Pump {
	if depth < 1 {
		depth = DefaultDepth
	}
	p := &Pump{
		conn: conn,
		data: make(chan []byte, depth),
		errc: make(chan error, 1),
		done: make(chan struct{}),
	}
	go p.readLoop()
	return p
}

func (p *Pump) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case p.data <- chunk:
			case <-p.done:
				return
			}
		}
		if err != nil {
			p.errc <- err
			return
		}
	}
}

// Receive copies queued bytes into buf. It returns 0 when nothing is
// pending.
func (p *Pump) Receive(buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		if len(p.pending) == 0 && !p.next() {
			break
		}
		c := copy(buf[n:], p.pending)
		p.pending = p.pending[c:]
		n += c
	}
	if n == 0 && p.err != nil {
		return 0, p.err
	}
	return n, nil
}

// next loads the next queued chunk without blocking
func (p *Pump) next() bool {
	select {
	case chunk := <-p.data:
		p.pending = chunk
		return true
	default:
	}
	if p.err != nil {
		return false
	}

	select {
	case p.err = <-p.errc:
	default:
		return false
	}
	// Chunks read before the error are queued by now
	select {
	case chunk := <-p.data:
		p.pending = chunk
		return true
	default:
		return false
	}
}

// Send writes data to the connection
func (p *Pump) Send(data []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, err := p.conn.Write(data); err != nil {
		return fmt.Errorf("link write: %w", err)
	}
	return nil
}

// Close stops the reader and closes the connection
func (p *Pump) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.conn.Close()
	})
	return err
}
