// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import (
	"github.com/pkg/errors"

	"github.com/Thermoquad/rotorcore/pkg/wire"
)

// Link is an in-memory ground link. Bytes passed to Inject are handed out by
// Receive; everything the core sends accumulates until Drain.
type Link struct {
	in   []byte
	out  []byte
	Err  error
	Down bool
}

// Inject queues bytes as if the ground station had sent them
func (l *Link) Inject(data []byte) {
	l.in = append(l.in, data...)
}

// InjectCommand encodes cmd as a live frame and queues it
func (l *Link) InjectCommand(cmd wire.Command) error {
	frame, err := wire.EncodeLive(cmd)
	if err != nil {
		return errors.Wrap(err, "inject")
	}
	l.Inject(frame)
	return nil
}

// Pending returns the number of injected bytes not yet received
func (l *Link) Pending() int {
	return len(l.in)
}

// Receive implements hal.Link
func (l *Link) Receive(buf []byte) (int, error) {
	if l.Err != nil {
		return 0, l.Err
	}
	n := copy(buf, l.in)
	l.in = l.in[n:]
	return n, nil
}

// Send implements hal.Link. A link marked Down silently drops output.
func (l *Link) Send(data []byte) error {
	if l.Err != nil {
		return l.Err
	}
	if !l.Down {
		l.out = append(l.out, data...)
	}
	return nil
}

// Sent returns the bytes sent since the last Drain
func (l *Link) Sent() []byte {
	return l.out
}

// Drain returns and clears the sent bytes
func (l *Link) Drain() []byte {
	out := l.out
	l.out = nil
	return out
}

// DrainCommands decodes and clears everything sent so far
func (l *Link) DrainCommands() []wire.Command {
	return wire.NewParser().FeedAll(l.Drain())
}
