// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package datalog keeps a circular log of 64-byte command slots on the
// external flash chip.
//
// Append writes at the write cursor and erases the whole chip when the next
// slot would cross the region bound. Next reads at an independent read
// cursor, used by the LogOut mode to replay the log, and never erases.
package datalog

import (
	"fmt"
	"time"

	"github.com/Thermoquad/rotorcore/pkg/estimate"
	"github.com/Thermoquad/rotorcore/pkg/fixed"
	"github.com/Thermoquad/rotorcore/pkg/hal"
	"github.com/Thermoquad/rotorcore/pkg/wire"
)

// Log region layout
const (
	RegionSize = 0x200000
	SlotSize   = wire.LogFrameSize
)

// Log is the flash-backed circular log
type Log struct {
	flash hal.Flash
	bound uint32
	write uint32
	read  uint32
}

// New creates a log over the full region of flash
func New(flash hal.Flash) *Log {
	return NewSized(flash, RegionSize)
}

// NewSized creates a log bounded at size bytes. size is rounded down to a
// whole number of slots.
func NewSized(flash hal.Flash, size uint32) *Log {
	return &Log{flash: flash, bound: size - size%SlotSize}
}

// Append writes cmd as a log frame into the next slot
func (l *Log) Append(cmd wire.Command) error {
	frame, err := wire.EncodeLog(cmd)
	if err != nil {
		return err
	}

	if l.write+SlotSize > l.bound {
		if err := l.flash.EraseChip(); err != nil {
			return fmt.Errorf("datalog erase: %w", err)
		}
		l.write = 0
	}

	if err := l.flash.WriteBlock(l.write, frame[:]); err != nil {
		return fmt.Errorf("datalog write at 0x%06X: %w", l.write, err)
	}
	l.write += SlotSize
	return nil
}

// Next reads the slot at the read cursor and advances it, wrapping to the
// start of the region. An erased or undecodable slot yields a nil command.
func (l *Log) Next() (wire.Command, error) {
	var slot [SlotSize]byte
	addr := l.read
	if err := l.flash.ReadBlock(addr, slot[:]); err != nil {
		return nil, fmt.Errorf("datalog read at 0x%06X: %w", addr, err)
	}

	l.read += SlotSize
	if l.read+SlotSize > l.bound {
		l.read = 0
	}

	cmd, err := wire.DecodeLog(slot[:])
	if err != nil {
		return nil, nil
	}
	return cmd, nil
}

// Rewind restarts replay from the beginning of the region
func (l *Log) Rewind() {
	l.read = 0
}

// Cursor returns the write cursor
func (l *Log) Cursor() uint32 {
	return l.write
}

// ReadCursor returns the read cursor
func (l *Log) ReadCursor() uint32 {
	return l.read
}

// Snapshot builds the Datalog record persisted every tick
func Snapshot(mode wire.Mode, fused, raw estimate.YPR, motors [4]uint16, elapsed time.Duration, speed fixed.Num) wire.Datalog {
	return wire.Datalog{
		Mode:       mode,
		YPR:        fused.Array(),
		RawYPR:     raw.Array(),
		Motors:     motors,
		TimeMillis: uint32(elapsed.Milliseconds()),
		Speed:      speed,
	}
}

// Entry is one decoded slot of a flash image
type Entry struct {
	Addr uint32
	Cmd  wire.Command
	Err  error
}

// Scan decodes every slot of a raw flash image. Erased slots are skipped;
// slots that fail to decode are returned with Err set.
func Scan(image []byte) []Entry {
	var entries []Entry
	for addr := 0; addr+SlotSize <= len(image); addr += SlotSize {
		slot := image[addr : addr+SlotSize]
		if erased(slot) {
			continue
		}
		cmd, err := wire.DecodeLog(slot)
		entries = append(entries, Entry{Addr: uint32(addr), Cmd: cmd, Err: err})
	}
	return entries
}

func erased(slot []byte) bool {
	for _, b := range slot {
		if b != 0xFF {
			return false
		}
	}
	return true
}
