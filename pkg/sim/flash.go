// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package sim

import (
	"os"

	"github.com/pkg/errors"
)

// FlashSize is the size of the simulated flash chip
const FlashSize = 0x200000

// ErrOutOfRange is returned for accesses beyond the end of the chip
var ErrOutOfRange = errors.New("flash access out of range")

// Flash is a NOR flash chip: erase sets every byte to 0xFF and programming
// can only clear bits
type Flash struct {
	data   []byte
	Erases int
	Err    error
}

// NewFlash returns an erased chip
func NewFlash() *Flash {
	f := &Flash{data: make([]byte, FlashSize)}
	f.fill()
	return f
}

func (f *Flash) fill() {
	for i := range f.data {
		f.data[i] = 0xFF
	}
}

func (f *Flash) check(addr uint32, n int) error {
	if f.Err != nil {
		return f.Err
	}
	if uint64(addr)+uint64(n) > uint64(len(f.data)) {
		return errors.Wrapf(ErrOutOfRange, "addr 0x%06X len %d", addr, n)
	}
	return nil
}

// ReadBlock implements hal.Flash
func (f *Flash) ReadBlock(addr uint32, buf []byte) error {
	if err := f.check(addr, len(buf)); err != nil {
		return err
	}
	copy(buf, f.data[addr:])
	return nil
}

// WriteBlock implements hal.Flash
func (f *Flash) WriteBlock(addr uint32, data []byte) error {
	if err := f.check(addr, len(data)); err != nil {
		return err
	}
	for i, b := range data {
		f.data[int(addr)+i] &= b
	}
	return nil
}

// EraseChip implements hal.Flash
func (f *Flash) EraseChip() error {
	if f.Err != nil {
		return f.Err
	}
	f.fill()
	f.Erases++
	return nil
}

// Image returns the raw chip contents
func (f *Flash) Image() []byte {
	return f.data
}

// LoadImage replaces the chip contents with a file. Short images are padded
// with erased bytes.
func (f *Flash) LoadImage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "load flash image %s", path)
	}
	if len(data) > len(f.data) {
		return errors.Errorf("flash image %s is %d bytes (max %d)", path, len(data), len(f.data))
	}
	f.fill()
	copy(f.data, data)
	return nil
}

// SaveImage writes the chip contents to a file
func (f *Flash) SaveImage(path string) error {
	if err := os.WriteFile(path, f.data, 0o644); err != nil {
		return errors.Wrapf(err, "save flash image %s", path)
	}
	return nil
}
