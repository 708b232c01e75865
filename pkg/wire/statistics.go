// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks frame statistics and error rates seen by a ground tool
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames    uint64
	ValidFrames    uint64
	ChecksumErrors uint64
	LengthErrors   uint64
	MarkerErrors   uint64
	PayloadErrors  uint64
	Anomalies      uint64
	UnsafeBattery  uint64
	MotorOverCap   uint64
	UnknownModes   uint64
	PerKind        [kindCount]uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records one completed frame: its decoded command or decode error and
// any validation anomalies
func (s *Statistics) Update(cmd Command, decodeErr error, validationErrors []ValidationError) {
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	if decodeErr != nil {
		var de *DecodeError
		if !errors.As(decodeErr, &de) {
			s.PayloadErrors++
			return
		}
		switch de.Reason {
		case ReasonChecksum:
			s.ChecksumErrors++
		case ReasonLength:
			s.LengthErrors++
		case ReasonMarkers:
			s.MarkerErrors++
		default:
			s.PayloadErrors++
		}
		return
	}

	if cmd != nil && cmd.Kind() < kindCount {
		s.PerKind[cmd.Kind()]++
	}

	if len(validationErrors) == 0 {
		s.ValidFrames++
		return
	}
	for _, err := range validationErrors {
		s.Anomalies++
		switch err.Type {
		case AnomalyBatteryUnsafe:
			s.UnsafeBattery++
		case AnomalyMotorOverCap:
			s.MotorOverCap++
		case AnomalyUnknownMode:
			s.UnknownModes++
		}
	}
}

// Errors returns the total number of rejected frames
func (s *Statistics) Errors() uint64 {
	return s.ChecksumErrors + s.LengthErrors + s.MarkerErrors + s.PayloadErrors
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Errors()+s.Anomalies) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var validPercent, errorPercent float64
	if s.TotalFrames > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(s.TotalFrames)
		errorPercent = float64(s.Errors()) * 100.0 / float64(s.TotalFrames)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Frames:    %8d\n", s.TotalFrames)
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)

	if s.Errors() > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d (%.1f%%)\n", s.Errors(), errorPercent)
		if s.ChecksumErrors > 0 {
			result += fmt.Sprintf("  Checksum:         %5d\n", s.ChecksumErrors)
		}
		if s.LengthErrors > 0 {
			result += fmt.Sprintf("  Length:           %5d\n", s.LengthErrors)
		}
		if s.MarkerErrors > 0 {
			result += fmt.Sprintf("  Markers:          %5d\n", s.MarkerErrors)
		}
		if s.PayloadErrors > 0 {
			result += fmt.Sprintf("  Payload:          %5d\n", s.PayloadErrors)
		}
	}
	if s.Anomalies > 0 {
		result += fmt.Sprintf("Anomalies:       %8d\n", s.Anomalies)
		if s.UnsafeBattery > 0 {
			result += fmt.Sprintf("  Unsafe Battery:   %5d\n", s.UnsafeBattery)
		}
		if s.MotorOverCap > 0 {
			result += fmt.Sprintf("  Motor > %d:     %5d\n", MaxMotorSpeed, s.MotorOverCap)
		}
		if s.UnknownModes > 0 {
			result += fmt.Sprintf("  Unknown Mode:     %5d\n", s.UnknownModes)
		}
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
