// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import "fmt"

// EncodeLive encodes a command as a live frame ready for transmission
func EncodeLive(cmd Command) ([]byte, error) {
	payload, err := MarshalCommand(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}

	// Escape marker bytes; len and checksum cover the escaped bytes
	stuffed := stuffBytes(payload)
	if len(stuffed) > MaxLivePayload {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(stuffed), MaxLivePayload)
	}

	hi, lo := LiveChecksum(stuffed)

	frame := make([]byte, 0, len(stuffed)+FrameOverhead)
	frame = append(frame, StartByte, byte(len(stuffed)))
	frame = append(frame, stuffed...)
	frame = append(frame, hi, lo, EndByte)
	return frame, nil
}

// EncodeLiveBatch encodes several commands into one buffer so they can be
// written in a single transmit call
func EncodeLiveBatch(cmds ...Command) ([]byte, error) {
	var out []byte
	for _, cmd := range cmds {
		frame, err := EncodeLive(cmd)
		if err != nil {
			return nil, err
		}
		out = append(out, frame...)
	}
	return out, nil
}

// EncodeLog encodes a command as a fixed-size log frame for the flash datalog
func EncodeLog(cmd Command) ([LogFrameSize]byte, error) {
	var frame [LogFrameSize]byte

	payload, err := MarshalCommand(cmd)
	if err != nil {
		return frame, fmt.Errorf("failed to encode command: %w", err)
	}
	if len(payload) > LogPayloadSize {
		return frame, fmt.Errorf("payload too large for log slot: %d bytes (max %d)", len(payload), LogPayloadSize)
	}

	frame[0] = StartByte
	frame[1] = byte(len(payload))
	copy(frame[2:], payload)

	hi, lo := LogChecksum(frame[2 : 2+LogPayloadSize])
	frame[LogFrameSize-3] = hi
	frame[LogFrameSize-2] = lo
	frame[LogFrameSize-1] = EndByte
	return frame, nil
}

// stuffBytes replaces every marker byte (START, END, ESC) with
// ESC + (byte XOR EscXor)
func stuffBytes(data []byte) []byte {
	result := make([]byte, 0, len(data)*2)

	for _, b := range data {
		if b == StartByte || b == EndByte || b == EscByte {
			result = append(result, EscByte, b^EscXor)
		} else {
			result = append(result, b)
		}
	}

	return result
}

// UnstuffBytes removes byte stuffing from escaped data.
// This is the inverse of stuffBytes.
func UnstuffBytes(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data))
	escapeNext := false

	for _, b := range data {
		if escapeNext {
			result = append(result, b^EscXor)
			escapeNext = false
		} else if b == EscByte {
			escapeNext = true
		} else {
			result = append(result, b)
		}
	}

	if escapeNext {
		return nil, fmt.Errorf("incomplete escape sequence at end of data")
	}

	return result, nil
}
