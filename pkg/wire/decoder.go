// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

import "fmt"

// DecodeReason classifies why a frame was rejected
type DecodeReason int

// Decode failure reasons
const (
	ReasonMarkers DecodeReason = iota
	ReasonLength
	ReasonChecksum
	ReasonEscape
	ReasonPayload
)

func (r DecodeReason) String() string {
	switch r {
	case ReasonMarkers:
		return "markers"
	case ReasonLength:
		return "length"
	case ReasonChecksum:
		return "checksum"
	case ReasonEscape:
		return "escape"
	case ReasonPayload:
		return "payload"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// DecodeError is returned for every rejected frame
type DecodeError struct {
	Reason DecodeReason
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(reason DecodeReason, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Reason: reason, Err: fmt.Errorf(format, args...)}
}

// DecodeLive decodes one complete live frame
func DecodeLive(frame []byte) (Command, error) {
	if len(frame) < FrameOverhead {
		return nil, decodeErr(ReasonLength, "frame too short: %d bytes", len(frame))
	}
	if frame[0] != StartByte || frame[len(frame)-1] != EndByte {
		return nil, decodeErr(ReasonMarkers, "bad markers 0x%02X..0x%02X", frame[0], frame[len(frame)-1])
	}

	declared := int(frame[1])
	stuffed := frame[2 : len(frame)-3]
	if declared != len(stuffed) {
		return nil, decodeErr(ReasonLength, "declared %d bytes, got %d", declared, len(stuffed))
	}

	hi, lo := LiveChecksum(stuffed)
	if frame[len(frame)-3] != hi || frame[len(frame)-2] != lo {
		return nil, decodeErr(ReasonChecksum, "expected %02X%02X, got %02X%02X",
			hi, lo, frame[len(frame)-3], frame[len(frame)-2])
	}

	payload, err := UnstuffBytes(stuffed)
	if err != nil {
		return nil, &DecodeError{Reason: ReasonEscape, Err: err}
	}

	cmd, err := UnmarshalCommand(payload)
	if err != nil {
		return nil, &DecodeError{Reason: ReasonPayload, Err: err}
	}
	return cmd, nil
}

// DecodeLog decodes one 64-byte log slot. An erased slot (all 0xFF) fails
// with ReasonMarkers.
func DecodeLog(slot []byte) (Command, error) {
	if len(slot) != LogFrameSize {
		return nil, decodeErr(ReasonLength, "log slot must be %d bytes, got %d", LogFrameSize, len(slot))
	}
	if slot[0] != StartByte || slot[LogFrameSize-1] != EndByte {
		return nil, decodeErr(ReasonMarkers, "bad markers 0x%02X..0x%02X", slot[0], slot[LogFrameSize-1])
	}

	declared := int(slot[1])
	if declared == 0 || declared > LogPayloadSize {
		return nil, decodeErr(ReasonLength, "declared %d bytes (max %d)", declared, LogPayloadSize)
	}

	padded := slot[2 : 2+LogPayloadSize]
	hi, lo := LogChecksum(padded)
	if slot[LogFrameSize-3] != hi || slot[LogFrameSize-2] != lo {
		return nil, decodeErr(ReasonChecksum, "expected %02X%02X, got %02X%02X",
			hi, lo, slot[LogFrameSize-3], slot[LogFrameSize-2])
	}

	cmd, err := UnmarshalCommand(padded[:declared])
	if err != nil {
		return nil, &DecodeError{Reason: ReasonPayload, Err: err}
	}
	return cmd, nil
}

// Parser scans a byte stream for live frames.
//
// Every byte is appended to a 256-byte accumulator. 0xFE restarts the
// accumulator and marks the next byte as the declared length. A decode is
// attempted on 0xFF once the accumulated count equals the declared length
// plus the frame overhead; the accumulator restarts afterwards whatever the
// outcome. Bytes received before the first 0xFE never trigger a decode.
type Parser struct {
	buf       [MaxParserBuffer]byte
	count     int
	declared  int
	startFlag bool
	framing   bool

	frames uint64
	errors uint64
}

// NewParser creates a new stream parser
func NewParser() *Parser {
	return &Parser{}
}

// Reset discards any partial frame
func (p *Parser) Reset() {
	p.count = 0
	p.declared = 0
	p.startFlag = false
	p.framing = false
}

// Feed processes one byte. It returns the decoded command when the byte
// completes a valid frame, a *DecodeError when a completed frame is
// rejected, and (nil, nil) otherwise.
func (p *Parser) Feed(b byte) (Command, error) {
	if p.startFlag {
		p.declared = int(b)
		p.startFlag = false
	}
	if b == StartByte {
		p.count = 0
		p.startFlag = true
		p.framing = true
	}

	p.buf[p.count] = b
	p.count++
	if p.count == MaxParserBuffer {
		p.count = 0
	}

	if b != EndByte || !p.framing || p.count <= 2 || p.count != p.declared+FrameOverhead {
		return nil, nil
	}

	frame := p.buf[:p.count]
	p.count = 0
	p.framing = false

	cmd, err := DecodeLive(frame)
	if err != nil {
		p.errors++
		return nil, err
	}
	p.frames++
	return cmd, nil
}

// FeedAll feeds a slice and returns every command decoded from it.
// Rejected frames are counted but otherwise dropped.
func (p *Parser) FeedAll(data []byte) []Command {
	var cmds []Command
	for _, b := range data {
		if cmd, _ := p.Feed(b); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// Frames returns the number of frames decoded successfully
func (p *Parser) Frames() uint64 {
	return p.frames
}

// Errors returns the number of completed frames that failed to decode
func (p *Parser) Errors() uint64 {
	return p.errors
}
