// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package wire

// CalculateCRC computes the CRC-16/CCITT-FALSE checksum for the given data
func CalculateCRC(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// LiveChecksum returns the two checksum bytes of a live frame.
//
// The CRC is reduced modulo 511 and each big-endian byte is reduced again
// modulo 253. Both reductions weaken the check considerably but peers must
// agree bit for bit, so they stay. A side effect is that neither byte can
// collide with the escape or frame markers.
func LiveChecksum(payload []byte) (hi, lo byte) {
	crc := CalculateCRC(payload) % liveChecksumMod
	return byte(crc>>8) % liveChecksumByte, byte(crc) % liveChecksumByte
}

// LogChecksum returns the two checksum bytes of a log frame: the sum of the
// padded payload bytes modulo 256, big-endian.
func LogChecksum(padded []byte) (hi, lo byte) {
	var sum uint16
	for _, b := range padded {
		sum += uint16(b)
	}
	sum %= logChecksumModulo
	return byte(sum >> 8), byte(sum)
}
