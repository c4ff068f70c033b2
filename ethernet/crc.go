// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ethernet

// Both hash variants below are the degree-32 Ethernet polynomial
// 0x04C11DB7 seeded with all ones.  They differ in bit order and final
// inversion, matching the two MAC families supported here; the hash index
// is always the top 6 bits of the result.

const (
	crcPoly          = 0x04c11db7
	crcPolyReflected = 0xedb88320
)

// CrcLE computes the bit-reflected CRC-32 without output inversion, as the
// ENET-style MACs do before indexing their hash tables.
func CrcLE(data []byte) uint32 {
	crc := uint32(0xffffffff)
	for _, b := range data {
		crc ^= uint32(b)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ crcPolyReflected
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// CrcBE computes the MSB-first CRC-32 with output inversion, as the
// EMAC-style MACs do.
func CrcBE(data []byte) uint32 {
	crc := uint32(0xffffffff)
	for _, b := range data {
		for j := 0; j < 8; j++ {
			bit := (crc>>31 ^ uint32(b)>>j) & 1
			crc <<= 1
			if bit != 0 {
				crc ^= crcPoly
			}
		}
	}
	return ^crc
}

// HashIndex extracts the hash table position from a CRC result: the upper
// 6 bits index a 64-entry table split across two 32-bit words.
func HashIndex(crc uint32) uint {
	return uint(crc >> 26 & 0x3f)
}
