// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package hw is the register-access boundary of the drivers.  The
// algorithmic components (descriptor rings, table engines, management
// interfaces) are written entirely against the Regs interface so they run
// unchanged over memory-mapped silicon or a simulated register file.
package hw

// Regs is a 32-bit register file addressed by byte offset.
type Regs interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

// SetBits sets mask bits in a read-modify-write cycle.
func SetBits(r Regs, off, mask uint32) {
	r.Write32(off, r.Read32(off)|mask)
}

// ClearBits clears mask bits in a read-modify-write cycle.
func ClearBits(r Regs, off, mask uint32) {
	r.Write32(off, r.Read32(off)&^mask)
}
