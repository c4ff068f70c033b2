// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package dma implements the descriptor ring and packet pump shared by the
// Ethernet MAC drivers: a fixed circular array of buffer descriptors whose
// ownership is handed back and forth with a DMA engine, drained and filled
// one descriptor per call.
package dma

import "sync/atomic"

// Descriptor status word layout.  Flags live in the top bits, the frame
// byte count in the low 16.  Exactly one side owns a descriptor at any
// time: hardware while OwnHW is set, software otherwise.
const (
	// OwnHW transfers the descriptor and its buffer to the DMA engine.
	OwnHW uint32 = 1 << 31

	// First and Last frame the segments of one packet.  The common path
	// is one buffer per frame, so both are set together.
	First uint32 = 1 << 30
	Last  uint32 = 1 << 29

	// Wrap marks the final descriptor of a non-chained ring; the engine
	// returns to descriptor 0 after it.
	Wrap uint32 = 1 << 28

	// ErrSummary is set by the engine on a receive error.
	ErrSummary uint32 = 1 << 27

	lenMask uint32 = 0xffff
)

// Descriptor is one buffer slot.  The status word is accessed atomically
// on both sides so flags are never read apart from the length and
// ownership they guard.
type Descriptor struct {
	status uint32
	buf    []byte
	next   int32
}

func (d *Descriptor) loadStatus() uint32   { return atomic.LoadUint32(&d.status) }
func (d *Descriptor) storeStatus(v uint32) { atomic.StoreUint32(&d.status, v) }

// HwOwned reports whether the DMA engine currently owns the descriptor.
func (d *Descriptor) HwOwned() bool { return d.loadStatus()&OwnHW != 0 }

// Buffer exposes the bound buffer to the engine side.  Software must not
// touch it while the descriptor is hardware-owned.
func (d *Descriptor) Buffer() []byte { return d.buf }

// Len returns the byte count recorded in the status word.
func (d *Descriptor) Len() int { return int(d.loadStatus() & lenMask) }

// Complete is the engine side of a finished receive: the frame bytes are
// already in the buffer, n and flags describe them, and ownership returns
// to software in the same atomic store.
func (d *Descriptor) Complete(n int, flags uint32) {
	keep := d.loadStatus() & Wrap
	d.storeStatus(keep | flags | uint32(n)&lenMask)
}

// Release is the engine side of a finished transmit: ownership returns to
// software with the descriptor emptied.
func (d *Descriptor) Release() {
	d.storeStatus(d.loadStatus() & Wrap)
}
