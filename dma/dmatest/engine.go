// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package dmatest models a DMA engine in software so ring drivers can be
// exercised without hardware.
package dmatest

import (
	"sync"

	"github.com/platinasystems/ethdev/dma"
)

// SimEngine plays the hardware side of one ring.  Attach it as a transmit
// engine and Poll consumes hardware-owned descriptors into Sent; attach it
// as a receive engine and Deliver completes frames into hardware-owned
// descriptors the way a MAC would.
type SimEngine struct {
	mu   sync.Mutex
	ring *dma.Ring
	head int

	// ManualTx leaves hardware-owned transmit descriptors in place
	// until CompleteTx is called, so tests can observe the busy state.
	ManualTx bool

	// Sent collects the frames consumed from a transmit ring, in order.
	Sent [][]byte

	// Polls counts poll-demand writes.
	Polls int

	// AttachCount counts base-register programming, one per Reset.
	AttachCount int
}

func (e *SimEngine) AttachRing(r *dma.Ring) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ring = r
	e.head = 0
	e.AttachCount++
}

func (e *SimEngine) Poll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Polls++
	if !e.ManualTx {
		e.consume()
	}
}

// consume takes every hardware-owned descriptor from the engine cursor
// forward, copying frames out and releasing them.  Caller holds mu.
func (e *SimEngine) consume() {
	if e.ring == nil {
		return
	}
	for i := 0; i < e.ring.Len(); i++ {
		d := e.ring.Descriptor(e.head)
		if !d.HwOwned() {
			return
		}
		frame := make([]byte, d.Len())
		copy(frame, d.Buffer())
		e.Sent = append(e.Sent, frame)
		d.Release()
		e.head = e.ring.NextIndex(e.head)
	}
}

// CompleteTx releases up to n pending transmit descriptors.  Only
// meaningful with ManualTx set.
func (e *SimEngine) CompleteTx(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ; n > 0; n-- {
		d := e.ring.Descriptor(e.head)
		if !d.HwOwned() {
			return
		}
		frame := make([]byte, d.Len())
		copy(frame, d.Buffer())
		e.Sent = append(e.Sent, frame)
		d.Release()
		e.head = e.ring.NextIndex(e.head)
	}
}

// Pending counts transmit descriptors the engine still owns.
func (e *SimEngine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	i := e.head
	for k := 0; k < e.ring.Len(); k++ {
		if !e.ring.Descriptor(i).HwOwned() {
			break
		}
		n++
		i = e.ring.NextIndex(i)
	}
	return n
}

// Deliver completes the next hardware-owned receive descriptor with frame,
// as if the MAC had received it.  Returns false when the ring has no
// descriptor to give, the receive analogue of an overrun.
func (e *SimEngine) Deliver(frame []byte) bool {
	return e.deliver(frame, dma.First|dma.Last)
}

// DeliverErr completes a descriptor with the error summary bit set.
func (e *SimEngine) DeliverErr(frame []byte) bool {
	return e.deliver(frame, dma.First|dma.Last|dma.ErrSummary)
}

// DeliverFlags completes a descriptor with exactly the given flags, for
// malformed-descriptor cases like a missing Last bit.
func (e *SimEngine) DeliverFlags(frame []byte, flags uint32) bool {
	return e.deliver(frame, flags)
}

func (e *SimEngine) deliver(frame []byte, flags uint32) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ring == nil {
		return false
	}
	d := e.ring.Descriptor(e.head)
	if !d.HwOwned() {
		return false
	}
	n := copy(d.Buffer(), frame)
	d.Complete(n, flags)
	e.head = e.ring.NextIndex(e.head)
	return true
}

// DeliverOversize completes a descriptor whose recorded length exceeds the
// buffer, the way a babbling sender corrupts the length field.
func (e *SimEngine) DeliverOversize(recorded int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ring == nil {
		return false
	}
	d := e.ring.Descriptor(e.head)
	if !d.HwOwned() {
		return false
	}
	d.Complete(recorded, dma.First|dma.Last)
	e.head = e.ring.NextIndex(e.head)
	return true
}
