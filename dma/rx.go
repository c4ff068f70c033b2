// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package dma

import "github.com/platinasystems/ethdev"

// RxRing is the receive half of the packet pump.  Descriptors start
// hardware-owned, ready to receive; ReceiveOne drains one completed
// descriptor per call.
type RxRing struct {
	Ring
	deliver func([]byte)
	ctr     ringCounters
}

// NewRxRing builds a receive ring that hands complete frames to deliver.
// The byte slice passed to deliver aliases the descriptor buffer and is
// only valid for the duration of the call.
func NewRxRing(e Engine, c Config, deliver func([]byte)) (*RxRing, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	r := &RxRing{
		Ring:    newRing(e, c),
		deliver: deliver,
		ctr:     newRingCounters(c.Name, "rx"),
	}
	r.Reset()
	return r, nil
}

// Reset re-arms every descriptor as hardware-owned, re-chains the ring and
// programs the engine's base registers.
func (r *RxRing) Reset() {
	r.chain(OwnHW)
	r.engine.AttachRing(&r.Ring)
}

// ReceiveOne drains the current descriptor.  A hardware-owned descriptor
// means nothing more to read: ErrBufferEmpty with the cursor untouched,
// the normal terminal condition of a drain loop.  Otherwise the
// descriptor is validated, its frame delivered, and it is re-armed and
// the cursor advanced no matter what, so a single corrupt frame can never
// stall the ring.  The reported length is clamped to the buffer's
// capacity before the frame is handed on; hardware length fields are not
// trusted.
func (r *RxRing) ReceiveOne() error {
	d := &r.desc[r.cur]
	st := d.loadStatus()
	if st&OwnHW != 0 {
		return ethdev.ErrBufferEmpty
	}

	var err error
	switch {
	case st&First == 0 || st&Last == 0:
		// Frame split across descriptors, unsupported here.
		err = ethdev.ErrInvalidPacket
	case st&ErrSummary != 0:
		err = ethdev.ErrInvalidPacket
	default:
		n := int(st & lenMask)
		if n > r.bufBytes {
			n = r.bufBytes
		}
		if r.deliver != nil {
			r.deliver(d.buf[:n])
		}
		r.ctr.packets.Inc(1)
		r.ctr.bytes.Inc(int64(n))
	}
	if err != nil {
		r.ctr.errors.Inc(1)
	}

	rearm := OwnHW
	if !r.chained && r.cur == len(r.desc)-1 {
		rearm |= Wrap
	}
	d.storeStatus(rearm)
	r.advance()
	r.engine.Poll()
	return err
}

// Drain calls ReceiveOne until the ring reports empty, returning the
// number of frames delivered.
func (r *RxRing) Drain() (n int) {
	for {
		err := r.ReceiveOne()
		if err == nil {
			n++
			continue
		}
		if err == ethdev.ErrBufferEmpty {
			return
		}
		// Invalid frames are already reclaimed; keep draining.
	}
}
