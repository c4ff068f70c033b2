// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package dma

import "github.com/platinasystems/ethdev"

// TxRing is the transmit half of the packet pump.  Descriptors start
// software-owned and empty; Send hands them to the engine one frame at a
// time.
type TxRing struct {
	Ring
	onReady func()
	ctr     ringCounters
}

func NewTxRing(e Engine, c Config) (*TxRing, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	t := &TxRing{
		Ring:    newRing(e, c),
		onReady: c.OnReady,
		ctr:     newRingCounters(c.Name, "tx"),
	}
	t.Reset()
	return t, nil
}

// Reset re-chains the ring with every descriptor software-owned and
// programs the engine's base registers.  Called at initialization and
// after a bus-error recovery.
func (t *TxRing) Reset() {
	t.chain(0)
	t.engine.AttachRing(&t.Ring)
}

func (t *TxRing) ready() {
	if t.onReady != nil {
		t.onReady()
	}
}

// ReadyForMore reports whether the next Send can proceed.  Event handlers
// use it after a transmit-complete interrupt to decide whether to wake the
// upper layer.
func (t *TxRing) ReadyForMore() bool {
	return !t.desc[t.cur].HwOwned()
}

// Send copies one frame into the current descriptor's buffer and hands it
// to the engine.  A frame larger than the descriptor buffer fails with
// ErrInvalidLength, and the ready event is re-asserted unconditionally so
// the transmit path cannot stall on a caller that keeps the errored frame
// queued.  A still-hardware-owned descriptor fails with ErrBusy; the
// caller retries after the ready event.
func (t *TxRing) Send(frame []byte) error {
	if len(frame) > t.bufBytes {
		t.ready()
		return ethdev.ErrInvalidLength
	}
	d := &t.desc[t.cur]
	if d.HwOwned() {
		return ethdev.ErrBusy
	}

	copy(d.buf, frame)

	st := OwnHW | First | Last | uint32(len(frame))&lenMask
	if !t.chained && t.cur == len(t.desc)-1 {
		st |= Wrap
	}
	d.storeStatus(st)
	t.engine.Poll()

	t.ctr.packets.Inc(1)
	t.ctr.bytes.Inc(int64(len(frame)))

	t.advance()
	if !t.desc[t.cur].HwOwned() {
		t.ready()
	}
	return nil
}
