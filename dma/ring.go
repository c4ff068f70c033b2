// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package dma

import (
	"fmt"

	"github.com/rcrowley/go-metrics"
)

// Engine is the hardware side of a ring.  AttachRing corresponds to
// programming the ring base address registers at initialization, Poll to
// the poll-demand register write that tells the engine to rescan the ring
// after software changed descriptor ownership.
type Engine interface {
	AttachRing(r *Ring)
	Poll()
}

// Config sizes one ring.  Both counts are fixed for the life of the
// interface; a ring is never resized at runtime.
type Config struct {
	// Ring is the descriptor count, at least 1.
	Ring int

	// BufferBytes is the fixed buffer size bound to every descriptor.
	BufferBytes int

	// Chained selects explicit next-descriptor links (EMAC style)
	// instead of the wrap flag on the last descriptor (ENET style).
	Chained bool

	// Name prefixes the ring's metrics registry entries.
	Name string

	// OnReady, transmit rings only: raised whenever the driver knows
	// the next descriptor can accept another frame, so the upper layer
	// need not poll.
	OnReady func()
}

func (c *Config) validate() error {
	if c.Ring < 1 {
		return fmt.Errorf("dma: ring size %d, need at least 1", c.Ring)
	}
	if c.BufferBytes < 1 {
		return fmt.Errorf("dma: buffer size %d, need at least 1", c.BufferBytes)
	}
	if c.Name == "" {
		c.Name = "dma"
	}
	return nil
}

// Ring is the descriptor array plus the software cursor.  Descriptors are
// consumed strictly in ring order by both sides.
type Ring struct {
	desc     []Descriptor
	cur      int
	chained  bool
	bufBytes int
	engine   Engine
}

func newRing(e Engine, c Config) Ring {
	r := Ring{
		desc:     make([]Descriptor, c.Ring),
		chained:  c.Chained,
		bufBytes: c.BufferBytes,
		engine:   e,
	}
	for i := range r.desc {
		r.desc[i].buf = make([]byte, c.BufferBytes)
	}
	return r
}

// chain writes the descriptor linkage: explicit next pointers with the
// last chained back to 0, or the wrap flag on the last descriptor.
func (r *Ring) chain(initStatus uint32) {
	n := len(r.desc)
	for i := range r.desc {
		st := initStatus
		if !r.chained && i == n-1 {
			st |= Wrap
		}
		r.desc[i].storeStatus(st)
		r.desc[i].next = int32((i + 1) % n)
	}
	r.cur = 0
}

func (r *Ring) advance() {
	if r.chained {
		r.cur = int(r.desc[r.cur].next)
		return
	}
	if r.desc[r.cur].loadStatus()&Wrap != 0 {
		r.cur = 0
	} else {
		r.cur++
	}
}

// Len returns the descriptor count.
func (r *Ring) Len() int { return len(r.desc) }

// Cursor returns the software position, for the interrupt-time ownership
// checks the event handlers do.
func (r *Ring) Cursor() int { return r.cur }

// Descriptor gives the engine side access to slot i.
func (r *Ring) Descriptor(i int) *Descriptor { return &r.desc[i] }

// NextIndex returns the ring successor of slot i.
func (r *Ring) NextIndex(i int) int {
	if r.chained {
		return int(r.desc[i].next)
	}
	if r.desc[i].loadStatus()&Wrap != 0 {
		return 0
	}
	return i + 1
}

type ringCounters struct {
	packets metrics.Counter
	bytes   metrics.Counter
	errors  metrics.Counter
}

func newRingCounters(name, dir string) ringCounters {
	return ringCounters{
		packets: metrics.GetOrRegisterCounter(name+"."+dir+".packets", nil),
		bytes:   metrics.GetOrRegisterCounter(name+"."+dir+".bytes", nil),
		errors:  metrics.GetOrRegisterCounter(name+"."+dir+".errors", nil),
	}
}
