// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package hw

import "sync"

// SimRegs is a register file backed by a map, for tests and simulated DMA
// engines.  OnWrite and OnRead hooks let a test model hardware side
// effects (self-clearing bits, status updates) without a real device.
type SimRegs struct {
	mu   sync.Mutex
	regs map[uint32]uint32

	// OnWrite, if set, runs after the store with the lock released.
	OnWrite func(off, v uint32)

	// OnRead, if set, maps the stored value to the value returned.
	OnRead func(off, v uint32) uint32
}

func NewSimRegs() *SimRegs {
	return &SimRegs{regs: make(map[uint32]uint32)}
}

func (s *SimRegs) Read32(off uint32) uint32 {
	s.mu.Lock()
	v := s.regs[off]
	s.mu.Unlock()
	if s.OnRead != nil {
		v = s.OnRead(off, v)
	}
	return v
}

func (s *SimRegs) Write32(off uint32, v uint32) {
	s.mu.Lock()
	s.regs[off] = v
	s.mu.Unlock()
	if s.OnWrite != nil {
		s.OnWrite(off, v)
	}
}

// Peek reads without triggering OnRead; Poke writes without OnWrite.
func (s *SimRegs) Peek(off uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[off]
}

func (s *SimRegs) Poke(off, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[off] = v
}
