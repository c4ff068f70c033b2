// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ksz

import (
	"encoding/binary"

	"github.com/platinasystems/ethdev/ethernet"
)

// simConn models the switch register file and its two indirect table
// engines closely enough to exercise every driver path without a chip.
type simConn struct {
	mem map[uint16]byte

	static [StaticTableSize][4]uint32

	dyn       []simDynEntry
	cursor    int
	searching bool

	// searchRestarts counts how many times the ALU search was primed.
	searchRestarts int
	// searchStops counts explicit engine releases (ctrl written zero).
	searchStops int
}

type simDynEntry struct {
	addr ethernet.Addr
	port uint8
}

func newSimConn() *simConn {
	c := &simConn{mem: make(map[uint16]byte)}
	c.mem[regChipID1] = chipID1Default
	return c
}

func (c *simConn) get32(addr uint16) uint32 {
	var b [4]byte
	for i := range b {
		b[i] = c.mem[addr+uint16(i)]
	}
	return binary.BigEndian.Uint32(b[:])
}

func (c *simConn) put32(addr uint16, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	for i := range b {
		c.mem[addr+uint16(i)] = b[i]
	}
}

func (c *simConn) Read(addr uint16, p []byte) error {
	if addr == regAluTableCtrl && len(p) == 4 {
		binary.BigEndian.PutUint32(p, c.aluStatus())
		return nil
	}
	for i := range p {
		p[i] = c.mem[addr+uint16(i)]
	}
	return nil
}

func (c *simConn) Write(addr uint16, p []byte) error {
	for i := range p {
		c.mem[addr+uint16(i)] = p[i]
	}
	switch {
	case addr == regStaticMcastTableCtrl && len(p) == 4:
		c.staticOp(binary.BigEndian.Uint32(p))
	case addr == regAluTableCtrl && len(p) == 4:
		c.aluOp(binary.BigEndian.Uint32(p))
	case addr == regSwitchLueCtrl1 && len(p) == 1:
		c.flushOp(p[0])
	}
	return nil
}

// staticOp executes one static table access and clears the start bit.
func (c *simConn) staticOp(v uint32) {
	if v&staticCtrlStartFinish == 0 {
		return
	}
	index := int(v & staticCtrlTableIndex >> staticCtrlIndexShift)
	if index < StaticTableSize {
		if v&staticCtrlActionRead != 0 {
			c.put32(regStaticTableEntry1, c.static[index][0])
			c.put32(regStaticTableEntry2, c.static[index][1])
			c.put32(regStaticTableEntry3, c.static[index][2])
			c.put32(regStaticTableEntry4, c.static[index][3])
		} else {
			c.static[index][0] = c.get32(regStaticTableEntry1)
			c.static[index][1] = c.get32(regStaticTableEntry2)
			c.static[index][2] = c.get32(regStaticTableEntry3)
			c.static[index][3] = c.get32(regStaticTableEntry4)
		}
	}
	c.put32(regStaticMcastTableCtrl, v&^staticCtrlStartFinish)
}

func (c *simConn) aluOp(v uint32) {
	if v == 0 {
		if c.searching {
			c.searchStops++
		}
		c.searching = false
		return
	}
	if v&aluCtrlStartFinish != 0 && v&aluCtrlActionMask == aluCtrlActionSearch {
		c.searching = true
		c.cursor = 0
		c.searchRestarts++
	}
}

// aluStatus yields the next entry, or the search-end indication.
func (c *simConn) aluStatus() uint32 {
	if !c.searching {
		return 0
	}
	if c.cursor >= len(c.dyn) {
		return aluCtrlValidOrSearchEnd
	}
	e := c.dyn[c.cursor]
	c.cursor++
	msb := uint32(e.addr[0])<<8 | uint32(e.addr[1])
	lsb := uint32(e.addr[2])<<24 | uint32(e.addr[3])<<16 |
		uint32(e.addr[4])<<8 | uint32(e.addr[5])
	c.put32(regAluTableEntry1, 0)
	c.put32(regAluTableEntry2, 1<<(e.port-1))
	c.put32(regAluTableEntry3, msb)
	c.put32(regAluTableEntry4, lsb)
	return aluCtrlStartFinish | aluCtrlActionSearch |
		aluCtrlValidOrSearchEnd | aluCtrlValid
}

// flushOp models the two flush triggers of lookup engine control 1.
func (c *simConn) flushOp(v uint8) {
	if v&lueCtrl1FlushAluTable != 0 {
		c.dyn = nil
	}
	if v&lueCtrl1FlushMstpEntries != 0 {
		kept := c.dyn[:0]
		for _, e := range c.dyn {
			state := c.mem[portReg(e.port, portMstpState)]
			if state&mstpLearningDis == 0 {
				kept = append(kept, e)
			}
		}
		c.dyn = kept
	}
	c.mem[regSwitchLueCtrl1] = 0
}

func (c *simConn) learn(addr ethernet.Addr, port uint8) {
	c.dyn = append(c.dyn, simDynEntry{addr, port})
}

func (c *simConn) phy16(port, reg uint8) uint16 {
	a := phyReg(port, reg)
	return uint16(c.mem[a])<<8 | uint16(c.mem[a+1])
}

func (c *simConn) setPhy16(port, reg uint8, v uint16) {
	a := phyReg(port, reg)
	c.mem[a] = uint8(v >> 8)
	c.mem[a+1] = uint8(v)
}
