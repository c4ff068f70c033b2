// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ksz

import (
	"errors"

	"github.com/platinasystems/ethdev"
	"github.com/platinasystems/ethdev/ethernet"
)

// Static MAC table.  The hardware exposes 16 entries through an indirect
// window: software loads the four entry registers, then kicks the control
// register and waits for the self-clearing start bit.

func packMacAddr(a ethernet.Addr) (msb, lsb uint32) {
	msb = uint32(a[0])<<8 | uint32(a[1])
	lsb = uint32(a[2])<<24 | uint32(a[3])<<16 | uint32(a[4])<<8 | uint32(a[5])
	return
}

func unpackMacAddr(msb, lsb uint32) (a ethernet.Addr) {
	a[0] = uint8(msb >> 8)
	a[1] = uint8(msb)
	a[2] = uint8(lsb >> 24)
	a[3] = uint8(lsb >> 16)
	a[4] = uint8(lsb >> 8)
	a[5] = uint8(lsb)
	return
}

// staticTableOp kicks one indirect static table operation and waits for
// completion.
func (s *Switch) staticTableOp(index int, read bool) error {
	v := uint32(index)<<staticCtrlIndexShift&staticCtrlTableIndex | staticCtrlStartFinish
	if read {
		v |= staticCtrlActionRead
	}
	if err := s.write32(regStaticMcastTableCtrl, v); err != nil {
		return err
	}
	return s.pollClear32(regStaticMcastTableCtrl, staticCtrlStartFinish)
}

// writeStaticEntry loads the entry registers and commits them to a slot.
// A zero entry1 clears the slot.
func (s *Switch) writeStaticEntry(index int, entry1, entry2, entry3, entry4 uint32) error {
	if err := s.write32(regStaticTableEntry1, entry1); err != nil {
		return err
	}
	if err := s.write32(regStaticTableEntry2, entry2); err != nil {
		return err
	}
	if err := s.write32(regStaticTableEntry3, entry3); err != nil {
		return err
	}
	if err := s.write32(regStaticTableEntry4, entry4); err != nil {
		return err
	}
	return s.staticTableOp(index, false)
}

// getStaticFdbEntry reads one slot with the lock already held.
func (s *Switch) getStaticFdbEntry(index int) (ethdev.FdbEntry, error) {
	var e ethdev.FdbEntry
	if index < 0 || index >= StaticTableSize {
		return e, ethdev.ErrEndOfTable
	}
	if err := s.staticTableOp(index, true); err != nil {
		return e, err
	}
	v1, err := s.read32(regStaticTableEntry1)
	if err != nil {
		return e, err
	}
	if v1&staticEntry1Valid == 0 {
		return e, ethdev.ErrInvalidEntry
	}
	v2, err := s.read32(regStaticTableEntry2)
	if err != nil {
		return e, err
	}
	e.DestPorts = v2 & staticEntry2PortForward
	e.Override = v2&staticEntry2Override != 0
	v3, err := s.read32(regStaticTableEntry3)
	if err != nil {
		return e, err
	}
	v4, err := s.read32(regStaticTableEntry4)
	if err != nil {
		return e, err
	}
	e.Addr = unpackMacAddr(v3, v4)
	return e, nil
}

// GetStaticFdbEntry reads the static table slot at index.
// ErrInvalidEntry marks an empty slot, ErrEndOfTable the end of the
// 16-entry table; a dump loop skips the former and stops on the latter.
func (s *Switch) GetStaticFdbEntry(index int) (ethdev.FdbEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getStaticFdbEntry(index)
}

// AddStaticFdbEntry installs a forwarding entry, reusing the slot of an
// existing entry with the same address or the first free one.
func (s *Switch) AddStaticFdbEntry(e ethdev.FdbEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := StaticTableSize
	for i := 0; i < StaticTableSize; i++ {
		cur, err := s.getStaticFdbEntry(i)
		if err == nil {
			if cur.Addr == e.Addr {
				slot = i
				break
			}
			continue
		}
		if errors.Is(err, ethdev.ErrInvalidEntry) {
			if slot == StaticTableSize {
				slot = i
			}
			continue
		}
		return err
	}
	if slot == StaticTableSize {
		return ethdev.ErrTableFull
	}

	ports := e.DestPorts
	if ports == CpuPortMask {
		ports = HostPortMask
	} else {
		ports &= PortMask
	}
	entry2 := ports
	if e.Override {
		entry2 |= staticEntry2Override
	}
	msb, lsb := packMacAddr(e.Addr)
	return s.writeStaticEntry(slot, staticEntry1Valid, entry2, msb, lsb)
}

// DeleteStaticFdbEntry clears the slot holding addr.
func (s *Switch) DeleteStaticFdbEntry(addr ethernet.Addr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < StaticTableSize; i++ {
		cur, err := s.getStaticFdbEntry(i)
		if err != nil {
			if errors.Is(err, ethdev.ErrInvalidEntry) {
				continue
			}
			return err
		}
		if cur.Addr == addr {
			return s.writeStaticEntry(i, 0, 0, 0, 0)
		}
	}
	return ethdev.ErrNotFound
}

// FlushStaticFdbTable clears every slot.
func (s *Switch) FlushStaticFdbTable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < StaticTableSize; i++ {
		if err := s.writeStaticEntry(i, 0, 0, 0, 0); err != nil {
			return err
		}
	}
	return nil
}

// Dynamic (learned) table.  The hardware walks its ALU internally: a
// search command primes the engine and each poll of the control register
// yields either the next valid entry or the end of the search.

// GetDynamicFdbEntry returns the learned entry at the given walk
// position.  Index 0 restarts the hardware search; successive indices
// must be requested in order, and the walk owns the search engine until
// ErrEndOfTable stops it.
func (s *Switch) GetDynamicFdbEntry(index int) (ethdev.FdbEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var e ethdev.FdbEntry
	if index == 0 {
		// Stop any stale search before priming a new one.
		if err := s.write32(regAluTableCtrl, 0); err != nil {
			return e, err
		}
		if err := s.write32(regAluTableCtrl,
			aluCtrlStartFinish|aluCtrlActionSearch); err != nil {
			return e, err
		}
		s.searching = true
	} else if !s.searching {
		return e, ethdev.ErrEndOfTable
	}

	v, err := s.pollSet32(regAluTableCtrl, aluCtrlValidOrSearchEnd)
	if err != nil {
		return e, err
	}
	if v&aluCtrlValid == 0 {
		// Search complete: release the engine.
		s.searching = false
		if err := s.write32(regAluTableCtrl, 0); err != nil {
			return e, err
		}
		return e, ethdev.ErrEndOfTable
	}

	if _, err := s.read32(regAluTableEntry1); err != nil {
		return e, err
	}
	v2, err := s.read32(regAluTableEntry2)
	if err != nil {
		return e, err
	}
	// The learned port comes back as a one-hot forward map.
	fwd := v2 & aluEntry2PortForward
	for port := uint8(Port1); port <= Port7; port++ {
		if fwd == 1<<(port-1) {
			e.SrcPort = port
			break
		}
	}
	v3, err := s.read32(regAluTableEntry3)
	if err != nil {
		return e, err
	}
	v4, err := s.read32(regAluTableEntry4)
	if err != nil {
		return e, err
	}
	e.Addr = unpackMacAddr(v3, v4)
	return e, nil
}

// FlushDynamicFdbTable removes learned entries.  A valid port number
// flushes that port's entries by briefly disabling its learning; any
// other value flushes the whole table.
func (s *Switch) FlushDynamicFdbTable(port uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.setBits8(regSwitchLueCtrl2, lueCtrl2FlushOptDyn, lueCtrl2FlushOptMask); err != nil {
		return err
	}

	if port >= Port1 && port <= Port7 {
		addr := portReg(port, portMstpState)
		state, err := s.read8(addr)
		if err != nil {
			return err
		}
		if err := s.write8(addr, state|mstpLearningDis); err != nil {
			return err
		}
		if err := s.setBits8(regSwitchLueCtrl1, lueCtrl1FlushMstpEntries, 0); err != nil {
			return err
		}
		return s.write8(addr, state)
	}
	return s.setBits8(regSwitchLueCtrl1, lueCtrl1FlushAluTable, 0)
}
