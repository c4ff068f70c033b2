// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ethernet

// FilterEntry is one address the upstream stack wants received.  The
// reference count is owned by the stack's filter table; entries with a zero
// count are ignored during a programming pass.
type FilterEntry struct {
	Addr     Addr
	RefCount uint
}

// FilterBank is the hardware surface the filter programmer writes to: a
// small set of perfect-match slots and a 64-bit hash table in two words.
// Slot 0 is reserved for the station address on chips that use it; the
// programmer only touches the slots it is given.
type FilterBank interface {
	// SetSlot programs one perfect-match slot.  enable=false must clear
	// the match data so no stale address stays active.
	SetSlot(slot int, addr Addr, enable bool)

	// SetHash programs the two 32-bit hash table words.
	SetHash(lo, hi uint32)
}

// CrcFunc selects the chip's CRC bit order (CrcLE or CrcBE).
type CrcFunc func([]byte) uint32

// FilterConfig describes one chip's filtering hardware.
type FilterConfig struct {
	// Slots is the number of perfect-match unicast slots available to
	// the programmer (3 on the EMAC family, 0 on hash-only chips).
	Slots int

	// Crc is the chip's hash function; HashIndex of its result selects
	// the hash table bit.
	Crc CrcFunc
}

// Program partitions the active filter entries and writes them to the
// bank: unicast addresses fill perfect-match slots first; multicast
// addresses always go to the hash table.  Unicast entries beyond the slot
// count are promoted to hash filtering, trading exactness for capacity;
// the hardware may then accept some unwanted frames, which the stack
// drops.  Unused slots are explicitly disabled.
func (c FilterConfig) Program(b FilterBank, entries []FilterEntry) {
	var lo, hi uint32
	slot := 0
	for _, e := range entries {
		if e.RefCount == 0 {
			continue
		}
		if !e.Addr.IsMulticast() && slot < c.Slots {
			b.SetSlot(slot, e.Addr, true)
			slot++
			continue
		}
		k := HashIndex(c.Crc(e.Addr[:]))
		if k < 32 {
			lo |= 1 << k
		} else {
			hi |= 1 << (k - 32)
		}
	}
	for ; slot < c.Slots; slot++ {
		b.SetSlot(slot, Zero, false)
	}
	b.SetHash(lo, hi)
}
