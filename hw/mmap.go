// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

//go:build linux

package hw

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mem maps a physical register window (typically from /dev/mem) and
// implements Regs over it.  Accesses use atomic loads and stores so the
// compiler cannot tear or elide them.
type Mem struct {
	b    []byte
	base uintptr
}

// MapMem maps size bytes of the device at physical address base.  base and
// size must be page aligned.
func MapMem(path string, base uintptr, size int) (*Mem, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("hw: open %s: %w", path, err)
	}
	defer unix.Close(fd)

	b, err := unix.Mmap(fd, int64(base), size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("hw: mmap %s @%#x: %w", path, base, err)
	}
	return &Mem{b: b, base: base}, nil
}

func (m *Mem) Close() error { return unix.Munmap(m.b) }

func (m *Mem) reg(off uint32) *uint32 {
	if int(off)+4 > len(m.b) || off&3 != 0 {
		panic(fmt.Sprintf("hw: bad register offset %#x", off))
	}
	return (*uint32)(unsafe.Pointer(&m.b[off]))
}

func (m *Mem) Read32(off uint32) uint32 {
	return atomic.LoadUint32(m.reg(off))
}

func (m *Mem) Write32(off uint32, v uint32) {
	atomic.StoreUint32(m.reg(off), v)
}
