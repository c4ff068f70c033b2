// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ethdev

import "github.com/platinasystems/ethdev/ethernet"

// Nic is the capability table a MAC driver exposes to the upstream stack.
// Interrupt handlers stay short: they acknowledge status bits and set an
// Event; all descriptor work happens later in EventHandler, task context.
type Nic interface {
	Init() error

	// Tick runs periodic work, typically a link poll when no interrupt
	// line is wired.
	Tick()

	EnableIrq()
	DisableIrq()

	// EventHandler performs the deferred interrupt processing: drains
	// received frames until the ring is empty and recovers from bus
	// errors.
	EventHandler()

	// SendPacket queues one frame.  ErrInvalidLength if the frame
	// exceeds the transmit buffer size, ErrBusy if the next descriptor
	// is still hardware-owned; both leave the ring intact.
	SendPacket(frame []byte) error

	// UpdateMacAddrFilter reprograms the receive address filter from
	// the stack's current table.
	UpdateMacAddrFilter(entries []ethernet.FilterEntry) error

	// UpdateMacConfig propagates negotiated speed and duplex into the
	// MAC registers after a link change.
	UpdateMacConfig(speed LinkSpeed, duplex DuplexMode) error

	ReadPhyReg(port, addr uint8) (uint16, error)
	WritePhyReg(port, addr uint8, value uint16) error
}

// FdbEntry is one forwarding database record of a switch chip.
type FdbEntry struct {
	Addr ethernet.Addr

	// SrcPort is the learned source port of a dynamic entry; zero for
	// static entries.
	SrcPort uint8

	// DestPorts is the forward port bitmap of a static entry.
	DestPorts uint32

	// Override forwards even when the destination port is blocked.
	Override bool
}

// Switch extends the MAC capability set with the port and table operations
// of a multi-port switch chip.
type Switch interface {
	Init() error
	Tick()
	EnableIrq()
	DisableIrq()
	EventHandler()

	PortLinkState(port uint8) bool
	PortLinkSpeed(port uint8) LinkSpeed
	PortDuplexMode(port uint8) DuplexMode
	SetPortState(port uint8, state PortState) error
	GetPortState(port uint8) PortState

	AddStaticFdbEntry(e FdbEntry) error
	DeleteStaticFdbEntry(addr ethernet.Addr) error
	GetStaticFdbEntry(index int) (FdbEntry, error)
	FlushStaticFdbTable() error
	GetDynamicFdbEntry(index int) (FdbEntry, error)
	FlushDynamicFdbTable(port uint8) error

	SetAgingTime(seconds uint32) error
	EnableIgmpSnooping(enable bool) error
	EnableMldSnooping(enable bool) error
	SetUnknownMcastFwdPorts(enable bool, ports uint32) error

	// TagFrame appends the chip's tail tag addressed to the given port;
	// UntagFrame strips it and reports the source port.
	TagFrame(frame []byte, port uint8) ([]byte, error)
	UntagFrame(frame []byte) ([]byte, uint8, error)

	ReadPhyReg(port, addr uint8) (uint16, error)
	WritePhyReg(port, addr uint8, value uint16) error
}
