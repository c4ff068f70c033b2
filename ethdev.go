// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package ethdev holds the contracts shared by the Ethernet MAC, PHY and
// switch drivers in this repository: the error taxonomy, link and port
// types, the per-driver capability interfaces consumed by an upstream
// network stack, and the event primitive used to defer interrupt work into
// task context.
package ethdev

import "errors"

// Driver status codes.  Every operation reports its outcome to the
// immediate caller; there is no internal retry beyond the bounded register
// polls, and no panic on a data path.
var (
	// ErrBusy means the descriptor or table engine is still owned by
	// hardware.  Retry after the driver raises its ready event.
	ErrBusy = errors.New("ethdev: busy")

	// ErrBufferEmpty is the normal terminal condition of a receive drain
	// loop, not a failure.
	ErrBufferEmpty = errors.New("ethdev: buffer empty")

	ErrInvalidLength = errors.New("ethdev: invalid length")
	ErrInvalidPacket = errors.New("ethdev: invalid packet")
	ErrInvalidEntry  = errors.New("ethdev: invalid entry")
	ErrInvalidPort   = errors.New("ethdev: invalid port")

	ErrTableFull  = errors.New("ethdev: table full")
	ErrNotFound   = errors.New("ethdev: not found")
	ErrEndOfTable = errors.New("ethdev: end of table")

	// ErrTimeout reports a bounded register poll that expired before the
	// hardware responded.
	ErrTimeout = errors.New("ethdev: timeout")

	// ErrFailure reports unexpected hardware state, e.g. a descriptor
	// that should have been released but wasn't.
	ErrFailure = errors.New("ethdev: hardware failure")
)

type LinkSpeed uint32

const (
	SpeedUnknown LinkSpeed = 0
	Speed10M     LinkSpeed = 10_000_000
	Speed100M    LinkSpeed = 100_000_000
	Speed1G      LinkSpeed = 1_000_000_000
)

func (s LinkSpeed) String() string {
	switch s {
	case Speed10M:
		return "10M"
	case Speed100M:
		return "100M"
	case Speed1G:
		return "1G"
	}
	return "unknown"
}

type DuplexMode uint8

const (
	DuplexUnknown DuplexMode = iota
	HalfDuplex
	FullDuplex
)

func (d DuplexMode) String() string {
	switch d {
	case HalfDuplex:
		return "half"
	case FullDuplex:
		return "full"
	}
	return "unknown"
}

// PortState is the spanning-tree style state of one switch port.
type PortState uint8

const (
	PortDisabled PortState = iota
	PortListening
	PortLearning
	PortForwarding
	PortUnknown
)

func (s PortState) String() string {
	switch s {
	case PortDisabled:
		return "disabled"
	case PortListening:
		return "listening"
	case PortLearning:
		return "learning"
	case PortForwarding:
		return "forwarding"
	}
	return "unknown"
}
