// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package enet

// Register offsets from the module base.
const (
	regEir  = 0x004 // interrupt events, write 1 to clear
	regEimr = 0x008 // interrupt mask
	regRdar = 0x010 // receive descriptor active
	regTdar = 0x014 // transmit descriptor active
	regEcr  = 0x024 // module control
	regMmfr = 0x040 // MII management frame
	regMscr = 0x044 // MII speed control
	regMibc = 0x064 // MIB counter control
	regRcr  = 0x084 // receive control
	regTcr  = 0x0c4 // transmit control
	regPalr = 0x0e4 // station address lower
	regPaur = 0x0e8 // station address upper + type
	regOpd  = 0x0ec // opcode and pause duration
	regIaur = 0x118 // individual hash upper
	regIalr = 0x11c // individual hash lower
	regGaur = 0x120 // group hash upper
	regGalr = 0x124 // group hash lower
	regTfwr = 0x144 // transmit FIFO watermark
	regRdsr = 0x180 // receive ring base
	regTdsr = 0x184 // transmit ring base
	regMrbr = 0x188 // maximum receive buffer size
)

// Interrupt event bits, shared by EIR and EIMR.
const (
	eirBabr  = 1 << 30 // babbling receive
	eirBabt  = 1 << 29 // babbling transmit
	eirGra   = 1 << 28 // graceful stop complete
	eirTxf   = 1 << 27 // transmit frame done
	eirTxb   = 1 << 26 // transmit buffer done
	eirRxf   = 1 << 25 // receive frame done
	eirRxb   = 1 << 24 // receive buffer done
	eirMii   = 1 << 23 // MII management frame done
	eirEberr = 1 << 22 // bus error, DMA stopped

	// irqMask is the set of causes routed to the event handler.  The
	// management frame bit stays masked; PHY access polls it directly.
	irqMask = eirTxf | eirRxf | eirEberr
)

// Module control bits.
const (
	ecrReset   = 1 << 0 // self-clearing soft reset
	ecrEtheren = 1 << 1
	ecrDbswp   = 1 << 8 // little-endian descriptors
)

// Receive control bits.
const (
	rcrLoop       = 1 << 0
	rcrDrt        = 1 << 1 // half duplex: no receive during transmit
	rcrMiiMode    = 1 << 2
	rcrProm       = 1 << 3
	rcrFce        = 1 << 5 // flow control enable
	rcrRmiiMode   = 1 << 8
	rcrRmii10T    = 1 << 9 // 10 Mbit mode
	rcrMaxFlShift = 16
)

// Transmit control bits.
const (
	tcrGts  = 1 << 0 // graceful transmit stop
	tcrFden = 1 << 2 // full duplex
)

// MII management frame fields.
const (
	mmfrStart   = 1 << 30
	mmfrOpMask  = 3 << 28
	mmfrOpWrite = 1 << 28
	mmfrOpRead  = 2 << 28
	mmfrPaShift = 23
	mmfrRaShift = 18
	mmfrTa      = 2 << 16
	mmfrAddr    = 0x1f
)

const (
	rdarActive = 1 << 24
	tdarActive = 1 << 24

	// paurType is the type field the MAC inserts in pause frames.
	paurType = 0x8808

	// mscrDefault divides the module clock down to a legal MDC.
	mscrDefault = 14 << 1

	maxFrameBytes = 1518
)
