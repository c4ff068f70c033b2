// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package mdio

import (
	"time"

	"github.com/jpillora/backoff"

	"github.com/platinasystems/ethdev"
	"github.com/platinasystems/ethdev/hw"
)

// Layout describes a MAC's MDIO register pair.  The controller writes a
// command word to the address register and waits for the hardware to clear
// the busy bit; data moves through the data register.
type Layout struct {
	// AddrReg and DataReg are register offsets.
	AddrReg uint32
	DataReg uint32

	// Busy starts a transaction when set and reads back set until the
	// hardware finishes.
	Busy uint32

	// WriteOp selects a register write; reads leave it clear.
	WriteOp uint32

	// PhyShift and RegShift position the two 5-bit addresses in the
	// command word.
	PhyShift uint
	RegShift uint

	// Fixed carries constant command bits, typically the MDC clock
	// divider.
	Fixed uint32
}

// Controller drives a register-mapped MDIO block.  Transactions finish in
// a few microseconds at standard MDC rates, so completion is polled with a
// short backoff rather than an interrupt.
type Controller struct {
	regs    hw.Regs
	l       Layout
	timeout time.Duration
}

// DefaultTimeout bounds one MDIO transaction.  A clause 22 frame is 64 MDC
// cycles; even at a slow 300 kHz MDC that is well under a millisecond.
const DefaultTimeout = 10 * time.Millisecond

func NewController(regs hw.Regs, l Layout, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{regs: regs, l: l, timeout: timeout}
}

func (c *Controller) cmd(phy, reg uint8) uint32 {
	return c.l.Fixed |
		uint32(phy&addrMask)<<c.l.PhyShift |
		uint32(reg&addrMask)<<c.l.RegShift
}

// waitIdle polls the busy bit until the hardware clears it.
func (c *Controller) waitIdle() error {
	b := &backoff.Backoff{
		Min:    time.Microsecond,
		Max:    100 * time.Microsecond,
		Factor: 2,
	}
	deadline := time.Now().Add(c.timeout)
	for {
		if c.regs.Read32(c.l.AddrReg)&c.l.Busy == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ethdev.ErrTimeout
		}
		time.Sleep(b.Duration())
	}
}

func (c *Controller) Read(phy, reg uint8) (uint16, error) {
	if err := c.waitIdle(); err != nil {
		return 0, err
	}
	c.regs.Write32(c.l.AddrReg, c.cmd(phy, reg)|c.l.Busy)
	if err := c.waitIdle(); err != nil {
		return 0, err
	}
	return uint16(c.regs.Read32(c.l.DataReg)), nil
}

func (c *Controller) Write(phy, reg uint8, v uint16) error {
	if err := c.waitIdle(); err != nil {
		return err
	}
	c.regs.Write32(c.l.DataReg, uint32(v))
	c.regs.Write32(c.l.AddrReg, c.cmd(phy, reg)|c.l.WriteOp|c.l.Busy)
	return c.waitIdle()
}
