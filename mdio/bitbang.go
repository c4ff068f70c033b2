// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package mdio

import (
	"time"

	"github.com/platinasystems/gpio"
)

// Pin is one GPIO line.  github.com/platinasystems/gpio pins satisfy it
// directly.
type Pin interface {
	SetValue(v bool) error
	Value() (bool, error)
	SetDirection() error
}

// NewBitBang builds a bit-bang SMI over two kernel GPIO lines.  The pin
// values carry their direction flags; both are configured before the
// first frame.
func NewBitBang(mdc, mdio gpio.Pin, halfCycle time.Duration) (*BitBang, error) {
	if err := mdc.SetDirection(); err != nil {
		return nil, err
	}
	if err := mdio.SetDirection(); err != nil {
		return nil, err
	}
	return &BitBang{Mdc: mdc, Mdio: mdio, HalfCycle: halfCycle}, nil
}

// BitBang drives clause 22 frames over two GPIO lines.  The data line is
// wired open drain with a pull-up, so releasing it (writing 1) lets the
// PHY drive during read turnaround and data bits; no direction switching
// is needed.
type BitBang struct {
	Mdc  Pin
	Mdio Pin

	// HalfCycle is the delay between clock edges.  Zero means as fast
	// as the GPIO controller allows, which is still far below the 2.5
	// MHz clause 22 ceiling on sysfs-class GPIO.
	HalfCycle time.Duration
}

func (b *BitBang) delay() {
	if b.HalfCycle > 0 {
		time.Sleep(b.HalfCycle)
	}
}

// clockOut drives one bit and pulses the clock.  The PHY samples MDIO on
// the rising edge of MDC.
func (b *BitBang) clockOut(bit bool) error {
	if err := b.Mdio.SetValue(bit); err != nil {
		return err
	}
	b.delay()
	if err := b.Mdc.SetValue(true); err != nil {
		return err
	}
	b.delay()
	return b.Mdc.SetValue(false)
}

// clockIn pulses the clock and samples the line while MDC is high.
func (b *BitBang) clockIn() (bool, error) {
	b.delay()
	if err := b.Mdc.SetValue(true); err != nil {
		return false, err
	}
	b.delay()
	bit, err := b.Mdio.Value()
	if err != nil {
		return false, err
	}
	return bit, b.Mdc.SetValue(false)
}

func (b *BitBang) sendBits(v uint32, n int) error {
	for i := n - 1; i >= 0; i-- {
		if err := b.clockOut(v>>uint(i)&1 != 0); err != nil {
			return err
		}
	}
	return nil
}

// header sends preamble, start, opcode and the two addresses.
func (b *BitBang) header(op uint32, phy, reg uint8) error {
	// 32 preamble ones resynchronize PHYs that lost frame alignment.
	for i := 0; i < 32; i++ {
		if err := b.clockOut(true); err != nil {
			return err
		}
	}
	if err := b.sendBits(frameStart, 2); err != nil {
		return err
	}
	if err := b.sendBits(op, 2); err != nil {
		return err
	}
	if err := b.sendBits(uint32(phy&addrMask), 5); err != nil {
		return err
	}
	return b.sendBits(uint32(reg&addrMask), 5)
}

func (b *BitBang) Read(phy, reg uint8) (uint16, error) {
	if err := b.header(opRead, phy, reg); err != nil {
		return 0, err
	}
	// Turnaround: release the line for two cycles; the PHY drives the
	// second one low.
	if err := b.Mdio.SetValue(true); err != nil {
		return 0, err
	}
	for i := 0; i < 2; i++ {
		if _, err := b.clockIn(); err != nil {
			return 0, err
		}
	}
	var v uint16
	for i := 0; i < 16; i++ {
		bit, err := b.clockIn()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if bit {
			v |= 1
		}
	}
	// Idle: release the line.
	return v, b.Mdio.SetValue(true)
}

func (b *BitBang) Write(phy, reg uint8, v uint16) error {
	if err := b.header(opWrite, phy, reg); err != nil {
		return err
	}
	// Turnaround 10, then the 16 data bits.
	if err := b.sendBits(0x2, 2); err != nil {
		return err
	}
	if err := b.sendBits(uint32(v), 16); err != nil {
		return err
	}
	return b.Mdio.SetValue(true)
}
