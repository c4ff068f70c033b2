// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package lan87xx drives the SMSC/Microchip LAN87xx 10/100 PHY family
// over any mdio.SMI transport.
package lan87xx

import (
	"time"

	"github.com/jpillora/backoff"
	"github.com/sirupsen/logrus"

	"github.com/platinasystems/ethdev"
	"github.com/platinasystems/ethdev/mdio"
)

// Vendor registers beyond the clause 22 basic set.
const (
	RegISR   = 0x1d // interrupt source, cleared on read
	RegIMR   = 0x1e // interrupt mask
	RegPSCSR = 0x1f // special control/status
)

// Interrupt source/mask bits.
const (
	IntEnergyOn   = 1 << 7
	IntAnComplete = 1 << 6
	IntRemoteRx   = 1 << 5
	IntLinkDown   = 1 << 4
)

// PSCSR speed indication: the auto-negotiated HCD once the link is up.
const (
	PscsrAutodone   = 1 << 12
	PscsrHCDMask    = 0x001c
	PscsrHCD10Half  = 0x0004
	PscsrHCD100Half = 0x0008
	PscsrHCD10Full  = 0x0014
	PscsrHCD100Full = 0x0018
)

// ANAR advertisement: all four 10/100 modes, IEEE 802.3 selector.
const anarDefault = 0x01e1

// DefaultAddr is used when the configured address is out of the 5-bit
// range.
const DefaultAddr = 0

// Link is the resolved link state reported to the MAC and the stack.
type Link struct {
	Up     bool
	Speed  ethdev.LinkSpeed
	Duplex ethdev.DuplexMode
}

// Mac receives the negotiated parameters so it can reprogram its own
// speed and duplex settings on link up.
type Mac interface {
	UpdateMacConfig(speed ethdev.LinkSpeed, duplex ethdev.DuplexMode) error
}

// IrqLine is an external interrupt line wired to the PHY's nINT pin.
// Without one, Tick polls the link instead.
type IrqLine interface {
	Enable()
	Disable()
}

type Config struct {
	Smi  mdio.SMI
	Addr uint8

	// Mac, if set, is reconfigured on every link-up event.
	Mac Mac

	// Irq, if set, replaces link polling.
	Irq IrqLine

	// OnLinkChange runs from EventHandler after every state change.
	OnLinkChange func(Link)

	// InitHook runs at the end of Init for board-specific tuning
	// before the first link event.
	InitHook func(*Phy) error

	// ResetTimeout bounds the soft-reset completion poll.
	ResetTimeout time.Duration

	Logger logrus.FieldLogger
}

// Phy is one LAN87xx transceiver.  Event is set whenever EventHandler has
// work; the owning interface waits on it from task context.
type Phy struct {
	Event *ethdev.Event

	smi  mdio.SMI
	addr uint8
	cfg  Config
	l    logrus.FieldLogger
	link Link
}

const defaultResetTimeout = 500 * time.Millisecond

func New(c Config) *Phy {
	if c.Addr >= 32 {
		c.Addr = DefaultAddr
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = defaultResetTimeout
	}
	l := c.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Phy{
		Event: ethdev.NewEvent(),
		smi:   c.Smi,
		addr:  c.Addr,
		cfg:   c,
		l:     l.WithField("phy", c.Addr),
	}
}

func (p *Phy) ReadReg(reg uint8) (uint16, error)  { return p.smi.Read(p.addr, reg) }
func (p *Phy) WriteReg(reg uint8, v uint16) error { return p.smi.Write(p.addr, reg, v) }

// Init soft-resets the transceiver, restores the default advertisement,
// enables auto-negotiation and arms the link-change interrupt sources.
// The event flag is raised so the first EventHandler pass reports the
// initial link state.
func (p *Phy) Init() error {
	p.l.Info("initializing")

	if err := p.WriteReg(mdio.RegBMCR, mdio.BMCRReset); err != nil {
		return err
	}
	if err := p.waitResetDone(); err != nil {
		return err
	}

	if err := p.WriteReg(mdio.RegANAR, anarDefault); err != nil {
		return err
	}
	if err := p.WriteReg(mdio.RegBMCR, mdio.BMCRAnEnable); err != nil {
		return err
	}
	if err := p.WriteReg(RegIMR, IntAnComplete|IntLinkDown); err != nil {
		return err
	}

	if p.cfg.InitHook != nil {
		if err := p.cfg.InitHook(p); err != nil {
			return err
		}
	}

	p.Event.Set()
	return nil
}

// waitResetDone polls BMCR until the self-clearing reset bit drops.
func (p *Phy) waitResetDone() error {
	b := &backoff.Backoff{
		Min:    100 * time.Microsecond,
		Max:    10 * time.Millisecond,
		Factor: 2,
	}
	deadline := time.Now().Add(p.cfg.ResetTimeout)
	for {
		v, err := p.ReadReg(mdio.RegBMCR)
		if err != nil {
			return err
		}
		if v&mdio.BMCRReset == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ethdev.ErrTimeout
		}
		time.Sleep(b.Duration())
	}
}

// Tick polls the link when no interrupt line is wired, raising the event
// flag on any change so EventHandler resolves it in task context.
func (p *Phy) Tick() {
	if p.cfg.Irq != nil {
		return
	}
	v, err := p.ReadReg(mdio.RegBMSR)
	if err != nil {
		p.l.WithError(err).Warn("link poll failed")
		return
	}
	up := v&mdio.BMSRLinkStatus != 0
	if up != p.link.Up {
		p.Event.Set()
	}
}

func (p *Phy) EnableIrq() {
	if p.cfg.Irq != nil {
		p.cfg.Irq.Enable()
	}
}

func (p *Phy) DisableIrq() {
	if p.cfg.Irq != nil {
		p.cfg.Irq.Disable()
	}
}

// EventHandler acknowledges the interrupt and resolves the new link
// state.  BMSR latches link failures, so it is read twice to get the
// current status rather than the latched one.  On link up the negotiated
// HCD is read from PSCSR and pushed to the MAC before the stack is told.
func (p *Phy) EventHandler() error {
	isr, err := p.ReadReg(RegISR)
	if err != nil {
		return err
	}
	// Polled operation raises the event without an interrupt source.
	_ = isr

	if _, err := p.ReadReg(mdio.RegBMSR); err != nil {
		return err
	}
	v, err := p.ReadReg(mdio.RegBMSR)
	if err != nil {
		return err
	}

	var link Link
	if v&mdio.BMSRLinkStatus != 0 {
		pscsr, err := p.ReadReg(RegPSCSR)
		if err != nil {
			return err
		}
		link = Link{Up: true}
		switch pscsr & PscsrHCDMask {
		case PscsrHCD10Half:
			link.Speed, link.Duplex = ethdev.Speed10M, ethdev.HalfDuplex
		case PscsrHCD10Full:
			link.Speed, link.Duplex = ethdev.Speed10M, ethdev.FullDuplex
		case PscsrHCD100Half:
			link.Speed, link.Duplex = ethdev.Speed100M, ethdev.HalfDuplex
		case PscsrHCD100Full:
			link.Speed, link.Duplex = ethdev.Speed100M, ethdev.FullDuplex
		default:
			p.l.WithField("pscsr", pscsr).Warn("invalid operation mode")
			link.Speed, link.Duplex = ethdev.SpeedUnknown, ethdev.DuplexUnknown
		}
		if p.cfg.Mac != nil && link.Speed != ethdev.SpeedUnknown {
			if err := p.cfg.Mac.UpdateMacConfig(link.Speed, link.Duplex); err != nil {
				return err
			}
		}
	}

	changed := link != p.link
	p.link = link
	if changed {
		p.l.WithFields(logrus.Fields{
			"up":     link.Up,
			"speed":  link.Speed,
			"duplex": link.Duplex,
		}).Info("link change")
		if p.cfg.OnLinkChange != nil {
			p.cfg.OnLinkChange(link)
		}
	}
	return nil
}

// Link returns the last state resolved by EventHandler.
func (p *Phy) Link() Link { return p.link }
