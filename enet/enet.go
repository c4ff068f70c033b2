// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package enet drives the wrap-flag descriptor ring MAC found in i.MX
// parts: one receive and one transmit ring, hash-based address filtering
// and an MDIO master behind the management frame register.
package enet

import (
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"

	"github.com/platinasystems/ethdev"
	"github.com/platinasystems/ethdev/dma"
	"github.com/platinasystems/ethdev/ethernet"
	"github.com/platinasystems/ethdev/hw"
)

var _ ethdev.Nic = (*Nic)(nil)

type Config struct {
	Regs hw.Regs

	// RxEngine and TxEngine are the DMA sides of the two rings.
	RxEngine dma.Engine
	TxEngine dma.Engine

	// RxRing and TxRing are descriptor counts; BufferBytes the fixed
	// buffer bound to each descriptor.
	RxRing      int
	TxRing      int
	BufferBytes int

	// Addr is the station address, programmed during Init.
	Addr ethernet.Addr

	// OnReceive takes each completed frame.  The slice aliases the
	// descriptor buffer and is only valid for the duration of the call.
	OnReceive func(frame []byte)

	// OnTxReady is raised whenever the transmit ring can take another
	// frame.
	OnTxReady func()

	// Phy, if set, is polled from Tick for link changes.
	Phy interface{ Tick() }

	// ResetTimeout bounds the soft reset poll, MdioTimeout each
	// management frame.
	ResetTimeout time.Duration
	MdioTimeout  time.Duration

	Name   string
	Logger logrus.FieldLogger
}

const (
	defaultRing         = 8
	defaultBufferBytes  = 1536
	defaultResetTimeout = 100 * time.Millisecond
	defaultMdioTimeout  = 10 * time.Millisecond
)

// Nic is one MAC instance.  The interrupt service routine acknowledges
// hardware status and sets Event; EventHandler does the descriptor work
// in task context.
type Nic struct {
	Event *ethdev.Event

	cfg  Config
	regs hw.Regs
	tx   *dma.TxRing
	rx   *dma.RxRing
	l    logrus.FieldLogger

	filter ethernet.FilterConfig

	pending uint32 // accumulated EIR causes, owned by Isr/EventHandler

	irqs      metrics.Counter
	busErrors metrics.Counter
}

func New(c Config) (*Nic, error) {
	if c.Regs == nil || c.RxEngine == nil || c.TxEngine == nil {
		return nil, ethdev.ErrFailure
	}
	if c.RxRing < 1 {
		c.RxRing = defaultRing
	}
	if c.TxRing < 1 {
		c.TxRing = defaultRing
	}
	if c.BufferBytes < 1 {
		c.BufferBytes = defaultBufferBytes
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = defaultResetTimeout
	}
	if c.MdioTimeout <= 0 {
		c.MdioTimeout = defaultMdioTimeout
	}
	if c.Name == "" {
		c.Name = "enet"
	}
	l := c.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}

	n := &Nic{
		Event:     ethdev.NewEvent(),
		cfg:       c,
		regs:      c.Regs,
		l:         l.WithField("nic", c.Name),
		filter:    ethernet.FilterConfig{Slots: 0, Crc: ethernet.CrcLE},
		irqs:      metrics.GetOrRegisterCounter(c.Name+".irqs", nil),
		busErrors: metrics.GetOrRegisterCounter(c.Name+".bus_errors", nil),
	}

	tx, err := dma.NewTxRing(c.TxEngine, dma.Config{
		Ring:        c.TxRing,
		BufferBytes: c.BufferBytes,
		Name:        c.Name,
		OnReady:     c.OnTxReady,
	})
	if err != nil {
		return nil, err
	}
	rx, err := dma.NewRxRing(c.RxEngine, dma.Config{
		Ring:        c.RxRing,
		BufferBytes: c.BufferBytes,
		Name:        c.Name,
	}, c.OnReceive)
	if err != nil {
		return nil, err
	}
	n.tx, n.rx = tx, rx
	return n, nil
}

// Init soft-resets the MAC, programs the station address, clears the hash
// filters, sets up both rings and enables receive.
func (n *Nic) Init() error {
	n.l.Info("initializing")

	n.regs.Write32(regEcr, ecrReset)
	if err := n.waitResetDone(); err != nil {
		return err
	}
	n.regs.Write32(regEcr, ecrDbswp)

	n.setStationAddr(n.cfg.Addr)
	n.regs.Write32(regIaur, 0)
	n.regs.Write32(regIalr, 0)
	n.regs.Write32(regGaur, 0)
	n.regs.Write32(regGalr, 0)

	n.regs.Write32(regRcr, maxFrameBytes<<rcrMaxFlShift|rcrMiiMode|rcrFce)
	n.regs.Write32(regTcr, tcrFden)
	n.regs.Write32(regMscr, mscrDefault)
	n.regs.Write32(regTfwr, 0)
	n.regs.Write32(regMibc, 0)

	n.tx.Reset()
	n.rx.Reset()
	n.regs.Write32(regMrbr, uint32(n.cfg.BufferBytes))

	n.EnableIrq()
	hw.SetBits(n.regs, regEcr, ecrEtheren)
	n.regs.Write32(regRdar, rdarActive)

	n.Event.Set()
	return nil
}

func (n *Nic) waitResetDone() error {
	b := &backoff.Backoff{
		Min:    time.Microsecond,
		Max:    100 * time.Microsecond,
		Factor: 2,
	}
	deadline := time.Now().Add(n.cfg.ResetTimeout)
	for n.regs.Read32(regEcr)&ecrReset != 0 {
		if time.Now().After(deadline) {
			return ethdev.ErrTimeout
		}
		time.Sleep(b.Duration())
	}
	return nil
}

func (n *Nic) setStationAddr(a ethernet.Addr) {
	n.regs.Write32(regPalr,
		uint32(a[0])<<24|uint32(a[1])<<16|uint32(a[2])<<8|uint32(a[3]))
	n.regs.Write32(regPaur, uint32(a[4])<<24|uint32(a[5])<<16|paurType)
}

// Tick polls the attached PHY when one is configured.
func (n *Nic) Tick() {
	if n.cfg.Phy != nil {
		n.cfg.Phy.Tick()
	}
}

func (n *Nic) EnableIrq() {
	n.regs.Write32(regEimr, irqMask)
}

func (n *Nic) DisableIrq() {
	n.regs.Write32(regEimr, 0)
}

// Isr acknowledges the interrupt causes and defers all descriptor work to
// EventHandler.  Causes accumulate across nested interrupts until the
// handler swaps them out.
func (n *Nic) Isr() {
	st := n.regs.Read32(regEir)
	n.regs.Write32(regEir, st&irqMask)
	if st&irqMask == 0 {
		return
	}
	n.irqs.Inc(1)
	for {
		old := atomic.LoadUint32(&n.pending)
		if atomic.CompareAndSwapUint32(&n.pending, old, old|st&irqMask) {
			break
		}
	}
	n.Event.Set()
}

// EventHandler runs the deferred interrupt work: receive drain, transmit
// ready propagation, bus error recovery.
func (n *Nic) EventHandler() {
	st := atomic.SwapUint32(&n.pending, 0)

	if st&eirEberr != 0 {
		n.recover()
		return
	}
	if st&eirRxf != 0 {
		n.rx.Drain()
		n.regs.Write32(regRdar, rdarActive)
	}
	if st&eirTxf != 0 && n.tx.ReadyForMore() && n.cfg.OnTxReady != nil {
		n.cfg.OnTxReady()
	}
}

// recover restarts the DMA after a bus error: both rings are re-chained
// and the MAC re-enabled.  Frames in flight are lost.
func (n *Nic) recover() {
	n.busErrors.Inc(1)
	n.l.Warn("bus error, reinitializing rings")

	hw.ClearBits(n.regs, regEcr, ecrEtheren)
	n.tx.Reset()
	n.rx.Reset()
	hw.SetBits(n.regs, regEcr, ecrEtheren)
	n.regs.Write32(regRdar, rdarActive)
}

// SendPacket queues one frame on the transmit ring.
func (n *Nic) SendPacket(frame []byte) error {
	return n.tx.Send(frame)
}

// UpdateMacAddrFilter reprograms the hash filter from the stack's table.
// The station address keeps its dedicated registers and is not part of
// the entry list.
func (n *Nic) UpdateMacAddrFilter(entries []ethernet.FilterEntry) error {
	n.filter.Program(hashBank{n.regs}, entries)
	return nil
}

// hashBank maps the filter programmer onto the hash registers.  The
// hardware checks unicast destinations against the individual table and
// multicast against the group table; the combined hash loads both.
type hashBank struct {
	regs hw.Regs
}

func (b hashBank) SetSlot(int, ethernet.Addr, bool) {}

func (b hashBank) SetHash(lo, hi uint32) {
	b.regs.Write32(regIalr, lo)
	b.regs.Write32(regIaur, hi)
	b.regs.Write32(regGalr, lo)
	b.regs.Write32(regGaur, hi)
}

// UpdateMacConfig applies negotiated speed and duplex.  The MAC only
// distinguishes 10 Mbit from the MII line rate.
func (n *Nic) UpdateMacConfig(speed ethdev.LinkSpeed, duplex ethdev.DuplexMode) error {
	rcr := n.regs.Read32(regRcr)
	tcr := n.regs.Read32(regTcr)

	if speed == ethdev.Speed10M {
		rcr |= rcrRmii10T
	} else {
		rcr &^= rcrRmii10T
	}
	if duplex == ethdev.FullDuplex {
		tcr |= tcrFden
		rcr &^= rcrDrt
	} else {
		tcr &^= tcrFden
		rcr |= rcrDrt
	}

	n.regs.Write32(regRcr, rcr)
	n.regs.Write32(regTcr, tcr)
	n.l.WithFields(logrus.Fields{"speed": speed, "duplex": duplex}).Info("mac reconfigured")
	return nil
}

// ReadPhyReg runs one clause 22 read frame through the management
// interface.
func (n *Nic) ReadPhyReg(port, addr uint8) (uint16, error) {
	n.regs.Write32(regEir, eirMii)
	n.regs.Write32(regMmfr, mmfrStart|mmfrOpRead|
		uint32(port&mmfrAddr)<<mmfrPaShift|
		uint32(addr&mmfrAddr)<<mmfrRaShift|mmfrTa)
	if err := n.waitMii(); err != nil {
		return 0, err
	}
	return uint16(n.regs.Read32(regMmfr)), nil
}

func (n *Nic) WritePhyReg(port, addr uint8, value uint16) error {
	n.regs.Write32(regEir, eirMii)
	n.regs.Write32(regMmfr, mmfrStart|mmfrOpWrite|
		uint32(port&mmfrAddr)<<mmfrPaShift|
		uint32(addr&mmfrAddr)<<mmfrRaShift|mmfrTa|uint32(value))
	return n.waitMii()
}

// waitMii polls for management frame completion.  The MII event bit stays
// out of the interrupt mask, so this poll is the only consumer.
func (n *Nic) waitMii() error {
	b := &backoff.Backoff{
		Min:    time.Microsecond,
		Max:    100 * time.Microsecond,
		Factor: 2,
	}
	deadline := time.Now().Add(n.cfg.MdioTimeout)
	for n.regs.Read32(regEir)&eirMii == 0 {
		if time.Now().After(deadline) {
			return ethdev.ErrTimeout
		}
		time.Sleep(b.Duration())
	}
	n.regs.Write32(regEir, eirMii)
	return nil
}
