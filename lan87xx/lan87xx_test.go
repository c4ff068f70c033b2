// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package lan87xx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/ethdev"
	"github.com/platinasystems/ethdev/mdio"
)

// fakeSmi is a register file with the LAN87xx quirks that matter: the
// self-clearing reset bit, the latched link-failure bit in BMSR and the
// read-to-clear interrupt source register.
type fakeSmi struct {
	regs       map[uint8]uint16
	latchedDn  bool
	resetHangs bool
	writes     []uint8
}

func newFakeSmi() *fakeSmi {
	return &fakeSmi{regs: make(map[uint8]uint16)}
}

func (s *fakeSmi) Read(phy, reg uint8) (uint16, error) {
	v := s.regs[reg]
	switch reg {
	case mdio.RegBMSR:
		if s.latchedDn {
			s.latchedDn = false
			return v &^ mdio.BMSRLinkStatus, nil
		}
	case RegISR:
		s.regs[RegISR] = 0
	}
	return v, nil
}

func (s *fakeSmi) Write(phy, reg uint8, v uint16) error {
	s.writes = append(s.writes, reg)
	if reg == mdio.RegBMCR && v&mdio.BMCRReset != 0 && !s.resetHangs {
		v &^= mdio.BMCRReset
	}
	s.regs[reg] = v
	return nil
}

func (s *fakeSmi) setLink(hcd uint16) {
	s.regs[mdio.RegBMSR] |= mdio.BMSRLinkStatus
	s.regs[RegPSCSR] = PscsrAutodone | hcd
	s.regs[RegISR] = IntAnComplete
}

func (s *fakeSmi) dropLink() {
	s.regs[mdio.RegBMSR] &^= mdio.BMSRLinkStatus
	s.regs[RegISR] = IntLinkDown
}

type fakeMac struct {
	speed  ethdev.LinkSpeed
	duplex ethdev.DuplexMode
	calls  int
}

func (m *fakeMac) UpdateMacConfig(s ethdev.LinkSpeed, d ethdev.DuplexMode) error {
	m.speed, m.duplex, m.calls = s, d, m.calls+1
	return nil
}

func TestInitSequence(t *testing.T) {
	s := newFakeSmi()
	hooked := false
	p := New(Config{
		Smi:      s,
		Addr:     1,
		InitHook: func(*Phy) error { hooked = true; return nil },
	})
	require.NoError(t, p.Init())

	assert.Equal(t, uint16(anarDefault), s.regs[mdio.RegANAR])
	assert.Equal(t, uint16(mdio.BMCRAnEnable), s.regs[mdio.RegBMCR])
	assert.Equal(t, uint16(IntAnComplete|IntLinkDown), s.regs[RegIMR])
	assert.True(t, hooked)

	// The reset write came before everything else.
	assert.Equal(t, uint8(mdio.RegBMCR), s.writes[0])

	// Init forces an initial link evaluation.
	select {
	case <-p.Event.C():
	default:
		t.Fatal("event not set by Init")
	}
}

func TestInitResetTimeout(t *testing.T) {
	s := newFakeSmi()
	s.resetHangs = true
	p := New(Config{Smi: s, Addr: 1, ResetTimeout: time.Millisecond})
	assert.ErrorIs(t, p.Init(), ethdev.ErrTimeout)
}

func TestDefaultAddrForOutOfRange(t *testing.T) {
	p := New(Config{Smi: newFakeSmi(), Addr: 32})
	assert.Equal(t, uint8(DefaultAddr), p.addr)
}

func TestEventHandlerLinkUp(t *testing.T) {
	s := newFakeSmi()
	mac := &fakeMac{}
	var got Link
	p := New(Config{Smi: s, Addr: 1, Mac: mac, OnLinkChange: func(l Link) { got = l }})

	s.setLink(PscsrHCD100Full)
	require.NoError(t, p.EventHandler())

	assert.Equal(t, Link{Up: true, Speed: ethdev.Speed100M, Duplex: ethdev.FullDuplex}, got)
	assert.Equal(t, ethdev.Speed100M, mac.speed)
	assert.Equal(t, ethdev.FullDuplex, mac.duplex)
	assert.Equal(t, 1, mac.calls)
	assert.True(t, p.Link().Up)

	// ISR was consumed by the acknowledge read.
	assert.Zero(t, s.regs[RegISR])
}

func TestEventHandlerSpeedDecode(t *testing.T) {
	cases := []struct {
		hcd    uint16
		speed  ethdev.LinkSpeed
		duplex ethdev.DuplexMode
	}{
		{PscsrHCD10Half, ethdev.Speed10M, ethdev.HalfDuplex},
		{PscsrHCD10Full, ethdev.Speed10M, ethdev.FullDuplex},
		{PscsrHCD100Half, ethdev.Speed100M, ethdev.HalfDuplex},
		{PscsrHCD100Full, ethdev.Speed100M, ethdev.FullDuplex},
	}
	for _, c := range cases {
		s := newFakeSmi()
		mac := &fakeMac{}
		p := New(Config{Smi: s, Addr: 1, Mac: mac})
		s.setLink(c.hcd)
		require.NoError(t, p.EventHandler())
		assert.Equal(t, c.speed, mac.speed, "hcd %#x", c.hcd)
		assert.Equal(t, c.duplex, mac.duplex, "hcd %#x", c.hcd)
	}
}

func TestEventHandlerLatchedLinkDown(t *testing.T) {
	s := newFakeSmi()
	changes := 0
	p := New(Config{Smi: s, Addr: 1, OnLinkChange: func(Link) { changes++ }})

	s.setLink(PscsrHCD100Full)
	require.NoError(t, p.EventHandler())
	require.Equal(t, 1, changes)

	// A brief link drop latches in BMSR but the link is back up: the
	// double read must see the live status and report no change.
	s.latchedDn = true
	require.NoError(t, p.EventHandler())
	assert.Equal(t, 1, changes)
	assert.True(t, p.Link().Up)
}

func TestEventHandlerLinkDown(t *testing.T) {
	s := newFakeSmi()
	var got Link
	p := New(Config{Smi: s, Addr: 1, OnLinkChange: func(l Link) { got = l }})

	s.setLink(PscsrHCD10Half)
	require.NoError(t, p.EventHandler())
	require.True(t, got.Up)

	s.dropLink()
	require.NoError(t, p.EventHandler())
	assert.False(t, got.Up)
	assert.Equal(t, ethdev.SpeedUnknown, got.Speed)
}

func TestTickPollsWithoutIrqLine(t *testing.T) {
	s := newFakeSmi()
	p := New(Config{Smi: s, Addr: 1})

	// No change, no event.
	p.Tick()
	select {
	case <-p.Event.C():
		t.Fatal("event set without link change")
	default:
	}

	s.regs[mdio.RegBMSR] |= mdio.BMSRLinkStatus
	p.Tick()
	select {
	case <-p.Event.C():
	default:
		t.Fatal("event not set on link up")
	}
}

type fakeIrq struct{ enabled, disabled int }

func (i *fakeIrq) Enable()  { i.enabled++ }
func (i *fakeIrq) Disable() { i.disabled++ }

func TestIrqLineSuppressesPolling(t *testing.T) {
	s := newFakeSmi()
	irq := &fakeIrq{}
	p := New(Config{Smi: s, Addr: 1, Irq: irq})

	s.regs[mdio.RegBMSR] |= mdio.BMSRLinkStatus
	p.Tick()
	select {
	case <-p.Event.C():
		t.Fatal("tick polled despite interrupt line")
	default:
	}

	p.EnableIrq()
	p.DisableIrq()
	assert.Equal(t, 1, irq.enabled)
	assert.Equal(t, 1, irq.disabled)
}
