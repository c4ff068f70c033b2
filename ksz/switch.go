// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package ksz drives the Microchip KSZ9477 7-port gigabit switch: port
// states, the static and dynamic forwarding databases, snooping controls
// and tail tagging, over SPI or I2C.
package ksz

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/sirupsen/logrus"

	"github.com/platinasystems/ethdev"
	"github.com/platinasystems/ethdev/mdio"
)

var _ ethdev.Switch = (*Switch)(nil)

type Config struct {
	// Conn is the management connection (SPI or I2C).  When nil, Smi
	// must be set; the MDC/MDIO interface only reaches the per-port
	// PHY registers, so the table and port operations are unavailable.
	Conn Conn
	Smi  mdio.SMI

	// Mac, if set, is reconfigured when the host port link resolves.
	Mac interface {
		UpdateMacConfig(speed ethdev.LinkSpeed, duplex ethdev.DuplexMode) error
	}

	// TailTagging inserts the destination port into transmitted frames
	// and recovers the source port from received ones.
	TailTagging bool

	// PortSeparation starts the front ports in the listening state so
	// the host controls forwarding per port.  Requires TailTagging.
	PortSeparation bool

	// OnLinkChange runs from EventHandler once per port state change.
	OnLinkChange func(port uint8, up bool)

	// InitHook runs at the end of Init for board-specific tuning.
	InitHook func(*Switch) error

	// PollTimeout bounds every self-clearing-bit poll.
	PollTimeout time.Duration

	Logger logrus.FieldLogger
}

// Switch is one KSZ9477.  All operations serialize on an internal lock;
// in particular a dynamic table walk holds the hardware search engine
// between calls and must run to the end of the table before another
// walk starts.
type Switch struct {
	Event *ethdev.Event

	cfg  Config
	conn Conn
	l    logrus.FieldLogger

	mu        sync.Mutex
	linkUp    [Port5 + 1]bool
	hostUp    bool
	searching bool
}

const defaultPollTimeout = 100 * time.Millisecond

func New(c Config) *Switch {
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}
	l := c.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Switch{
		Event: ethdev.NewEvent(),
		cfg:   c,
		conn:  c.Conn,
		l:     l.WithField("switch", "ksz9477"),
	}
}

func (s *Switch) read8(addr uint16) (uint8, error) {
	var b [1]byte
	err := s.conn.Read(addr, b[:])
	return b[0], err
}

func (s *Switch) write8(addr uint16, v uint8) error {
	return s.conn.Write(addr, []byte{v})
}

func (s *Switch) read16(addr uint16) (uint16, error) {
	var b [2]byte
	err := s.conn.Read(addr, b[:])
	return binary.BigEndian.Uint16(b[:]), err
}

func (s *Switch) write16(addr uint16, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return s.conn.Write(addr, b[:])
}

func (s *Switch) read32(addr uint16) (uint32, error) {
	var b [4]byte
	err := s.conn.Read(addr, b[:])
	return binary.BigEndian.Uint32(b[:]), err
}

func (s *Switch) write32(addr uint16, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return s.conn.Write(addr, b[:])
}

func (s *Switch) setBits8(addr uint16, set, clear uint8) error {
	v, err := s.read8(addr)
	if err != nil {
		return err
	}
	return s.write8(addr, v&^clear|set)
}

// pollClear32 waits for the hardware to clear mask in a 32-bit register.
func (s *Switch) pollClear32(addr uint16, mask uint32) error {
	b := &backoff.Backoff{
		Min:    10 * time.Microsecond,
		Max:    time.Millisecond,
		Factor: 2,
	}
	deadline := time.Now().Add(s.cfg.PollTimeout)
	for {
		v, err := s.read32(addr)
		if err != nil {
			return err
		}
		if v&mask == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return ethdev.ErrTimeout
		}
		time.Sleep(b.Duration())
	}
}

// pollSet32 waits for the hardware to raise mask, returning the final
// register value.
func (s *Switch) pollSet32(addr uint16, mask uint32) (uint32, error) {
	b := &backoff.Backoff{
		Min:    10 * time.Microsecond,
		Max:    time.Millisecond,
		Factor: 2,
	}
	deadline := time.Now().Add(s.cfg.PollTimeout)
	for {
		v, err := s.read32(addr)
		if err != nil {
			return 0, err
		}
		if v&mask != 0 {
			return v, nil
		}
		if time.Now().After(deadline) {
			return 0, ethdev.ErrTimeout
		}
		time.Sleep(b.Duration())
	}
}

// Init brings the switch to operational state: waits for the management
// interface, configures tail tagging and port states, restores lookup
// engine defaults, applies the PHY errata workarounds and starts switch
// operation.
func (s *Switch) Init() error {
	s.l.Info("initializing")

	if s.conn != nil {
		if err := s.waitReady(); err != nil {
			return err
		}

		// Tail tagging and the frame length check are mutually
		// exclusive; tagged frames exceed the nominal length.
		if s.cfg.TailTagging {
			if err := s.setBits8(portReg(HostPort, portOpCtrl0), opCtrl0TailTagEn, 0); err != nil {
				return err
			}
			if err := s.setBits8(regSwitchMacCtrl0, 0, macCtrl0FrameLenChk); err != nil {
				return err
			}
		} else {
			if err := s.setBits8(portReg(HostPort, portOpCtrl0), 0, opCtrl0TailTagEn); err != nil {
				return err
			}
			if err := s.setBits8(regSwitchMacCtrl0, macCtrl0FrameLenChk, 0); err != nil {
				return err
			}
		}

		state := ethdev.PortForwarding
		if s.cfg.TailTagging && s.cfg.PortSeparation {
			state = ethdev.PortListening
		}
		for port := uint8(Port1); port <= Port5; port++ {
			if err := s.SetPortState(port, state); err != nil {
				return err
			}
		}

		if err := s.write8(regSwitchLueCtrl0,
			lueCtrl0AgeCountDefault|lueCtrl0HashOptionCrc); err != nil {
			return err
		}
		if err := s.write8(regSwitchLueCtrl3, agePeriodDefault); err != nil {
			return err
		}

		// Internal RGMII clock delays on the host port.
		if err := s.setBits8(portReg(HostPort, portXmiiCtrl1),
			xmiiCtrl1RgmiiIdIg|xmiiCtrl1RgmiiIdEg, 0); err != nil {
			return err
		}

		if err := s.write8(regSwitchOp, switchOpStartSwitch); err != nil {
			return err
		}
	}

	for port := uint8(Port1); port <= Port5; port++ {
		if err := s.applyPhyErrata(port); err != nil {
			return err
		}
	}

	if s.cfg.InitHook != nil {
		if err := s.cfg.InitHook(s); err != nil {
			return err
		}
	}

	s.Event.Set()
	return nil
}

// waitReady polls CHIP_ID1 until the serial interface returns valid data.
func (s *Switch) waitReady() error {
	b := &backoff.Backoff{
		Min:    100 * time.Microsecond,
		Max:    10 * time.Millisecond,
		Factor: 2,
	}
	deadline := time.Now().Add(s.cfg.PollTimeout)
	for {
		id, err := s.read8(regChipID1)
		if err != nil {
			return err
		}
		if id == chipID1Default {
			return nil
		}
		if time.Now().After(deadline) {
			return ethdev.ErrTimeout
		}
		time.Sleep(b.Duration())
	}
}

// applyPhyErrata runs the silicon errata workarounds on one PHY port:
// receiver and transmit tuning, EEE off, power supply adjustment, LED
// mode.
func (s *Switch) applyPhyErrata(port uint8) error {
	type mmdWrite struct {
		dev uint8
		reg uint16
		val uint16
	}
	seq := []mmdWrite{
		{mmdDevPma, 0x6f, 0xdd0b},
		{mmdDevPma, 0x8f, 0x6032},
		{mmdDevPma, 0x9d, 0x248c},
		{mmdDevPma, 0x75, 0x0060},
		{mmdDevPma, 0xd3, 0x7777},
		{mmdDevVendor, 0x06, 0x3008},
		{mmdDevVendor, 0x08, 0x2001},
		{mmdDevVendor, 0x04, 0x00d0},
		{mmdDevAneg, mmdEeeAdvReg, 0x0000},
		{mmdDevVendor, 0x13, 0x6eff},
		{mmdDevVendor, 0x14, 0xe6ff},
		{mmdDevVendor, 0x15, 0x6eff},
		{mmdDevVendor, 0x16, 0xe6ff},
		{mmdDevVendor, 0x17, 0x00ff},
		{mmdDevVendor, 0x18, 0x43ff},
		{mmdDevVendor, 0x19, 0xc3ff},
		{mmdDevVendor, 0x1a, 0x6fff},
		{mmdDevVendor, 0x1b, 0x07ff},
		{mmdDevVendor, 0x1c, 0x0fff},
		{mmdDevVendor, 0x1d, 0xe7ff},
		{mmdDevVendor, 0x1e, 0xefff},
		{mmdDevVendor, 0x20, 0xeeee},
		{mmdDevLed, mmdLedModeReg, ledModeTriColor | ledModeRsvd},
	}
	for _, w := range seq {
		if err := s.WriteMmdReg(port, w.dev, w.reg, w.val); err != nil {
			return err
		}
	}
	return nil
}

// Tick aggregates the front port link states and raises the event flag
// when any of them changed since the last pass.
func (s *Switch) Tick() {
	changed := false
	for port := uint8(Port1); port <= Port5; port++ {
		up := s.PortLinkState(port)
		if up != s.linkUp[port] {
			changed = true
		}
	}
	if changed {
		s.Event.Set()
	}
}

// The interrupt line is optional and unused; link changes surface through
// Tick.
func (s *Switch) EnableIrq()  {}
func (s *Switch) DisableIrq() {}

// EventHandler resolves per-port link changes.  On the first link up the
// host port speed and duplex are pushed to the attached MAC.
func (s *Switch) EventHandler() {
	anyUp := false
	for port := uint8(Port1); port <= Port5; port++ {
		up := s.PortLinkState(port)
		if up {
			anyUp = true
		}
		if up != s.linkUp[port] {
			s.linkUp[port] = up
			s.l.WithFields(logrus.Fields{"port": port, "up": up}).Info("port link change")
			if s.cfg.OnLinkChange != nil {
				s.cfg.OnLinkChange(port, up)
			}
		}
	}

	if anyUp == s.hostUp {
		return
	}
	s.hostUp = anyUp
	if anyUp && s.cfg.Mac != nil {
		speed := s.hostPortSpeed()
		duplex := s.hostPortDuplex()
		if err := s.cfg.Mac.UpdateMacConfig(speed, duplex); err != nil {
			s.l.WithError(err).Warn("host mac reconfigure failed")
		}
	}
}

// PortLinkState reads the live link status of a front port.  BMSR
// latches link failures, so it is read twice.
func (s *Switch) PortLinkState(port uint8) bool {
	if port < Port1 || port > Port5 {
		return false
	}
	if _, err := s.ReadPhyReg(port, mdio.RegBMSR); err != nil {
		return false
	}
	v, err := s.ReadPhyReg(port, mdio.RegBMSR)
	if err != nil {
		return false
	}
	return v&mdio.BMSRLinkStatus != 0
}

// PortLinkSpeed reports the resolved speed of a front port, or the host
// port interface speed for HostPort.
func (s *Switch) PortLinkSpeed(port uint8) ethdev.LinkSpeed {
	if port >= Port1 && port <= Port5 {
		v, err := s.ReadPhyReg(port, regPhyCon)
		if err != nil {
			return ethdev.SpeedUnknown
		}
		switch {
		case v&phyConSpeed1000BT != 0:
			return ethdev.Speed1G
		case v&phyConSpeed100BTX != 0:
			return ethdev.Speed100M
		case v&phyConSpeed10BT != 0:
			return ethdev.Speed10M
		}
		return ethdev.SpeedUnknown
	}
	if port == HostPort {
		return s.hostPortSpeed()
	}
	return ethdev.SpeedUnknown
}

func (s *Switch) hostPortSpeed() ethdev.LinkSpeed {
	if s.conn == nil {
		// MDC/MDIO cannot reach the XMII registers.
		return ethdev.Speed100M
	}
	v, err := s.read8(portReg(HostPort, portXmiiCtrl1))
	if err != nil {
		return ethdev.SpeedUnknown
	}
	if v&xmiiCtrl1IfTypeMask == xmiiCtrl1IfRgmii && v&xmiiCtrl1Speed1000 == 0 {
		return ethdev.Speed1G
	}
	v, err = s.read8(portReg(HostPort, portXmiiCtrl0))
	if err != nil {
		return ethdev.SpeedUnknown
	}
	if v&xmiiCtrl0Speed10_100 != 0 {
		return ethdev.Speed100M
	}
	return ethdev.Speed10M
}

// PortDuplexMode reports the resolved duplex of a front port, or the
// host port configuration for HostPort.
func (s *Switch) PortDuplexMode(port uint8) ethdev.DuplexMode {
	if port >= Port1 && port <= Port5 {
		v, err := s.ReadPhyReg(port, regPhyCon)
		if err != nil {
			return ethdev.DuplexUnknown
		}
		if v&phyConDuplex != 0 {
			return ethdev.FullDuplex
		}
		return ethdev.HalfDuplex
	}
	if port == HostPort {
		return s.hostPortDuplex()
	}
	return ethdev.DuplexUnknown
}

func (s *Switch) hostPortDuplex() ethdev.DuplexMode {
	if s.conn == nil {
		return ethdev.FullDuplex
	}
	v, err := s.read8(portReg(HostPort, portXmiiCtrl0))
	if err != nil {
		return ethdev.DuplexUnknown
	}
	if v&xmiiCtrl0Duplex != 0 {
		return ethdev.FullDuplex
	}
	return ethdev.HalfDuplex
}

// SetPortState programs the MSTP state of a front port as transmit,
// receive and learning enables.
func (s *Switch) SetPortState(port uint8, state ethdev.PortState) error {
	if port < Port1 || port > Port5 {
		return ethdev.ErrInvalidPort
	}
	addr := portReg(port, portMstpState)
	v, err := s.read8(addr)
	if err != nil {
		return err
	}
	switch state {
	case ethdev.PortListening:
		v &^= mstpTransmitEn
		v |= mstpReceiveEn | mstpLearningDis
	case ethdev.PortLearning:
		v &^= mstpTransmitEn | mstpReceiveEn | mstpLearningDis
	case ethdev.PortForwarding:
		v |= mstpTransmitEn | mstpReceiveEn
		v &^= mstpLearningDis
	default:
		v &^= mstpTransmitEn | mstpReceiveEn
		v |= mstpLearningDis
	}
	return s.write8(addr, v)
}

// GetPortState decodes the MSTP enables back into a port state.
func (s *Switch) GetPortState(port uint8) ethdev.PortState {
	if port < Port1 || port > Port5 {
		return ethdev.PortDisabled
	}
	v, err := s.read8(portReg(port, portMstpState))
	if err != nil {
		return ethdev.PortUnknown
	}
	tx := v&mstpTransmitEn != 0
	rx := v&mstpReceiveEn != 0
	noLearn := v&mstpLearningDis != 0
	switch {
	case !tx && !rx && noLearn:
		return ethdev.PortDisabled
	case !tx && rx && noLearn:
		return ethdev.PortListening
	case !tx && !rx && !noLearn:
		return ethdev.PortLearning
	case tx && rx && !noLearn:
		return ethdev.PortForwarding
	}
	return ethdev.PortUnknown
}

// SetAgingTime converts seconds into age period units.  The hardware
// multiplies the period by the age count, 4 at the default setting, so
// the requested time rounds up to the next multiple of 4 and saturates
// at the 8-bit register limit.
func (s *Switch) SetAgingTime(seconds uint32) error {
	period := (seconds + agePeriodGranularity - 1) / agePeriodGranularity
	if period > 255 {
		period = 255
	}
	return s.write8(regSwitchLueCtrl3, uint8(period))
}

func (s *Switch) EnableIgmpSnooping(enable bool) error {
	if enable {
		return s.setBits8(regSnoopCtrl, snoopCtrlIgmpEn, 0)
	}
	return s.setBits8(regSnoopCtrl, 0, snoopCtrlIgmpEn)
}

func (s *Switch) EnableMldSnooping(enable bool) error {
	if enable {
		return s.setBits8(regSnoopCtrl, snoopCtrlMldEn, 0)
	}
	return s.setBits8(regSnoopCtrl, 0, snoopCtrlMldEn)
}

// EnableRsvdMcastTable controls lookup of the reserved multicast group
// addresses (01-80-C2-00-00-0x) in the reserved table.
func (s *Switch) EnableRsvdMcastTable(enable bool) error {
	if enable {
		return s.setBits8(regSwitchLueCtrl0, lueCtrl0ReservedMcastLookupEn, 0)
	}
	return s.setBits8(regSwitchLueCtrl0, 0, lueCtrl0ReservedMcastLookupEn)
}

// SetUnknownMcastFwdPorts selects where multicast frames with no FDB
// match go.  CpuPortMask in ports selects the host port.
func (s *Switch) SetUnknownMcastFwdPorts(enable bool, ports uint32) error {
	v, err := s.read32(regUnknownMcastCtrl)
	if err != nil {
		return err
	}
	v &^= unknownMcastCtrlFwdMap
	if enable {
		v |= unknownMcastCtrlFwd
		if ports&CpuPortMask != 0 {
			v |= HostPortMask
		}
		v |= ports & unknownMcastCtrlFwdMapAll
	} else {
		v &^= unknownMcastCtrlFwd
	}
	return s.write32(regUnknownMcastCtrl, v)
}

// ReadPhyReg reaches the integrated PHY registers of ports 1-5, through
// the management connection when present (it maps them into the register
// file) or over MDC/MDIO otherwise.
func (s *Switch) ReadPhyReg(port, addr uint8) (uint16, error) {
	if s.conn != nil {
		return s.read16(phyReg(port, addr))
	}
	if s.cfg.Smi != nil {
		return s.cfg.Smi.Read(port, addr)
	}
	return 0, ethdev.ErrFailure
}

func (s *Switch) WritePhyReg(port, addr uint8, value uint16) error {
	if s.conn != nil {
		return s.write16(phyReg(port, addr), value)
	}
	if s.cfg.Smi != nil {
		return s.cfg.Smi.Write(port, addr, value)
	}
	return ethdev.ErrFailure
}

// WriteMmdReg writes a clause 22 indirect MMD register: select the
// device and register address, then switch to data mode and write.
func (s *Switch) WriteMmdReg(port, devAddr uint8, regAddr, value uint16) error {
	if err := s.WritePhyReg(port, regMmdAcr,
		mmdAcrFuncAddr|uint16(devAddr)&mmdAcrDevadMask); err != nil {
		return err
	}
	if err := s.WritePhyReg(port, regMmdAadr, regAddr); err != nil {
		return err
	}
	if err := s.WritePhyReg(port, regMmdAcr,
		mmdAcrFuncDataNoInc|uint16(devAddr)&mmdAcrDevadMask); err != nil {
		return err
	}
	return s.WritePhyReg(port, regMmdAadr, value)
}

func (s *Switch) ReadMmdReg(port, devAddr uint8, regAddr uint16) (uint16, error) {
	if err := s.WritePhyReg(port, regMmdAcr,
		mmdAcrFuncAddr|uint16(devAddr)&mmdAcrDevadMask); err != nil {
		return 0, err
	}
	if err := s.WritePhyReg(port, regMmdAadr, regAddr); err != nil {
		return 0, err
	}
	if err := s.WritePhyReg(port, regMmdAcr,
		mmdAcrFuncDataNoInc|uint16(devAddr)&mmdAcrDevadMask); err != nil {
		return 0, err
	}
	return s.ReadPhyReg(port, regMmdAadr)
}
