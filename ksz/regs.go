// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ksz

// Ports are numbered 1..7; ports 1-5 carry the integrated PHYs, port 6 is
// the RGMII host port, port 7 the SGMII port.
const (
	Port1 = 1
	Port2 = 2
	Port3 = 3
	Port4 = 4
	Port5 = 5
	Port6 = 6
	Port7 = 7

	HostPort = Port6

	// PortMask covers the five front panel ports, HostPortMask the
	// RGMII port.
	PortMask     = 0x1f
	HostPortMask = 0x20

	// CpuPortMask is the pseudo port map callers use to address the
	// host port without knowing which physical port it is.
	CpuPortMask = 0x80000000
)

// Global registers.
const (
	regChipID0 = 0x0000
	regChipID1 = 0x0001
	regChipID2 = 0x0002

	chipID1Default = 0x94

	regSwitchOp          = 0x0300
	switchOpStartSwitch  = 0x01
	switchOpSoftHardware = 0x80

	regSwitchLueCtrl0             = 0x0310
	lueCtrl0VlanEn                = 0x80
	lueCtrl0DropInvalidVid        = 0x40
	lueCtrl0AgeCountMask          = 0x38
	lueCtrl0AgeCountDefault       = 0x20
	lueCtrl0ReservedMcastLookupEn = 0x10
	lueCtrl0HashOptionMask        = 0x03
	lueCtrl0HashOptionCrc         = 0x01

	regSwitchLueCtrl1        = 0x0311
	lueCtrl1FlushAluTable    = 0x20
	lueCtrl1FlushMstpEntries = 0x10

	regSwitchLueCtrl2      = 0x0312
	lueCtrl2FlushOptMask   = 0x30
	lueCtrl2FlushOptStatic = 0x20
	lueCtrl2FlushOptDyn    = 0x10

	regSwitchLueCtrl3    = 0x0313
	agePeriodDefault     = 0x4b
	agePeriodGranularity = 4 // seconds per age period unit at default age count

	regSwitchMacCtrl0   = 0x0330
	macCtrl0FrameLenChk = 0x08

	regSnoopCtrl    = 0x0370
	snoopCtrlIgmpEn = 0x40
	snoopCtrlMldEn  = 0x04

	regUnknownMcastCtrl       = 0x0324
	unknownMcastCtrlFwd       = 0x80000000
	unknownMcastCtrlFwdMap    = 0x0000007f
	unknownMcastCtrlFwdMapAll = PortMask | HostPortMask
)

// Static address and reserved multicast table engine.
const (
	regStaticMcastTableCtrl = 0x041c

	staticCtrlTableIndex  = 0x003f0000
	staticCtrlIndexShift  = 16
	staticCtrlStartFinish = 0x00000001
	staticCtrlTableSelect = 0x00000002
	staticCtrlActionRead  = 0x00000004

	regStaticTableEntry1 = 0x0420
	regStaticTableEntry2 = 0x0424
	regStaticTableEntry3 = 0x0428
	regStaticTableEntry4 = 0x042c

	staticEntry1Valid       = 0x80000000
	staticEntry2Override    = 0x40000000
	staticEntry2PortForward = 0x0000007f

	// StaticTableSize is the number of static address table entries.
	StaticTableSize = 16
)

// Address lookup (dynamic) table engine.  The entry registers are shared
// with the static table.
const (
	regAluTableCtrl = 0x0418

	aluCtrlStartFinish      = 0x80000000
	aluCtrlValid            = 0x40000000
	aluCtrlValidOrSearchEnd = 0x20000000
	aluCtrlActionMask       = 0x00000003
	aluCtrlActionSearch     = 0x00000001

	regAluTableEntry1 = 0x0420
	regAluTableEntry2 = 0x0424
	regAluTableEntry3 = 0x0428
	regAluTableEntry4 = 0x042c

	aluEntry2PortForward = 0x0000007f
)

// Per-port registers; the port number selects a 4 KiB window.
func portReg(port uint8, offset uint16) uint16 {
	return uint16(port)<<12 | offset
}

const (
	portOpCtrl0      = 0x0020
	opCtrl0TailTagEn = 0x04

	portXmiiCtrl0        = 0x0300
	xmiiCtrl0Duplex      = 0x40
	xmiiCtrl0Speed10_100 = 0x10

	portXmiiCtrl1       = 0x0301
	xmiiCtrl1Speed1000  = 0x40 // set means NOT gigabit
	xmiiCtrl1RgmiiIdIg  = 0x10
	xmiiCtrl1RgmiiIdEg  = 0x08
	xmiiCtrl1IfTypeMask = 0x03
	xmiiCtrl1IfRgmii    = 0x03

	portMstpState   = 0x0b04
	mstpTransmitEn  = 0x04
	mstpReceiveEn   = 0x02
	mstpLearningDis = 0x01
)

// The integrated PHY registers of ports 1-5 are mapped into the port
// window as 16-bit registers.
func phyReg(port, reg uint8) uint16 {
	return portReg(port, 0x0100|uint16(reg)<<1)
}

// PHY control register (0x1f) bits: resolved speed and duplex.
const (
	regPhyCon         = 0x1f
	phyConSpeed1000BT = 0x0010
	phyConSpeed100BTX = 0x0008
	phyConSpeed10BT   = 0x0004
	phyConDuplex      = 0x0002
)

// MMD indirect access registers and function codes.
const (
	regMmdAcr           = 0x0d
	regMmdAadr          = 0x0e
	mmdAcrFuncAddr      = 0x0000
	mmdAcrFuncDataNoInc = 0x4000
	mmdAcrDevadMask     = 0x001f

	mmdDevPma    = 0x01
	mmdDevAneg   = 0x07
	mmdDevLed    = 0x02
	mmdDevVendor = 0x1c

	mmdEeeAdvReg    = 0x3c
	mmdLedModeReg   = 0x00
	ledModeTriColor = 0x0010
	ledModeRsvd     = 0x8000
)

// Tail tag framing.  The host appends two bytes when sending, the switch
// appends one byte when delivering to the host.
const (
	tailTagOverride  = 0x0200 // bypass port blocking on egress
	tailTagSrcPort   = 0x07   // source port field of the ingress byte
	ingressTagBytes  = 2
	egressTagBytes   = 1
	minFrameBytes    = 60 // without FCS
	etherHeaderBytes = 14
)
