// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package mdio provides management-interface access to PHY registers: a
// register-mapped controller for MACs with a built-in MDIO block, and a
// GPIO bit-bang transport for boards without one.  Both speak IEEE 802.3
// clause 22.
package mdio

// SMI is the station management interface: 5-bit PHY address, 5-bit
// register address, 16-bit data.
type SMI interface {
	Read(phy, reg uint8) (uint16, error)
	Write(phy, reg uint8, v uint16) error
}

// Clause 22 frame fields.
const (
	frameStart = 0x1 // ST, 01
	opRead     = 0x2 // OP, 10
	opWrite    = 0x1 // OP, 01

	addrMask = 0x1f
)

// Clause 22 register numbers common to every PHY.
const (
	RegBMCR      = 0x00
	RegBMSR      = 0x01
	RegPhyID1    = 0x02
	RegPhyID2    = 0x03
	RegANAR      = 0x04
	RegANLPAR    = 0x05
	RegMMDAccess = 0x0d
	RegMMDData   = 0x0e
)

// Basic mode control register bits.
const (
	BMCRReset      = 1 << 15
	BMCRLoopback   = 1 << 14
	BMCRSpeed100   = 1 << 13
	BMCRAnEnable   = 1 << 12
	BMCRPowerDown  = 1 << 11
	BMCRAnRestart  = 1 << 9
	BMCRFullDuplex = 1 << 8
)

// Basic mode status register bits.
const (
	BMSRAnComplete = 1 << 5
	BMSRLinkStatus = 1 << 2
)
