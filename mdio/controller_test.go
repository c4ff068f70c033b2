// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package mdio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/ethdev"
	"github.com/platinasystems/ethdev/hw"
)

var testLayout = Layout{
	AddrReg:  0x10,
	DataReg:  0x14,
	Busy:     1 << 0,
	WriteOp:  1 << 1,
	PhyShift: 11,
	RegShift: 6,
	Fixed:    0xf << 2, // clock divider
}

// simMdioBlock completes every transaction immediately: the busy bit is
// consumed on write and never reads back set.
func simMdioBlock(regs map[uint16]uint16) *hw.SimRegs {
	s := hw.NewSimRegs()
	s.OnWrite = func(off, v uint32) {
		if off != testLayout.AddrReg || v&testLayout.Busy == 0 {
			return
		}
		phy := uint8(v >> testLayout.PhyShift & addrMask)
		reg := uint8(v >> testLayout.RegShift & addrMask)
		key := uint16(phy)<<8 | uint16(reg)
		if v&testLayout.WriteOp != 0 {
			regs[key] = uint16(s.Peek(testLayout.DataReg))
		} else {
			s.Poke(testLayout.DataReg, uint32(regs[key]))
		}
		s.Poke(testLayout.AddrReg, v&^testLayout.Busy)
	}
	return s
}

func TestControllerReadWrite(t *testing.T) {
	phyRegs := map[uint16]uint16{
		0x01<<8 | RegBMSR: 0x796d,
	}
	c := NewController(simMdioBlock(phyRegs), testLayout, 0)

	v, err := c.Read(1, RegBMSR)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x796d), v)

	require.NoError(t, c.Write(1, RegBMCR, BMCRAnEnable|BMCRAnRestart))
	assert.Equal(t, uint16(BMCRAnEnable|BMCRAnRestart), phyRegs[0x01<<8|RegBMCR])

	// Unprogrammed registers read as zero.
	v, err = c.Read(2, RegPhyID1)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestControllerAddressEncoding(t *testing.T) {
	var lastCmd uint32
	s := hw.NewSimRegs()
	s.OnWrite = func(off, v uint32) {
		if off == testLayout.AddrReg && v&testLayout.Busy != 0 {
			lastCmd = v
			s.Poke(off, v&^testLayout.Busy)
		}
	}
	c := NewController(s, testLayout, 0)

	_, err := c.Read(0x1f, 0x15)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1f)<<testLayout.PhyShift, lastCmd&(addrMask<<testLayout.PhyShift))
	assert.Equal(t, uint32(0x15)<<testLayout.RegShift, lastCmd&(addrMask<<testLayout.RegShift))
	assert.Equal(t, testLayout.Fixed, lastCmd&testLayout.Fixed)
	assert.Zero(t, lastCmd&testLayout.WriteOp)

	require.NoError(t, c.Write(0x03, 0x00, 0x1234))
	assert.NotZero(t, lastCmd&testLayout.WriteOp)
}

func TestControllerTimeout(t *testing.T) {
	s := hw.NewSimRegs()
	// Busy stuck high, a wedged management block.
	s.Poke(testLayout.AddrReg, testLayout.Busy)
	c := NewController(s, testLayout, time.Millisecond)

	_, err := c.Read(1, RegBMSR)
	assert.ErrorIs(t, err, ethdev.ErrTimeout)

	err = c.Write(1, RegBMCR, 0)
	assert.ErrorIs(t, err, ethdev.ErrTimeout)
}
