// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ksz

import (
	"encoding/binary"
	"sync"

	"github.com/platinasystems/i2c"
)

// i2cLock serializes this process's SMBus transactions: the indirect
// register window is one transaction at a time.
var i2cLock sync.Mutex

// Conn moves bytes to and from the switch register file.  Registers are
// big-endian on the wire; multi-byte accesses transfer the whole value in
// one transaction.
type Conn interface {
	Read(addr uint16, p []byte) error
	Write(addr uint16, p []byte) error
}

// SPI command word: 3-bit opcode, 16-bit register address shifted up by
// the 5 turnaround bits.
const (
	spiCmdRead  = 0x60000000
	spiCmdWrite = 0x40000000
	spiCmdAddr  = 0x001fffe0
	spiCmdShift = 5
	spiCmdBytes = 4
)

// SpiBus is a full-duplex SPI transfer with chip select held for the
// whole exchange.
type SpiBus interface {
	Transfer(tx, rx []byte) error
}

// SpiConn speaks the chip's native SPI protocol over any SpiBus.
type SpiConn struct {
	Bus SpiBus
}

func spiCommand(op uint32, addr uint16) []byte {
	var cmd [spiCmdBytes]byte
	binary.BigEndian.PutUint32(cmd[:], op|uint32(addr)<<spiCmdShift&spiCmdAddr)
	return cmd[:]
}

func (c *SpiConn) Read(addr uint16, p []byte) error {
	tx := make([]byte, spiCmdBytes+len(p))
	rx := make([]byte, spiCmdBytes+len(p))
	copy(tx, spiCommand(spiCmdRead, addr))
	if err := c.Bus.Transfer(tx, rx); err != nil {
		return err
	}
	copy(p, rx[spiCmdBytes:])
	return nil
}

func (c *SpiConn) Write(addr uint16, p []byte) error {
	tx := make([]byte, spiCmdBytes+len(p))
	copy(tx, spiCommand(spiCmdWrite, addr))
	copy(tx[spiCmdBytes:], p)
	return c.Bus.Transfer(tx, make([]byte, len(tx)))
}

// I2cConn reaches the register file over the chip's I2C slave interface:
// the 16-bit register address goes out first, then the data.  Reads move
// one byte per SMBus transaction since the kernel SMBus layer cannot
// express a 16-bit command phase.
type I2cConn struct {
	// BusIndex and Addr name the i2c-dev adapter and the chip's slave
	// address.
	BusIndex int
	Addr     int
}

func (c *I2cConn) do(rw i2c.RW, command uint8, size i2c.SMBusSize, data *i2c.SMBusData) error {
	var bus i2c.Bus
	if err := bus.Open(c.BusIndex); err != nil {
		return err
	}
	defer bus.Close()
	if err := bus.ForceSlaveAddress(c.Addr); err != nil {
		return err
	}
	return bus.Do(rw, command, size, data)
}

func (c *I2cConn) Read(addr uint16, p []byte) error {
	i2cLock.Lock()
	defer i2cLock.Unlock()
	for i := range p {
		a := addr + uint16(i)
		var sd i2c.SMBusData
		// Set the register address, high byte as the command phase.
		sd[0] = uint8(a)
		if err := c.do(i2c.Write, uint8(a>>8), i2c.ByteData, &sd); err != nil {
			return err
		}
		if err := c.do(i2c.Read, 0, i2c.Byte, &sd); err != nil {
			return err
		}
		p[i] = sd[0]
	}
	return nil
}

func (c *I2cConn) Write(addr uint16, p []byte) error {
	i2cLock.Lock()
	defer i2cLock.Unlock()
	for i, b := range p {
		a := addr + uint16(i)
		var sd i2c.SMBusData
		sd[0] = uint8(a)
		sd[1] = b
		if err := c.do(i2c.Write, uint8(a>>8), i2c.WordData, &sd); err != nil {
			return err
		}
	}
	return nil
}
