// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ksz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSpi captures each transfer and plays back a canned response.
type recordingSpi struct {
	tx [][]byte
	rx []byte
}

func (b *recordingSpi) Transfer(tx, rx []byte) error {
	b.tx = append(b.tx, append([]byte(nil), tx...))
	copy(rx, b.rx)
	return nil
}

func TestSpiReadCommand(t *testing.T) {
	bus := &recordingSpi{rx: []byte{0, 0, 0, 0, 0x94, 0x77}}
	c := &SpiConn{Bus: bus}

	var p [2]byte
	require.NoError(t, c.Read(0x0300, p[:]))

	require.Len(t, bus.tx, 1)
	// Read opcode with the address in bits 20:5.
	assert.Equal(t, []byte{0x60, 0x00, 0x60, 0x00, 0x00, 0x00}, bus.tx[0])
	assert.Equal(t, [2]byte{0x94, 0x77}, p)
}

func TestSpiWriteCommand(t *testing.T) {
	bus := &recordingSpi{}
	c := &SpiConn{Bus: bus}

	require.NoError(t, c.Write(0x041c, []byte{0xde, 0xad, 0xbe, 0xef}))

	require.Len(t, bus.tx, 1)
	assert.Equal(t, []byte{0x40, 0x00, 0x83, 0x80, 0xde, 0xad, 0xbe, 0xef}, bus.tx[0])
}

func TestSpiWideRead(t *testing.T) {
	bus := &recordingSpi{rx: []byte{0, 0, 0, 0, 0xde, 0xad, 0xbe, 0xef}}
	c := &SpiConn{Bus: bus}

	var p [4]byte
	require.NoError(t, c.Read(0x0420, p[:]))
	assert.Equal(t, [4]byte{0xde, 0xad, 0xbe, 0xef}, p)
	// The whole value moves in one chip select assertion.
	assert.Len(t, bus.tx[0], spiCmdBytes+4)
}
