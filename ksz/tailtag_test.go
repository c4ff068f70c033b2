// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ksz

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/ethdev"
)

func TestTagFramePadsAndAppends(t *testing.T) {
	s := New(Config{TailTagging: true})
	frame := make([]byte, 14)
	frame[0] = 0xff

	out, err := s.TagFrame(frame, Port3)
	require.NoError(t, err)
	require.Len(t, out, minFrameBytes+ingressTagBytes)
	assert.Equal(t, byte(0xff), out[0])
	// Tag is big-endian: override plus the one-hot destination port.
	assert.Equal(t, byte(0x02), out[minFrameBytes])
	assert.Equal(t, byte(0x04), out[minFrameBytes+1])
	for _, b := range out[14:minFrameBytes] {
		assert.Zero(t, b)
	}
}

func TestTagFrameFullLength(t *testing.T) {
	s := New(Config{TailTagging: true})
	frame := make([]byte, 100)

	out, err := s.TagFrame(frame, Port1)
	require.NoError(t, err)
	assert.Len(t, out, 100+ingressTagBytes)
	assert.Equal(t, byte(0x02), out[100])
	assert.Equal(t, byte(0x01), out[101])
}

func TestTagFrameLookupPort(t *testing.T) {
	s := New(Config{TailTagging: true})

	// Port 0 defers to the switch's own address lookup.
	out, err := s.TagFrame(make([]byte, minFrameBytes), 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0), out[minFrameBytes])
	assert.Equal(t, byte(0), out[minFrameBytes+1])
}

func TestTagFrameInvalidPort(t *testing.T) {
	s := New(Config{TailTagging: true})
	_, err := s.TagFrame(make([]byte, minFrameBytes), Port6)
	assert.ErrorIs(t, err, ethdev.ErrInvalidPort)
}

func TestTagFrameDisabled(t *testing.T) {
	s := New(Config{})
	frame := make([]byte, 14)
	out, err := s.TagFrame(frame, Port3)
	require.NoError(t, err)
	assert.Len(t, out, 14)
}

func TestTagFrameEthernet(t *testing.T) {
	s := New(Config{TailTagging: true})

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x02, 0, 0, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
			EthernetType: layers.EthernetTypeARP,
		},
		gopacket.Payload(make([]byte, 28))))
	frame := buf.Bytes()
	require.Len(t, frame, 42)

	out, err := s.TagFrame(frame, Port2)
	require.NoError(t, err)
	// Short ARP frame padded to minimum before the tag goes on, so the
	// switch still emits a legal frame after stripping it.
	require.Len(t, out, minFrameBytes+ingressTagBytes)
	assert.Equal(t, frame, out[:42])
	assert.Equal(t, byte(0x02), out[minFrameBytes])
	assert.Equal(t, byte(0x02), out[minFrameBytes+1])
}

func TestUntagFrame(t *testing.T) {
	s := New(Config{TailTagging: true})
	frame := make([]byte, minFrameBytes+egressTagBytes)
	frame[minFrameBytes] = 0x04

	out, port, err := s.UntagFrame(frame)
	require.NoError(t, err)
	assert.Len(t, out, minFrameBytes)
	assert.Equal(t, uint8(Port5), port)
}

func TestUntagFrameTooShort(t *testing.T) {
	s := New(Config{TailTagging: true})
	_, _, err := s.UntagFrame(make([]byte, etherHeaderBytes))
	assert.ErrorIs(t, err, ethdev.ErrInvalidLength)
}

func TestUntagFrameDisabled(t *testing.T) {
	s := New(Config{})
	frame := make([]byte, 64)
	out, port, err := s.UntagFrame(frame)
	require.NoError(t, err)
	assert.Len(t, out, 64)
	assert.Zero(t, port)
}
