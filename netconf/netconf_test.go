// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package netconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/ethdev/ethernet"
)

const full = `
log_level: debug
mac:
  name: eth0
  addr: "02:11:22:33:44:55"
  rx:
    descriptors: 16
    buffer_bytes: 1536
  tx:
    descriptors: 4
    buffer_bytes: 1536
    chained: true
  reset_timeout: 100ms
  mdio_timeout: 10ms
  phy_addr: 1
switch:
  spi:
    bus: 0
    chip: 1
    speed_hz: 25000000
  tail_tagging: true
  port_separation: true
  poll_timeout: 50ms
  aging_seconds: 300
`

func TestParseFull(t *testing.T) {
	c, err := Parse([]byte(full))
	require.NoError(t, err)

	assert.Equal(t, "debug", c.LogLevel)

	require.NotNil(t, c.Mac)
	assert.Equal(t, "eth0", c.Mac.Name)
	assert.Equal(t, ethernet.Addr{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}, c.Mac.Addr)
	assert.Equal(t, 16, c.Mac.Rx.Descriptors)
	assert.False(t, c.Mac.Rx.Chained)
	assert.True(t, c.Mac.Tx.Chained)
	assert.Equal(t, 100*time.Millisecond, c.Mac.ResetTimeout)
	assert.Equal(t, uint8(1), c.Mac.PhyAddr)

	require.NotNil(t, c.Switch)
	require.NotNil(t, c.Switch.Spi)
	assert.Equal(t, uint32(25000000), c.Switch.Spi.SpeedHz)
	assert.True(t, c.Switch.TailTagging)
	assert.Equal(t, 50*time.Millisecond, c.Switch.PollTimeout)
	assert.Equal(t, uint32(300), c.Switch.AgingSeconds)
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("mac:\n  name: eth0\n"))
	require.NoError(t, err)

	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, defaultDescriptors, c.Mac.Rx.Descriptors)
	assert.Equal(t, defaultBufferBytes, c.Mac.Rx.BufferBytes)
	assert.Equal(t, defaultDescriptors, c.Mac.Tx.Descriptors)
	assert.Nil(t, c.Switch)
}

func TestParseRejectsBadRing(t *testing.T) {
	_, err := Parse([]byte(`
mac:
  rx:
    descriptors: -1
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ring size")
}

func TestParseRejectsBadLevel(t *testing.T) {
	_, err := Parse([]byte("log_level: loud\n"))
	require.Error(t, err)
}

func TestParseRejectsAmbiguousTransport(t *testing.T) {
	_, err := Parse([]byte("switch: {}\n"))
	require.Error(t, err)

	_, err = Parse([]byte(`
switch:
  spi: {bus: 0, chip: 0}
  i2c: {bus: 1, addr: 0x5f}
`))
	require.Error(t, err)
}

func TestParseRejectsSeparationWithoutTagging(t *testing.T) {
	_, err := Parse([]byte(`
switch:
  i2c: {bus: 1, addr: 0x5f}
  port_separation: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tail_tagging")
}

func TestParseRejectsBadAddr(t *testing.T) {
	_, err := Parse([]byte("mac:\n  addr: \"02:11:22:33:44:55:66:77\"\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethdev.yaml")
	require.NoError(t, os.WriteFile(path, []byte(full), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "eth0", c.Mac.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLogger(t *testing.T) {
	c, err := Parse([]byte("log_level: warning\n"))
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, c.Logger().GetLevel())
}
