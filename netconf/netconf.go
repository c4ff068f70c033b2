// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package netconf loads the YAML driver configuration shared by the MAC
// and switch drivers and the admin tools.
package netconf

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"

	"github.com/platinasystems/ethdev/ethernet"
)

// Ring sizes one DMA ring.
type Ring struct {
	// Descriptors is the ring length, at least 1.
	Descriptors int `yaml:"descriptors"`

	// BufferBytes is the fixed buffer bound to each descriptor.
	BufferBytes int `yaml:"buffer_bytes"`

	// Chained selects explicit next-descriptor links instead of the
	// wrap flag.
	Chained bool `yaml:"chained"`
}

// Mac configures one MAC driver instance.
type Mac struct {
	Name string        `yaml:"name"`
	Addr ethernet.Addr `yaml:"addr"`

	Rx Ring `yaml:"rx"`
	Tx Ring `yaml:"tx"`

	ResetTimeout time.Duration `yaml:"reset_timeout"`
	MdioTimeout  time.Duration `yaml:"mdio_timeout"`

	// PhyAddr is the MDIO address of the attached transceiver.
	PhyAddr uint8 `yaml:"phy_addr"`
}

// Spi names a spidev device.
type Spi struct {
	Bus     int    `yaml:"bus"`
	Chip    int    `yaml:"chip"`
	SpeedHz uint32 `yaml:"speed_hz"`
}

// I2c names an i2c-dev adapter and slave address.
type I2c struct {
	Bus  int `yaml:"bus"`
	Addr int `yaml:"addr"`
}

// Switch configures one switch chip.  Exactly one management transport
// must be set.
type Switch struct {
	Spi *Spi `yaml:"spi"`
	I2c *I2c `yaml:"i2c"`

	TailTagging    bool `yaml:"tail_tagging"`
	PortSeparation bool `yaml:"port_separation"`

	PollTimeout  time.Duration `yaml:"poll_timeout"`
	AgingSeconds uint32        `yaml:"aging_seconds"`
}

type Config struct {
	LogLevel string `yaml:"log_level"`

	Mac    *Mac    `yaml:"mac"`
	Switch *Switch `yaml:"switch"`
}

const (
	defaultDescriptors = 8
	defaultBufferBytes = 1536
)

// Load reads, parses and validates the configuration at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse unmarshals and validates a configuration document, filling in
// defaults for omitted ring sizes.
func Parse(b []byte) (*Config, error) {
	c := &Config{LogLevel: "info"}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("netconf: %w", err)
	}
	if c.Mac != nil {
		c.Mac.Rx.applyDefaults()
		c.Mac.Tx.applyDefaults()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Ring) applyDefaults() {
	if r.Descriptors == 0 {
		r.Descriptors = defaultDescriptors
	}
	if r.BufferBytes == 0 {
		r.BufferBytes = defaultBufferBytes
	}
}

func (r *Ring) validate(name string) error {
	if r.Descriptors < 1 {
		return fmt.Errorf("netconf: %s ring size %d, need at least 1",
			name, r.Descriptors)
	}
	if r.BufferBytes < 1 {
		return fmt.Errorf("netconf: %s buffer size %d, need at least 1",
			name, r.BufferBytes)
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("netconf: %w", err)
	}
	if c.Mac != nil {
		if err := c.Mac.Rx.validate("rx"); err != nil {
			return err
		}
		if err := c.Mac.Tx.validate("tx"); err != nil {
			return err
		}
	}
	if c.Switch != nil {
		if (c.Switch.Spi == nil) == (c.Switch.I2c == nil) {
			return fmt.Errorf("netconf: switch needs exactly one of spi, i2c")
		}
		if c.Switch.PortSeparation && !c.Switch.TailTagging {
			return fmt.Errorf("netconf: port_separation requires tail_tagging")
		}
	}
	return nil
}

// Logger builds a logrus logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	l := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l
}
