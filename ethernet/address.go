// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package ethernet provides the MAC address type and the CRC-based hash
// filtering shared by the MAC drivers in this repository.
package ethernet

import (
	"fmt"
	"net"

	"go.yaml.in/yaml/v3"
)

const AddrBytes = 6

// Addr is a 48-bit IEEE 802 MAC address, transmission byte order.
type Addr [AddrBytes]byte

var (
	Broadcast = Addr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	Zero      = Addr{}
)

func (a Addr) IsBroadcast() bool { return a == Broadcast }
func (a Addr) IsZero() bool      { return a == Zero }

// IsMulticast reports whether the group bit of the first octet is set.
// Broadcast counts as multicast.
func (a Addr) IsMulticast() bool { return a[0]&1 != 0 }

func (a Addr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		a[0], a[1], a[2], a[3], a[4], a[5])
}

func (a Addr) HardwareAddr() net.HardwareAddr {
	return net.HardwareAddr(a[:])
}

// ParseAddr accepts the formats understood by net.ParseMAC, 48-bit only.
func ParseAddr(s string) (a Addr, err error) {
	ha, err := net.ParseMAC(s)
	if err != nil {
		return
	}
	if len(ha) != AddrBytes {
		err = fmt.Errorf("ethernet: not a 48-bit address: %s", s)
		return
	}
	copy(a[:], ha)
	return
}

func (a Addr) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Addr) UnmarshalText(text []byte) error {
	v, err := ParseAddr(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalYAML/UnmarshalYAML let Addr appear directly in YAML configs.
func (a Addr) MarshalYAML() (interface{}, error) { return a.String(), nil }

func (a *Addr) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := ParseAddr(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
