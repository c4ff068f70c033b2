// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Command swctl manages a KSZ9477 switch over its spidev or i2c
// management interface: forwarding database, port states, address aging
// and snooping controls.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/platinasystems/ethdev"
	"github.com/platinasystems/ethdev/ethernet"
	"github.com/platinasystems/ethdev/ksz"
	"github.com/platinasystems/ethdev/netconf"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: swctl [-c config] command

commands:
  fdb dump
  fdb add <addr> <portmap|cpu> [override]
  fdb delete <addr>
  fdb flush static
  fdb flush dynamic [port]
  port <port> [disabled|listening|learning|forwarding]
  aging <seconds>
  snoop <igmp|mld> <on|off>

flags:
`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("c", "/etc/ethdev.yaml", "configuration file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	c, err := netconf.Load(*configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	log := c.Logger()

	sw, done, err := openSwitch(c, log)
	if err != nil {
		log.Fatal(err)
	}
	defer done()

	if err := run(sw, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func openSwitch(c *netconf.Config, log *logrus.Logger) (*ksz.Switch, func(), error) {
	if c.Switch == nil {
		return nil, nil, errors.New("no switch section in configuration")
	}
	var conn ksz.Conn
	done := func() {}
	if s := c.Switch.Spi; s != nil {
		dev, err := ksz.OpenSpidev(s.Bus, s.Chip, s.SpeedHz)
		if err != nil {
			return nil, nil, err
		}
		conn = &ksz.SpiConn{Bus: dev}
		done = func() { dev.Close() }
	} else {
		conn = &ksz.I2cConn{BusIndex: c.Switch.I2c.Bus, Addr: c.Switch.I2c.Addr}
	}
	sw := ksz.New(ksz.Config{
		Conn:        conn,
		TailTagging: c.Switch.TailTagging,
		PollTimeout: c.Switch.PollTimeout,
		Logger:      log,
	})
	return sw, done, nil
}

func run(sw *ksz.Switch, args []string) error {
	switch args[0] {
	case "fdb":
		return fdbCmd(sw, args[1:])
	case "port":
		return portCmd(sw, args[1:])
	case "aging":
		if len(args) != 2 {
			return errors.New("usage: aging <seconds>")
		}
		seconds, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return err
		}
		return sw.SetAgingTime(uint32(seconds))
	case "snoop":
		return snoopCmd(sw, args[1:])
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func fdbCmd(sw *ksz.Switch, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: fdb dump|add|delete|flush ...")
	}
	switch args[0] {
	case "dump":
		return fdbDump(sw)
	case "add":
		if len(args) < 3 {
			return errors.New("usage: fdb add <addr> <portmap|cpu> [override]")
		}
		addr, err := ethernet.ParseAddr(args[1])
		if err != nil {
			return err
		}
		ports, err := parsePortMap(args[2])
		if err != nil {
			return err
		}
		return sw.AddStaticFdbEntry(ethdev.FdbEntry{
			Addr:      addr,
			DestPorts: ports,
			Override:  len(args) > 3 && args[3] == "override",
		})
	case "delete":
		if len(args) != 2 {
			return errors.New("usage: fdb delete <addr>")
		}
		addr, err := ethernet.ParseAddr(args[1])
		if err != nil {
			return err
		}
		return sw.DeleteStaticFdbEntry(addr)
	case "flush":
		return fdbFlush(sw, args[1:])
	}
	return fmt.Errorf("unknown fdb command %q", args[0])
}

func fdbDump(sw *ksz.Switch) error {
	fmt.Println("static:")
	for i := 0; ; i++ {
		e, err := sw.GetStaticFdbEntry(i)
		if errors.Is(err, ethdev.ErrInvalidEntry) {
			continue
		}
		if errors.Is(err, ethdev.ErrEndOfTable) {
			break
		}
		if err != nil {
			return err
		}
		override := ""
		if e.Override {
			override = " override"
		}
		fmt.Printf("  %2d  %s  ports %#02x%s\n", i, e.Addr, e.DestPorts, override)
	}

	fmt.Println("dynamic:")
	for i := 0; ; i++ {
		e, err := sw.GetDynamicFdbEntry(i)
		if errors.Is(err, ethdev.ErrEndOfTable) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Printf("  %s  port %d\n", e.Addr, e.SrcPort)
	}
	return nil
}

func fdbFlush(sw *ksz.Switch, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: fdb flush static|dynamic [port]")
	}
	switch args[0] {
	case "static":
		return sw.FlushStaticFdbTable()
	case "dynamic":
		var port uint8
		if len(args) > 1 {
			p, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return err
			}
			port = uint8(p)
		}
		return sw.FlushDynamicFdbTable(port)
	}
	return fmt.Errorf("unknown flush target %q", args[0])
}

func parsePortMap(s string) (uint32, error) {
	if s == "cpu" {
		return ksz.CpuPortMask, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

var portStates = map[string]ethdev.PortState{
	"disabled":   ethdev.PortDisabled,
	"listening":  ethdev.PortListening,
	"learning":   ethdev.PortLearning,
	"forwarding": ethdev.PortForwarding,
}

func portCmd(sw *ksz.Switch, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: port <port> [state]")
	}
	p, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return err
	}
	port := uint8(p)
	if len(args) == 1 {
		up := "down"
		if sw.PortLinkState(port) {
			up = "up"
		}
		fmt.Printf("port %d: %s, link %s, %s %s\n", port,
			sw.GetPortState(port), up,
			sw.PortLinkSpeed(port), sw.PortDuplexMode(port))
		return nil
	}
	state, ok := portStates[args[1]]
	if !ok {
		return fmt.Errorf("unknown port state %q", args[1])
	}
	return sw.SetPortState(port, state)
}

func snoopCmd(sw *ksz.Switch, args []string) error {
	if len(args) != 2 || (args[1] != "on" && args[1] != "off") {
		return errors.New("usage: snoop <igmp|mld> <on|off>")
	}
	enable := args[1] == "on"
	switch args[0] {
	case "igmp":
		return sw.EnableIgmpSnooping(enable)
	case "mld":
		return sw.EnableMldSnooping(enable)
	}
	return fmt.Errorf("unknown snoop protocol %q", args[0])
}
