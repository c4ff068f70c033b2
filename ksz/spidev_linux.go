// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ksz

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Spidev is an SpiBus backed by a /dev/spidevB.C character device.
type Spidev struct {
	fd      int
	speedHz uint32
}

const (
	spiModeCpha = 0x01
	spiModeCpol = 0x02

	// The chip samples MOSI on the rising edge with the clock idle low.
	spidevMode = 0

	spidevBits         = 8
	spidevDefaultSpeed = 25_000_000 // register access ceiling is 50 MHz
)

type spiIocTransfer struct {
	txBuf       uint64
	rxBuf       uint64
	len         uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	pad         uint32
}

const (
	spiIocWrMode        = 0x40016b01
	spiIocWrBitsPerWord = 0x40016b03
	spiIocWrMaxSpeedHz  = 0x40046b04
)

func spiIocMessage(n int) uintptr {
	// _IOW(SPI_IOC_MAGIC, 0, char[SPI_MSGSIZE(n)])
	return uintptr(0x40006b00 | (uint32(n)*uint32(unsafe.Sizeof(spiIocTransfer{}))&0x3fff)<<16)
}

// OpenSpidev opens /dev/spidevB.C and programs mode, word size and clock.
func OpenSpidev(bus, chip int, speedHz uint32) (*Spidev, error) {
	if speedHz == 0 {
		speedHz = spidevDefaultSpeed
	}
	path := fmt.Sprintf("/dev/spidev%d.%d", bus, chip)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("ksz: open %s: %w", path, err)
	}
	s := &Spidev{fd: fd, speedHz: speedHz}
	if err := s.configure(s.ioctl); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ksz: configure %s: %w", path, err)
	}
	return s, nil
}

// configure programs mode, word size and clock.  A device missing any of
// the three is unusable, so the first failure aborts the sequence.
func (s *Spidev) configure(ioctl func(req uintptr, arg unsafe.Pointer) error) error {
	mode := uint8(spidevMode)
	if err := ioctl(spiIocWrMode, unsafe.Pointer(&mode)); err != nil {
		return err
	}
	bits := uint8(spidevBits)
	if err := ioctl(spiIocWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		return err
	}
	return ioctl(spiIocWrMaxSpeedHz, unsafe.Pointer(&s.speedHz))
}

func (s *Spidev) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(s.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Transfer runs one full-duplex exchange with chip select asserted for
// its whole length.
func (s *Spidev) Transfer(tx, rx []byte) error {
	if len(tx) != len(rx) {
		return fmt.Errorf("ksz: transfer length mismatch: %d != %d", len(tx), len(rx))
	}
	t := spiIocTransfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&tx[0]))),
		rxBuf:       uint64(uintptr(unsafe.Pointer(&rx[0]))),
		len:         uint32(len(tx)),
		speedHz:     s.speedHz,
		bitsPerWord: spidevBits,
	}
	return s.ioctl(spiIocMessage(1), unsafe.Pointer(&t))
}

func (s *Spidev) Close() error { return unix.Close(s.fd) }
