// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ksz

import (
	"encoding/binary"

	"github.com/platinasystems/ethdev"
)

// ingressTag builds the two-byte tag the host appends when sending
// through the host port.  Port 0 leaves the destination to the normal
// address lookup; ports 1-5 force the frame out that port, bypassing
// port blocking.
func ingressTag(port uint8) uint16 {
	if port == 0 {
		return 0
	}
	return tailTagOverride | 1<<(port-1)
}

// TagFrame appends the tail tag addressed to port.  The frame is padded
// to the minimum Ethernet length first; the switch strips the tag before
// computing the FCS, so an unpadded short frame would leave the switch
// under-length.
func (s *Switch) TagFrame(frame []byte, port uint8) ([]byte, error) {
	if !s.cfg.TailTagging {
		return frame, nil
	}
	if port > Port5 {
		return nil, ethdev.ErrInvalidPort
	}
	for len(frame) < minFrameBytes {
		frame = append(frame, 0)
	}
	var tag [ingressTagBytes]byte
	binary.BigEndian.PutUint16(tag[:], ingressTag(port))
	return append(frame, tag[:]...), nil
}

// UntagFrame strips the one-byte tag the switch appends on delivery and
// reports the source port.
func (s *Switch) UntagFrame(frame []byte) ([]byte, uint8, error) {
	if !s.cfg.TailTagging {
		return frame, 0, nil
	}
	if len(frame) < etherHeaderBytes+egressTagBytes {
		return nil, 0, ethdev.ErrInvalidLength
	}
	tag := frame[len(frame)-egressTagBytes]
	port := tag&tailTagSrcPort + 1
	return frame[:len(frame)-egressTagBytes], port, nil
}
