// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package ethdev

// Event is a binary wakeup flag.  Set may be called from an interrupt
// handler or any goroutine; it never blocks and setting an already-set
// event is a no-op.  A single consumer waits on C and handles all work
// pending at wake time, so events coalesce the way the hardware status
// bits they mirror do.
type Event struct {
	ch chan struct{}
}

func NewEvent() *Event {
	return &Event{ch: make(chan struct{}, 1)}
}

func (e *Event) Set() {
	select {
	case e.ch <- struct{}{}:
	default:
	}
}

// C is the wait channel; one receive consumes the flag.
func (e *Event) C() <-chan struct{} { return e.ch }

// Clear drops a pending flag without handling it.
func (e *Event) Clear() {
	select {
	case <-e.ch:
	default:
	}
}
