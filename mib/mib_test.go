// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package mib

import (
	"errors"
	"testing"

	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinasystems/ethdev"
)

func constGroup(name string, objects map[string]int64) *Group {
	g := &Group{Name: name}
	for n, v := range objects {
		v := v
		g.Objects = append(g.Objects, Object{Name: n, Get: func() int64 { return v }})
	}
	return g
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(constGroup("sys", map[string]int64{"uptime": 42})))

	v, err := r.Get("sys", "uptime")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = r.Get("sys", "missing")
	assert.ErrorIs(t, err, ethdev.ErrNotFound)
	_, err = r.Get("missing", "uptime")
	assert.ErrorIs(t, err, ethdev.ErrNotFound)
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Group{Name: "sys"}))
	assert.Error(t, r.Register(&Group{Name: "sys"}))
}

func TestLoadFailureAborts(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	err := r.Register(&Group{Name: "sys", Load: func() error { return boom }})
	assert.ErrorIs(t, err, boom)

	_, err = r.Get("sys", "x")
	assert.ErrorIs(t, err, ethdev.ErrNotFound)
}

func TestUnregisterRunsUnload(t *testing.T) {
	r := NewRegistry()
	unloaded := false
	require.NoError(t, r.Register(&Group{Name: "sys", Unload: func() { unloaded = true }}))

	r.Unregister("sys")
	assert.True(t, unloaded)
	_, err := r.Get("sys", "x")
	assert.ErrorIs(t, err, ethdev.ErrNotFound)
}

func TestWalkOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(constGroup("b", map[string]int64{"x": 1})))
	require.NoError(t, r.Register(constGroup("a", map[string]int64{"y": 2})))

	var groups []string
	r.Walk(func(group string, o Object) { groups = append(groups, group) })
	assert.Equal(t, []string{"a", "b"}, groups)
}

func TestInterfaceGroupTracksCounters(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(InterfaceGroup("mib_test_eth")))

	metrics.GetOrRegisterCounter("mib_test_eth.rx.packets", nil).Inc(3)
	metrics.GetOrRegisterCounter("mib_test_eth.rx.bytes", nil).Inc(180)
	metrics.GetOrRegisterCounter("mib_test_eth.tx.errors", nil).Inc(1)

	v, err := r.Get("mib_test_eth", "ifInUcastPkts")
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	v, err = r.Get("mib_test_eth", "ifInOctets")
	require.NoError(t, err)
	assert.Equal(t, int64(180), v)
	v, err = r.Get("mib_test_eth", "ifOutErrors")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	v, err = r.Get("mib_test_eth", "ifOutUcastPkts")
	require.NoError(t, err)
	assert.Zero(t, v)
}
