// Copyright 2024 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package mib exposes driver counters to a management agent as named
// object groups, the shape an SNMP subsystem consumes.
package mib

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rcrowley/go-metrics"

	"github.com/platinasystems/ethdev"
)

// Object is one readable scalar of a group.
type Object struct {
	Name string
	Get  func() int64
}

// Group is a named object set with lifecycle hooks.  Load runs when the
// group is registered, Unload when it is removed; Lock and Unlock bracket
// multi-object reads so an agent sees a consistent snapshot.
type Group struct {
	Name    string
	Objects []Object

	Load   func() error
	Unload func()

	mu sync.Mutex
}

func (g *Group) Lock()   { g.mu.Lock() }
func (g *Group) Unlock() { g.mu.Unlock() }

func (g *Group) object(name string) (Object, bool) {
	for _, o := range g.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return Object{}, false
}

// Registry holds the registered groups.
type Registry struct {
	mu     sync.Mutex
	groups map[string]*Group
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]*Group)}
}

// Register adds a group, running its Load hook first.  Group names are
// unique.
func (r *Registry) Register(g *Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[g.Name]; ok {
		return fmt.Errorf("mib: group %s already registered", g.Name)
	}
	if g.Load != nil {
		if err := g.Load(); err != nil {
			return err
		}
	}
	r.groups[g.Name] = g
	return nil
}

// Unregister removes a group and runs its Unload hook.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	g := r.groups[name]
	delete(r.groups, name)
	r.mu.Unlock()
	if g != nil && g.Unload != nil {
		g.Unload()
	}
}

// Get reads one object.
func (r *Registry) Get(group, object string) (int64, error) {
	r.mu.Lock()
	g, ok := r.groups[group]
	r.mu.Unlock()
	if !ok {
		return 0, ethdev.ErrNotFound
	}
	g.Lock()
	defer g.Unlock()
	o, ok := g.object(object)
	if !ok {
		return 0, ethdev.ErrNotFound
	}
	return o.Get(), nil
}

// Walk visits every object, groups in name order, objects in declaration
// order, each group locked for the duration of its visit.
func (r *Registry) Walk(fn func(group string, o Object)) {
	r.mu.Lock()
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	groups := make([]*Group, len(names))
	for i, name := range names {
		groups[i] = r.groups[name]
	}
	r.mu.Unlock()

	for i, g := range groups {
		g.Lock()
		for _, o := range g.Objects {
			fn(names[i], o)
		}
		g.Unlock()
	}
}

// InterfaceGroup mirrors the ring counters of one interface into the
// standard interface objects.  The counter names follow the dma package's
// registry layout, so the group tracks a live NIC without extra plumbing.
func InterfaceGroup(name string) *Group {
	c := func(suffix string) func() int64 {
		ctr := metrics.GetOrRegisterCounter(name+suffix, nil)
		return ctr.Count
	}
	return &Group{
		Name: name,
		Objects: []Object{
			{Name: "ifInOctets", Get: c(".rx.bytes")},
			{Name: "ifInUcastPkts", Get: c(".rx.packets")},
			{Name: "ifInErrors", Get: c(".rx.errors")},
			{Name: "ifOutOctets", Get: c(".tx.bytes")},
			{Name: "ifOutUcastPkts", Get: c(".tx.packets")},
			{Name: "ifOutErrors", Get: c(".tx.errors")},
		},
	}
}
