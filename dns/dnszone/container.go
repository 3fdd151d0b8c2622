// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dnszone

import (
	"strings"
	"sync"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/xhash"
)

// Container holds every zone served by one process and answers the
// hostname/zone lookups package dnsserver needs. It is adapted from the
// teacher's acmedns Container, generalized from the teacher's single
// Records-per-node model to the richer RR-set model shared with the IXFR
// diff engine.
//
// Zone lookup by apex name is accelerated with an xhash.Table, exercising
// the generic hash table (package xhash) the way spec.md section 2
// describes it being "used throughout the wider server for symbol
// lookups" outside of the diff engine itself.
type Container struct {
	mu     sync.RWMutex
	zones  []*Zone
	lookup *xhash.Table[string, *Zone]
}

func hashZoneKey(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

// Contain builds a Container from a fixed set of zones.
func Contain(zones ...*Zone) *Container {
	size := len(zones)*2 + 1
	tbl, err := xhash.New[string, *Zone](size, hashZoneKey, func(a, b string) bool { return a == b })
	if err != nil {
		// size is always >= 1 here; Create only fails on size == 0.
		panic(err)
	}
	c := &Container{zones: zones, lookup: tbl}
	for _, z := range zones {
		c.lookup.Insert(domainKey(z.apex), z, true)
	}
	return c
}

func (c *Container) findZone(name dns.Name) *Zone {
	if z, ok := c.lookup.Search(domainKey(name)); ok {
		return z
	}
	return nil
}

// ResolveRecords implements dnsserver.Resolver. Only the apex and names
// exactly one label below it are matched; a name two or more labels below
// the apex yields an empty node name, the same as a name outside every
// zone.
func (c *Container) ResolveRecords(hostname string, filter dns.Type) (node string, rrsets []dns.RRSet, serial uint32) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, z := range c.zones {
		n, ok := z.matchResource(hostname)
		if !ok {
			continue
		}
		node = n
		serial = z.CurrentSerial()
		if d := z.domain(mustName(n, z.apex), false); d != nil {
			for _, s := range d.RRSets() {
				if filter == 0 || s.Type == filter {
					rrsets = append(rrsets, s)
				}
			}
		}
		return
	}
	return
}

// TransferZone implements dnsserver.Resolver: the apex first, then the
// remaining owners in canonical order (AXFR content; IXFR transport is
// out of scope per spec.md section 1).
func (c *Container) TransferZone(name string) (result []ZoneDomainPair, serial uint32) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	apex, err := dns.NameFromString(name)
	if err != nil {
		return
	}
	z := c.findZone(apex)
	if z == nil {
		return
	}
	serial = z.CurrentSerial()
	for _, d := range z.Domains() {
		result = append(result, ZoneDomainPair{Name: d.Name(), RRSets: d.RRSets()})
	}
	return
}

// ZoneDomainPair pairs an owner name with its RR-set chain for the
// purposes of a zone transfer answer.
type ZoneDomainPair struct {
	Name   dns.Name
	RRSets []dns.RRSet
}

func (z *Zone) matchResource(name string) (node string, ok bool) {
	apex := z.apex.String()
	switch {
	case apex == name:
		return Apex, true
	case strings.HasSuffix(name, "."+apex):
		prefix := name[:len(name)-1-len(apex)]
		if !strings.Contains(prefix, ".") {
			return prefix, true
		}
	}
	return "", false
}

// mustName turns a relative node label plus a zone apex into an absolute
// dns.Name for domain-tree lookups. The apex/wildcard shorthand never
// fails to parse since it is appended to an already-valid apex.
func mustName(node string, apex dns.Name) dns.Name {
	switch node {
	case Apex:
		return apex
	case Wildcard:
		n, _ := dns.NameFromString("*." + apex.String())
		return n
	default:
		n, _ := dns.NameFromString(node + "." + apex.String())
		return n
	}
}
