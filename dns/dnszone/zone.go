// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dnszone implements a simple, mutable, in-memory DNS zone
// container: a domain tree rooted at an apex, walkable in canonical name
// order. It is the concrete "in-memory zone" collaborator that the IXFR
// diff engine (package ixfrdiff) and the spool writer (package
// ixfrspool) consume through the dns.Zone / dns.ZoneDomain interfaces.
//
// See the top-level package for general documentation.
package dnszone

import (
	"sort"
	"sync"

	"github.com/tsavola/ixfrcreate/dns"
)

// Special relative node names, matching the teacher's shorthand for the
// apex and wildcard owners within a zone's node map.
const (
	Apex     = "@"
	Wildcard = "*"
)

// Zone enumerates the domains of one DNS zone: an apex name plus a
// canonically ordered collection of owners, each carrying an RR-set
// chain. It implements dns.Zone.
//
// Must not be modified concurrently with a Domains() walk that is still
// being iterated by a caller (mutation during iteration is undefined, as
// for the hash table in package xhash).
type Zone struct {
	mu      sync.RWMutex
	apex    dns.Name
	serial  uint32
	domains map[string]*Domain
}

// Domain is one owner name within a Zone, implementing dns.ZoneDomain.
type Domain struct {
	name   dns.Name
	rrsets []dns.RRSet
}

func (d *Domain) Name() dns.Name      { return d.name }
func (d *Domain) RRSets() []dns.RRSet { return d.rrsets }

func (d *Domain) rrsetIndex(t dns.Type, c dns.Class) int {
	for i, s := range d.rrsets {
		if s.Type == t && s.Class == c {
			return i
		}
	}
	return -1
}

// NewZone creates an empty zone at apex with the given initial serial.
func NewZone(apex dns.Name, serial uint32) *Zone {
	return &Zone{
		apex:    apex,
		serial:  serial,
		domains: make(map[string]*Domain),
	}
}

func (z *Zone) Apex() dns.Name { return z.apex }

func (z *Zone) CurrentSerial() uint32 {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.serial
}

// Bump increments the serial number. Repeated calls between reads of
// CurrentSerial coalesce into whatever the caller observes next, mirroring
// the teacher's Container.applyChanges batching (without the timer: the
// caller decides when a batch of edits is "done").
func (z *Zone) Bump() {
	z.mu.Lock()
	z.serial++
	z.mu.Unlock()
}

func domainKey(n dns.Name) string { return string(n.Wire()) }

func (z *Zone) domain(owner dns.Name, create bool) *Domain {
	key := domainKey(owner)
	d, ok := z.domains[key]
	if !ok {
		if !create {
			return nil
		}
		d = &Domain{name: owner}
		z.domains[key] = d
	}
	return d
}

// SetRRSet adds or replaces the RR-set of (set.Type, set.Class) at owner.
// owner must be the apex or a subdomain of it. An empty RR-set (no RRs)
// removes any existing RR-set of that type/class, mirroring the teacher's
// Zone.modifyRecord "empty record removes" convention.
func (z *Zone) SetRRSet(owner dns.Name, set dns.RRSet) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if len(set.RRs) == 0 {
		z.removeRRSetLocked(owner, set.Type, set.Class)
		return
	}

	d := z.domain(owner, true)
	if i := d.rrsetIndex(set.Type, set.Class); i >= 0 {
		d.rrsets[i] = set
		return
	}
	d.rrsets = append(d.rrsets, set)
}

// RemoveRRSet deletes the RR-set of (t, c) at owner, if any.
func (z *Zone) RemoveRRSet(owner dns.Name, t dns.Type, c dns.Class) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.removeRRSetLocked(owner, t, c)
}

func (z *Zone) removeRRSetLocked(owner dns.Name, t dns.Type, c dns.Class) {
	d := z.domain(owner, false)
	if d == nil {
		return
	}
	if i := d.rrsetIndex(t, c); i >= 0 {
		d.rrsets = append(d.rrsets[:i], d.rrsets[i+1:]...)
	}
	if len(d.rrsets) == 0 {
		delete(z.domains, domainKey(owner))
	}
}

// FindRRSet looks up the RR-set of (t, c) at owner.
func (z *Zone) FindRRSet(owner dns.Name, t dns.Type, c dns.Class) (dns.RRSet, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	d := z.domain(owner, false)
	if d == nil {
		return dns.RRSet{}, false
	}
	if i := d.rrsetIndex(t, c); i >= 0 {
		return d.rrsets[i], true
	}
	return dns.RRSet{}, false
}

// Domains returns the zone's domains in canonical name order, restricted
// to owners carrying at least one RR-set. Implements dns.Zone.
func (z *Zone) Domains() []dns.ZoneDomain {
	z.mu.RLock()
	defer z.mu.RUnlock()

	out := make([]*Domain, 0, len(z.domains))
	for _, d := range z.domains {
		if len(d.rrsets) > 0 {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return dns.Compare(out[i].name, out[j].name) < 0
	})

	result := make([]dns.ZoneDomain, len(out))
	for i, d := range out {
		result[i] = d
	}
	return result
}
