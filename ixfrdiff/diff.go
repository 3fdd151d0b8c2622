// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ixfrdiff implements the IXFR difference generator (module D of
// spec.md section 4.3): given a zone snapshot spooled at an old serial and
// the same zone's in-memory state at whatever serial it has reached since,
// it streams the spool back and produces the minimal add/delete RR
// sequence that turns the old snapshot into the new one.
//
// The algorithm is a single coordinated walk: the new zone's domains
// (already in canonical order per dns.Zone's contract) are compared
// against the spool's domain stream (also written in canonical order), a
// domain at a time, without ever materializing the whole of either side
// in memory beyond one domain.
package ixfrdiff

import (
	"os"

	"go.uber.org/zap"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/ixfrerr"
	"github.com/tsavola/ixfrcreate/ixfrspool"
	"github.com/tsavola/ixfrcreate/xhash"
)

// Store is the sink a Context's Perform streams the computed difference
// into. spec.md section 6.2 specifies it as consumed, not owned, by the
// diff engine; package ixfrstore supplies concrete implementations.
//
// A Perform call makes exactly one StartSession, any number of AddRR/DelRR
// calls, and then exactly one of Abort or Close. No interleaving: for a
// given Context, Perform is not reentrant, matching the non-reentrant
// spool dname iterator it drives underneath.
type Store interface {
	// StartSession begins recording a difference for apex, from oldSerial
	// to newSerial.
	StartSession(apex dns.Name, oldSerial, newSerial uint32) error

	// AddRR records rr (with its owner name) as present in the new zone
	// but not the old one.
	AddRR(owner dns.Name, rr dns.RR) error

	// DelRR records an RR, identified by its uncompressed rdata bytes
	// rather than a decoded dns.RR, as present in the old zone but not
	// the new one. The raw form is what the spool actually stores; package
	// ixfrstore decides whether and how to re-decode it.
	DelRR(owner dns.Name, typ dns.Type, class dns.Class, ttl uint32, rdataRaw []byte) error

	// Abort discards everything recorded so far. Called when Perform
	// cannot complete the difference; the session commits nothing.
	Abort()

	// Close commits the recorded difference. Called only after a
	// complete, error-free walk.
	Close() error
}

// Context holds the state spanning a spool snapshot's creation and its
// later use to compute a difference: the zone apex and serial the spool
// was taken at, and the spool file's path.
type Context struct {
	apex      dns.Name
	oldSerial uint32
	spoolPath string
}

// Start spools zone's current state to a temporary file beside
// zoneFilePath and returns a Context for later use with Perform. The
// spool file is left on disk; call Cleanup when it is no longer needed
// (normally: after a later Perform, success or failure alike).
func Start(zone dns.Zone, zoneFilePath string, log *zap.SugaredLogger) (*Context, error) {
	oldSerial := zone.CurrentSerial()
	path := ixfrspool.TempPath(zoneFilePath)
	if err := ixfrspool.WriteZone(path, zone, oldSerial, log); err != nil {
		return nil, err
	}
	return &Context{apex: zone.Apex(), oldSerial: oldSerial, spoolPath: path}, nil
}

// Cleanup removes the spool file. It is safe to call more than once.
func (c *Context) Cleanup() {
	os.Remove(c.spoolPath)
}

// Perform reads the spool file and diffs it against zone's current state,
// streaming the result into store. zone must be the same zone Start was
// called with (its apex must match); it is expected to have advanced to a
// new serial since Start ran. An unchanged zone produces no AddRR or DelRR
// calls; the stores in package ixfrstore then fail Close, since such a
// session has no boundary SOA records.
//
// On any failure during the walk the in-progress store session is aborted
// and the error is returned; store.Close is only called after a complete
// walk, and an error from Close is returned without a following Abort.
func (c *Context) Perform(zone dns.Zone, store Store, log *zap.SugaredLogger) (err error) {
	r, err := ixfrspool.Open(c.spoolPath)
	if err != nil {
		return err
	}
	defer r.Close()

	hdr, err := r.ReadHeader()
	if err != nil {
		return err
	}
	if !hdr.Apex.Equal(c.apex) {
		return ixfrerr.Wrap(ixfrerr.KindFormat, "spool %s does not contain the correct zone apex", c.spoolPath)
	}
	if hdr.Serial != c.oldSerial {
		return ixfrerr.Wrap(ixfrerr.KindFormat, "spool %s does not contain the correct zone serial", c.spoolPath)
	}

	newSerial := zone.CurrentSerial()
	if err := store.StartSession(c.apex, c.oldSerial, newSerial); err != nil {
		return err
	}
	closing := false
	defer func() {
		if err != nil && !closing {
			store.Abort()
		}
	}()

	if err := walkZone(r, zone, store); err != nil {
		return err
	}

	if log != nil {
		log.Debugw("computed ixfr difference",
			"apex", c.apex.String(), "oldSerial", c.oldSerial, "newSerial", newSerial)
	}

	closing = true
	return store.Close()
}

// dnameIterator steps through the spool's owner-name stream one name at a
// time, tracking whether the current name has been consumed yet by the
// caller. It is a direct port of the original's spool_dname_iterator:
// read_first/eof/is_processed together let the walk "peek" at the next
// spool owner without losing its place.
type dnameIterator struct {
	r *ixfrspool.Reader

	name      dns.Name
	readFirst bool
	eof       bool
	processed bool
}

func newDnameIterator(r *ixfrspool.Reader) *dnameIterator {
	return &dnameIterator{r: r}
}

func (it *dnameIterator) read() error {
	name, ok, err := it.r.ReadOwnerName()
	if err != nil {
		return err
	}
	if !ok {
		it.eof = true
		it.name = dns.Name{}
		return nil
	}
	it.name = name
	return nil
}

// next ensures it.name holds an unprocessed owner name, reading one from
// the spool if the previously held one has already been marked processed.
// It is a no-op once eof is reached.
func (it *dnameIterator) next() error {
	if it.eof {
		return nil
	}
	if !it.readFirst {
		if err := it.read(); err != nil {
			return err
		}
		it.readFirst = true
		it.processed = false
		return nil
	}
	if !it.processed {
		return nil
	}
	if err := it.read(); err != nil {
		return err
	}
	it.processed = false
	return nil
}

// processSpoolDelRRSet reads rrCount RRs belonging to one already-headered
// RR-set from the spool and records each as deleted.
func processSpoolDelRRSet(r *ixfrspool.Reader, owner dns.Name, typ dns.Type, class dns.Class, rrCount uint16, store Store) error {
	for i := uint16(0); i < rrCount; i++ {
		ttl, rdata, err := r.ReadRR()
		if err != nil {
			return err
		}
		if err := store.DelRR(owner, typ, class, ttl, rdata); err != nil {
			return err
		}
	}
	return nil
}

// processDomainDelRRs reads an entire domain's RR-set blocks from the
// spool and records every RR in them as deleted. Used both for a domain
// that no longer exists at all in the new zone, and for spool domains
// that sort before any remaining new-zone domain.
func processDomainDelRRs(r *ixfrspool.Reader, owner dns.Name, store Store) error {
	count, err := r.ReadRRSetCount()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		h, err := r.ReadRRSetHeader()
		if err != nil {
			return err
		}
		if err := processSpoolDelRRSet(r, owner, h.Type, h.Class, h.RRCount, store); err != nil {
			return err
		}
	}
	return nil
}

// processDomainAddRRs records every RR in every RR-set the new zone holds
// at domain as added. Used when the domain has no counterpart on the
// spool at all.
func processDomainAddRRs(owner dns.Name, domain dns.ZoneDomain, store Store) error {
	for _, s := range domain.RRSets() {
		for _, rr := range s.RRs {
			if err := store.AddRR(owner, rr); err != nil {
				return err
			}
		}
	}
	return nil
}

// processDiffRRSet reads rrCount spooled RRs of one (type, class) and
// compares them against newSet, the same (type, class) RR-set from the
// new zone. A spooled RR present (by ttl + uncompressed rdata) in newSet
// is marked and otherwise ignored; one absent from newSet is a deletion.
// Once every spooled RR has been classified, any newSet member left
// unmarked is an addition.
func processDiffRRSet(r *ixfrspool.Reader, owner dns.Name, typ dns.Type, class dns.Class, rrCount uint16, newSet dns.RRSet, store Store) error {
	marked := make([]bool, len(newSet.RRs))
	for i := uint16(0); i < rrCount; i++ {
		ttl, rdata, err := r.ReadRR()
		if err != nil {
			return err
		}
		found := -1
		for j, rr := range newSet.RRs {
			if !marked[j] && rr.MatchesRaw(ttl, rdata) {
				found = j
				break
			}
		}
		if found >= 0 {
			marked[found] = true
			continue
		}
		if err := store.DelRR(owner, typ, class, ttl, rdata); err != nil {
			return err
		}
	}
	for j, rr := range newSet.RRs {
		if marked[j] {
			continue
		}
		if err := store.AddRR(owner, rr); err != nil {
			return err
		}
	}
	return nil
}

// rrsetKey identifies an RR-set by (type, class), the granularity at
// which the spool groups RRs within a domain.
type rrsetKey struct {
	typ   dns.Type
	class dns.Class
}

func rrsetKeyHash(k rrsetKey) uint64 {
	return uint64(k.typ)<<16 | uint64(k.class)
}

func rrsetKeyEqual(a, b rrsetKey) bool { return a == b }

// buildRRSetIndex hashes domain's RR-sets by (type, class) so
// processDiffDomain can look up the new zone's counterpart to each
// spooled RR-set in constant time rather than rescanning the domain's
// RR-set list once per spooled type. It also drives the "new zone has
// RR-sets this domain never had on the spool" pass via its iterator,
// giving the diff engine, not just the zone-name lookup table in
// dnszone.Container, a concrete use of the shared hash table.
func buildRRSetIndex(domain dns.ZoneDomain) *xhash.Table[rrsetKey, dns.RRSet] {
	sets := domain.RRSets()
	size := len(sets)
	if size == 0 {
		size = 1
	}
	tbl, err := xhash.Create[rrsetKey, dns.RRSet](size, rrsetKeyHash, rrsetKeyEqual)
	if err != nil {
		// size is always >= 1 here; Create only fails on size <= 0.
		panic(err)
	}
	for _, s := range sets {
		tbl.Insert(rrsetKey{s.Type, s.Class}, s, true)
	}
	return tbl
}

// processDiffDomain handles a domain present in both the spool and the
// new zone: every RR-set type recorded on the spool is either diffed
// (if the new zone still has that type at this owner) or wholly deleted
// (if it doesn't); any new-zone RR-set type the spool never saw is
// wholly added.
func processDiffDomain(r *ixfrspool.Reader, owner dns.Name, domain dns.ZoneDomain, store Store) error {
	idx := buildRRSetIndex(domain)

	spoolTypeCount, err := r.ReadRRSetCount()
	if err != nil {
		return err
	}
	marked := make(map[rrsetKey]bool, spoolTypeCount)
	for i := uint32(0); i < spoolTypeCount; i++ {
		h, err := r.ReadRRSetHeader()
		if err != nil {
			return err
		}
		key := rrsetKey{h.Type, h.Class}
		newSet, found := idx.Search(key)
		if !found {
			if err := processSpoolDelRRSet(r, owner, h.Type, h.Class, h.RRCount, store); err != nil {
				return err
			}
			continue
		}
		marked[key] = true
		if err := processDiffRRSet(r, owner, h.Type, h.Class, h.RRCount, newSet, store); err != nil {
			return err
		}
	}

	for e, ok := idx.First(); ok; e, ok = idx.Next() {
		if marked[e.Key] {
			continue
		}
		for _, rr := range e.Val.RRs {
			if err := store.AddRR(owner, rr); err != nil {
				return err
			}
		}
	}
	return nil
}

// processSpoolForDomain aligns the spool's owner stream with one domain
// from the new zone: everything on the spool before it is a deletion,
// the domain itself is either diffed (if the spool has it too) or wholly
// added (if the spool has since skipped past it, meaning it didn't
// previously exist).
func processSpoolForDomain(r *ixfrspool.Reader, it *dnameIterator, domain dns.ZoneDomain, store Store) error {
	owner := domain.Name()
	if err := processSpoolBeforeDomain(r, it, owner, store); err != nil {
		return err
	}
	if it.eof {
		return processDomainAddRRs(owner, domain, store)
	}
	if !it.name.Equal(owner) {
		return processDomainAddRRs(owner, domain, store)
	}
	if err := processDiffDomain(r, owner, domain, store); err != nil {
		return err
	}
	it.processed = true
	return nil
}

// processSpoolBeforeDomain consumes every spool owner that sorts strictly
// before domain, treating each as a wholly deleted domain, stopping as
// soon as the spool's current owner is at or past domain (or the spool is
// exhausted).
func processSpoolBeforeDomain(r *ixfrspool.Reader, it *dnameIterator, domain dns.Name, store Store) error {
	for !it.eof {
		if err := it.next(); err != nil {
			return err
		}
		if it.eof {
			break
		}
		if dns.Compare(it.name, domain) < 0 {
			if err := processDomainDelRRs(r, it.name, store); err != nil {
				return err
			}
			it.processed = true
			continue
		}
		return nil
	}
	return nil
}

// processSpoolRemaining consumes whatever spool owners remain once every
// domain in the new zone has been visited: they sort after the last new
// domain (or the new zone is empty), so every one of them is a wholly
// deleted domain.
func processSpoolRemaining(r *ixfrspool.Reader, it *dnameIterator, store Store) error {
	for !it.eof {
		if err := it.next(); err != nil {
			return err
		}
		if it.eof {
			break
		}
		if err := processDomainDelRRs(r, it.name, store); err != nil {
			return err
		}
		it.processed = true
	}
	return nil
}

// walkZone is the coordinated walk: the new zone's domains, already in
// canonical order, are stepped through once each, each step consuming as
// much of the spool's owner stream as sorts at or before it.
func walkZone(r *ixfrspool.Reader, zone dns.Zone, store Store) error {
	it := newDnameIterator(r)
	for _, domain := range zone.Domains() {
		if err := processSpoolForDomain(r, it, domain, store); err != nil {
			return err
		}
	}
	return processSpoolRemaining(r, it, store)
}
