// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ixfrdiff_test

import (
	"encoding/hex"
	"path/filepath"
	"testing"

	miekgdns "github.com/miekg/dns"
	"github.com/stretchr/testify/require"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/dns/dnszone"
	"github.com/tsavola/ixfrcreate/ixfrdiff"
	"github.com/tsavola/ixfrcreate/ixfrstore"
)

func mustName(t *testing.T, s string) dns.Name {
	t.Helper()
	n, err := dns.NameFromString(s)
	require.NoError(t, err)
	return n
}

func soaRRSet(t *testing.T, apex dns.Name, serial uint32) dns.RRSet {
	t.Helper()
	buf := make([]byte, 20)
	buf[3] = byte(serial)
	buf[2] = byte(serial >> 8)
	buf[1] = byte(serial >> 16)
	buf[0] = byte(serial >> 24)
	return dns.RRSet{
		Type: dns.TypeSOA, Class: dns.ClassINET,
		RRs: []dns.RR{{
			Owner: apex, Type: dns.TypeSOA, Class: dns.ClassINET, TTL: 3600,
			Rdata: []dns.RdataAtom{
				dns.DomainAtom(mustName(t, "ns1.example.org.")),
				dns.DomainAtom(mustName(t, "hostmaster.example.org.")),
				dns.OpaqueAtom(buf),
			},
		}},
	}
}

func aRRSet(owner dns.Name, ttl uint32, ip byte) dns.RRSet {
	return dns.RRSet{
		Type: dns.TypeA, Class: dns.ClassINET,
		RRs: []dns.RR{{
			Owner: owner, Type: dns.TypeA, Class: dns.ClassINET, TTL: ttl,
			Rdata: []dns.RdataAtom{dns.OpaqueAtom([]byte{192, 0, 2, ip})},
		}},
	}
}

func newZone(t *testing.T, serial uint32) (*dnszone.Zone, dns.Name) {
	t.Helper()
	apex := mustName(t, "example.org.")
	z := dnszone.NewZone(apex, serial)
	z.SetRRSet(apex, soaRRSet(t, apex, serial))
	return z, apex
}

// TestPerformDetectsAddedOwner covers a domain present in the new zone but
// absent from the spooled snapshot: it must appear wholly as additions.
func TestPerformDetectsAddedOwner(t *testing.T) {
	zone, apex := newZone(t, 10)
	ctx, err := ixfrdiff.Start(zone, spoolBase(t), nil)
	require.NoError(t, err)
	defer ctx.Cleanup()

	www := mustName(t, "www.example.org.")
	zone.SetRRSet(www, aRRSet(www, 300, 1))
	zone.Bump()
	zone.SetRRSet(apex, soaRRSet(t, apex, zone.CurrentSerial()))

	store := new(ixfrstore.Memory)
	require.NoError(t, ctx.Perform(zone, store, nil))

	require.NotEmpty(t, store.Answer)
	require.True(t, containsA(store.Answer, "www.example.org.", 1))
}

// TestPerformDetectsRemovedOwner covers the reverse: an owner present on
// the spool but removed from the new zone entirely.
func TestPerformDetectsRemovedOwner(t *testing.T) {
	zone, apex := newZone(t, 10)
	www := mustName(t, "www.example.org.")
	zone.SetRRSet(www, aRRSet(www, 300, 1))

	ctx, err := ixfrdiff.Start(zone, spoolBase(t), nil)
	require.NoError(t, err)
	defer ctx.Cleanup()

	zone.RemoveRRSet(www, dns.TypeA, dns.ClassINET)
	zone.Bump()
	zone.SetRRSet(apex, soaRRSet(t, apex, zone.CurrentSerial()))

	store := new(ixfrstore.Memory)
	require.NoError(t, ctx.Perform(zone, store, nil))

	require.True(t, containsName(store.Answer, "www.example.org."))
}

// TestPerformOwnerKeptBetweenTwoDeleted covers an owner that survives
// unchanged while its canonical-order neighbors on either side are both
// removed.
func TestPerformOwnerKeptBetweenTwoDeleted(t *testing.T) {
	zone, apex := newZone(t, 10)
	a := mustName(t, "a.example.org.")
	m := mustName(t, "m.example.org.")
	z := mustName(t, "z.example.org.")
	zone.SetRRSet(a, aRRSet(a, 300, 1))
	zone.SetRRSet(m, aRRSet(m, 300, 2))
	zone.SetRRSet(z, aRRSet(z, 300, 3))

	ctx, err := ixfrdiff.Start(zone, spoolBase(t), nil)
	require.NoError(t, err)
	defer ctx.Cleanup()

	zone.RemoveRRSet(a, dns.TypeA, dns.ClassINET)
	zone.RemoveRRSet(z, dns.TypeA, dns.ClassINET)
	zone.Bump()
	zone.SetRRSet(apex, soaRRSet(t, apex, zone.CurrentSerial()))

	store := new(ixfrstore.Memory)
	require.NoError(t, ctx.Perform(zone, store, nil))

	require.True(t, containsName(store.Answer, "a.example.org."))
	require.True(t, containsName(store.Answer, "z.example.org."))
	require.False(t, containsName(store.Answer, "m.example.org."))
	require.False(t, containsA(store.Answer, "m.example.org.", 2))
}

// TestPerformTTLOnlyChange covers the boundary case where only the TTL of
// an otherwise-identical RR changes: it must appear as a deletion of the
// old RR and an addition of the new one, not be treated as unchanged.
func TestPerformTTLOnlyChange(t *testing.T) {
	zone, apex := newZone(t, 10)
	www := mustName(t, "www.example.org.")
	zone.SetRRSet(www, aRRSet(www, 300, 1))

	ctx, err := ixfrdiff.Start(zone, spoolBase(t), nil)
	require.NoError(t, err)
	defer ctx.Cleanup()

	zone.SetRRSet(www, aRRSet(www, 600, 1))
	zone.Bump()
	zone.SetRRSet(apex, soaRRSet(t, apex, zone.CurrentSerial()))

	store := new(ixfrstore.Memory)
	require.NoError(t, ctx.Perform(zone, store, nil))

	foundDel, foundAdd := false, false
	for _, rr := range store.Answer {
		if rr.Header().Name == "www.example.org." && rr.Header().Rrtype == uint16(dns.TypeA) {
			if rr.Header().Ttl == 300 {
				foundDel = true
			}
			if rr.Header().Ttl == 600 {
				foundAdd = true
			}
		}
	}
	require.True(t, foundDel, "old TTL value should be deleted")
	require.True(t, foundAdd, "new TTL value should be added")
}

// TestPerformIdenticalZonesProducesNoOwnerChanges covers the no-op
// boundary: nothing but the SOA differs between old and new.
func TestPerformIdenticalZonesProducesNoOwnerChanges(t *testing.T) {
	zone, apex := newZone(t, 10)
	www := mustName(t, "www.example.org.")
	zone.SetRRSet(www, aRRSet(www, 300, 1))

	ctx, err := ixfrdiff.Start(zone, spoolBase(t), nil)
	require.NoError(t, err)
	defer ctx.Cleanup()

	zone.Bump()
	zone.SetRRSet(apex, soaRRSet(t, apex, zone.CurrentSerial()))

	store := new(ixfrstore.Memory)
	require.NoError(t, ctx.Perform(zone, store, nil))

	require.False(t, containsName(store.Answer, "www.example.org."),
		"an owner identical in both zones must not appear in the difference at all")
	require.Equal(t, 0, store.Aborted)
}

func containsName(answer []miekgdns.RR, owner string) bool {
	for _, rr := range answer {
		if rr.Header().Name == owner {
			return true
		}
	}
	return false
}

func spoolBase(t *testing.T) string {
	return filepath.Join(t.TempDir(), "example.org.zone")
}

func containsA(answer []miekgdns.RR, owner string, lastOctet byte) bool {
	for _, rr := range answer {
		r, ok := rr.(*miekgdns.RFC3597)
		if !ok || r.Header().Name != owner || r.Header().Rrtype != uint16(dns.TypeA) {
			continue
		}
		raw, err := hex.DecodeString(r.Rdata)
		if err == nil && len(raw) == 4 && raw[3] == lastOctet {
			return true
		}
	}
	return false
}

