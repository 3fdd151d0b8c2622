// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ixfrspool_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/dns/dnszone"
	"github.com/tsavola/ixfrcreate/ixfrspool"
)

func mustName(t *testing.T, s string) dns.Name {
	t.Helper()
	n, err := dns.NameFromString(s)
	require.NoError(t, err)
	return n
}

func buildZone(t *testing.T) *dnszone.Zone {
	t.Helper()
	apex := mustName(t, "example.org.")
	z := dnszone.NewZone(apex, 10)

	z.SetRRSet(apex, dns.RRSet{
		Type: dns.TypeSOA, Class: dns.ClassINET,
		RRs: []dns.RR{{
			Owner: apex, Type: dns.TypeSOA, Class: dns.ClassINET, TTL: 3600,
			Rdata: []dns.RdataAtom{
				dns.DomainAtom(mustName(t, "ns1.example.org.")),
				dns.DomainAtom(mustName(t, "hostmaster.example.org.")),
				dns.OpaqueAtom([]byte{0, 0, 0, 10, 0, 0, 14, 16, 0, 0, 3, 132, 0, 9, 58, 128, 0, 0, 0, 60}),
			},
		}},
	})
	www := mustName(t, "www.example.org.")
	z.SetRRSet(www, dns.RRSet{
		Type: dns.TypeA, Class: dns.ClassINET,
		RRs: []dns.RR{{
			Owner: www, Type: dns.TypeA, Class: dns.ClassINET, TTL: 300,
			Rdata: []dns.RdataAtom{dns.OpaqueAtom([]byte{192, 0, 2, 1})},
		}},
	})
	return z
}

func TestWriteReadRoundTrip(t *testing.T) {
	zone := buildZone(t)
	path := filepath.Join(t.TempDir(), "example.org.zone.spoolzone.test")

	require.NoError(t, ixfrspool.WriteZone(path, zone, zone.CurrentSerial(), nil))

	r, err := ixfrspool.Open(path)
	require.NoError(t, err)
	defer r.Close()

	hdr, err := r.ReadHeader()
	require.NoError(t, err)
	require.True(t, hdr.Apex.Equal(zone.Apex()))
	require.EqualValues(t, 10, hdr.Serial)

	var ownersSeen []string
	for {
		name, ok, err := r.ReadOwnerName()
		require.NoError(t, err)
		if !ok {
			break
		}
		ownersSeen = append(ownersSeen, name.String())

		count, err := r.ReadRRSetCount()
		require.NoError(t, err)
		for i := uint32(0); i < count; i++ {
			h, err := r.ReadRRSetHeader()
			require.NoError(t, err)
			require.NoError(t, r.SkipRRSet(h.RRCount))
		}
	}
	require.Len(t, ownersSeen, 2)
	// domains are written in the zone's canonical order: apex before www.
	require.Equal(t, zone.Apex().String(), ownersSeen[0])
}
