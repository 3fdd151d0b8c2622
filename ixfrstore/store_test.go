// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ixfrstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/ixfrstore"
)

func mustName(t *testing.T, s string) dns.Name {
	t.Helper()
	n, err := dns.NameFromString(s)
	require.NoError(t, err)
	return n
}

func TestMemoryCloseWithoutBoundarySOAsFails(t *testing.T) {
	apex := mustName(t, "example.org.")
	m := new(ixfrstore.Memory)
	require.NoError(t, m.StartSession(apex, 1, 2))
	require.Error(t, m.Close())
}

func TestMemorySequenceOrdering(t *testing.T) {
	apex := mustName(t, "example.org.")
	www := mustName(t, "www.example.org.")

	m := new(ixfrstore.Memory)
	require.NoError(t, m.StartSession(apex, 1, 2))

	oldSOA := dns.RR{Owner: apex, Type: dns.TypeSOA, Class: dns.ClassINET, TTL: 3600,
		Rdata: []dns.RdataAtom{dns.OpaqueAtom([]byte{0, 0, 0, 1})}}
	newSOA := dns.RR{Owner: apex, Type: dns.TypeSOA, Class: dns.ClassINET, TTL: 3600,
		Rdata: []dns.RdataAtom{dns.OpaqueAtom([]byte{0, 0, 0, 2})}}

	require.NoError(t, m.DelRR(apex, dns.TypeSOA, dns.ClassINET, 3600, oldSOA.AppendRdataUncompressed(nil)))
	require.NoError(t, m.DelRR(www, dns.TypeA, dns.ClassINET, 300, []byte{192, 0, 2, 1}))
	require.NoError(t, m.AddRR(apex, newSOA))
	require.NoError(t, m.AddRR(www, dns.RR{Owner: www, Type: dns.TypeA, Class: dns.ClassINET, TTL: 600,
		Rdata: []dns.RdataAtom{dns.OpaqueAtom([]byte{192, 0, 2, 2})}}))

	require.NoError(t, m.Close())
	require.Len(t, m.Answer, 6)

	// new SOA, old SOA, <deleted>, new SOA, <added>, new SOA
	require.EqualValues(t, dns.TypeSOA, m.Answer[0].Header().Rrtype)
	require.EqualValues(t, dns.TypeSOA, m.Answer[1].Header().Rrtype)
	require.EqualValues(t, dns.TypeA, m.Answer[2].Header().Rrtype)
	require.EqualValues(t, dns.TypeSOA, m.Answer[3].Header().Rrtype)
	require.EqualValues(t, dns.TypeA, m.Answer[4].Header().Rrtype)
	require.EqualValues(t, dns.TypeSOA, m.Answer[5].Header().Rrtype)
}

func TestMemoryAbortDiscardsSession(t *testing.T) {
	apex := mustName(t, "example.org.")
	m := new(ixfrstore.Memory)
	require.NoError(t, m.StartSession(apex, 1, 2))
	require.NoError(t, m.AddRR(apex, dns.RR{Owner: apex, Type: dns.TypeA, Class: dns.ClassINET, TTL: 300,
		Rdata: []dns.RdataAtom{dns.OpaqueAtom([]byte{192, 0, 2, 1})}}))
	m.Abort()
	require.Equal(t, 1, m.Aborted)
	require.Nil(t, m.Answer)
}
