// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dns_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsavola/ixfrcreate/dns"
)

func mustName(t *testing.T, s string) dns.Name {
	t.Helper()
	n, err := dns.NameFromString(s)
	require.NoError(t, err)
	return n
}

func TestCompareCanonicalOrder(t *testing.T) {
	// RFC 4034 section 6.1's own example, reordered here into ascending
	// canonical order.
	names := []string{
		"example.",
		"a.example.",
		"yljkjljk.a.example.",
		"Z.a.example.",
		"zABC.a.EXAMPLE.",
		"z.example.",
		"\001.z.example.",
		"*.z.example.",
		"\200.z.example.",
	}
	for i := 1; i < len(names); i++ {
		a, b := mustName(t, names[i-1]), mustName(t, names[i])
		require.Negativef(t, dns.Compare(a, b), "%q should sort before %q", names[i-1], names[i])
		require.Positivef(t, dns.Compare(b, a), "%q should sort after %q", names[i], names[i-1])
	}
}

func TestCompareCaseInsensitive(t *testing.T) {
	a := mustName(t, "WWW.Example.ORG.")
	b := mustName(t, "www.example.org.")
	require.Zero(t, dns.Compare(a, b))
	require.True(t, a.Equal(b))
}

func TestCompareShorterPrefixWins(t *testing.T) {
	a := mustName(t, "example.org.")
	b := mustName(t, "www.example.org.")
	require.Negative(t, dns.Compare(a, b))
}

func TestIsSubdomainOf(t *testing.T) {
	apex := mustName(t, "example.org.")
	require.True(t, mustName(t, "www.example.org.").IsSubdomainOf(apex))
	require.True(t, apex.IsSubdomainOf(apex))
	require.False(t, mustName(t, "example.com.").IsSubdomainOf(apex))
	require.False(t, mustName(t, "notexample.org.").IsSubdomainOf(apex))
}

func TestNameFromWireRoundTrip(t *testing.T) {
	n := mustName(t, "a.b.example.org.")
	wire := n.Wire()
	n2 := dns.NameFromWire(wire)
	require.True(t, n.Equal(n2))
	require.Equal(t, wire, n2.Wire())
}
