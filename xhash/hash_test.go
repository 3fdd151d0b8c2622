// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xhash_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsavola/ixfrcreate/xhash"
)

func fnv1a(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func eqString(a, b string) bool { return a == b }

func TestCreateRejectsZeroSize(t *testing.T) {
	_, err := xhash.Create[string, int](0, fnv1a, eqString)
	require.ErrorIs(t, err, xhash.ErrInvalidSize)
}

func TestInsertSearchDistinctKeys(t *testing.T) {
	tbl, err := xhash.Create[string, int](4, fnv1a, eqString)
	require.NoError(t, err)

	keys := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	for i, k := range keys {
		ok := tbl.Insert(k, i, false)
		require.True(t, ok)
	}
	require.Equal(t, len(keys), tbl.Count())

	for i, k := range keys {
		v, ok := tbl.Search(k)
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestInsertNoOverwriteLeavesValueUnchanged(t *testing.T) {
	tbl, err := xhash.Create[string, int](4, fnv1a, eqString)
	require.NoError(t, err)

	require.True(t, tbl.Insert("k", 1, false))
	ok := tbl.Insert("k", 2, false)
	require.False(t, ok)

	v, found := tbl.Search("k")
	require.True(t, found)
	require.Equal(t, 1, v)
	require.Equal(t, 1, tbl.Count())
}

func TestInsertOverwriteUpdatesValueNotCount(t *testing.T) {
	tbl, err := xhash.Create[string, int](4, fnv1a, eqString)
	require.NoError(t, err)

	require.True(t, tbl.Insert("k", 1, true))
	require.True(t, tbl.Insert("k", 2, true))

	v, found := tbl.Search("k")
	require.True(t, found)
	require.Equal(t, 2, v)
	require.Equal(t, 1, tbl.Count())
}

// TestDuplicateKeyOverwriteInChain exercises the case the original source
// got wrong: a duplicate key found partway down a collision chain. The
// overwrite must land on the matched node, not its successor.
func TestDuplicateKeyOverwriteInChain(t *testing.T) {
	// Bucket count of 1 forces every key into the same chain.
	tbl, err := xhash.Create[string, int](1, fnv1a, eqString)
	require.NoError(t, err)

	require.True(t, tbl.Insert("a", 1, true))
	require.True(t, tbl.Insert("b", 2, true))
	require.True(t, tbl.Insert("c", 3, true))
	require.Equal(t, 3, tbl.Count())
	require.Equal(t, 2, tbl.Collisions())

	require.True(t, tbl.Insert("b", 20, true))
	require.Equal(t, 3, tbl.Count())
	require.Equal(t, 2, tbl.Collisions())

	for k, want := range map[string]int{"a": 1, "b": 20, "c": 3} {
		v, ok := tbl.Search(k)
		require.True(t, ok)
		require.Equal(t, want, v)
	}
}

func TestIterationVisitsEveryNodeOnce(t *testing.T) {
	tbl, err := xhash.Create[string, int](3, fnv1a, eqString)
	require.NoError(t, err)

	keys := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i, k := range keys {
		require.True(t, tbl.Insert(k, i, false))
	}

	seen := make(map[string]bool)
	visits := 0
	for e, ok := tbl.First(); ok; e, ok = tbl.Next() {
		require.False(t, seen[e.Key], "key %q visited twice", e.Key)
		seen[e.Key] = true
		visits++
	}

	require.Equal(t, tbl.Count(), visits)
	require.Equal(t, len(keys), visits)
}

func TestFirstOnEmptyTable(t *testing.T) {
	tbl, err := xhash.Create[string, int](4, fnv1a, eqString)
	require.NoError(t, err)

	_, ok := tbl.First()
	require.False(t, ok)
}

func TestCollisionsCountsOnlyChainExtensions(t *testing.T) {
	tbl, err := xhash.Create[string, int](1, fnv1a, eqString)
	require.NoError(t, err)

	require.True(t, tbl.Insert("a", 1, true))
	require.Equal(t, 0, tbl.Collisions())

	require.True(t, tbl.Insert("a", 2, true)) // overwrite, not a collision
	require.Equal(t, 0, tbl.Collisions())

	require.True(t, tbl.Insert("b", 3, true)) // new key, same bucket: collision
	require.Equal(t, 1, tbl.Collisions())
}
