// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xhash implements a fixed-size, open-hashed, separately-chained
// associative container, generic over key and value type. It is a direct
// port of NLnet Labs' nsd hash.c (see original_source/hash.c), adapted to
// Go generics per that source's own design note: in a language with
// generics, the caller-supplied allocator knob disappears and the
// caller-supplied hash/equality functions become type parameters' worth
// of ordinary closures.
//
// The bucket count is fixed at Create time; there is no automatic
// growth. Each bucket's first entry is stored inline (not behind a
// pointer); only collisions allocate a chain link. This preserves the
// original's "half the allocator traffic on low-collision workloads"
// property, observable via Collisions.
package xhash

import "errors"

// ErrInvalidSize is returned by Create when size == 0.
var ErrInvalidSize = errors.New("xhash: size must be > 0")

type node[K any, V any] struct {
	key  K
	val  V
	next *node[K, V]
}

type bucket[K any, V any] struct {
	node[K, V]
	occupied bool
}

// Table is a fixed-bucket, separately-chained hash table. The zero value
// is not usable; construct one with Create.
//
// Table is not safe for concurrent use, and its iterator (First/Next) is
// embedded in the table itself: concurrent iterations on the same table
// alias the same cursor, and mutating the table while an iteration is in
// progress is undefined, exactly as in the original C implementation.
type Table[K any, V any] struct {
	buckets []bucket[K, V]
	hash    func(K) uint64
	equal   func(a, b K) bool

	count      int
	collisions int

	curBucket int
	curNode   *node[K, V]
}

// Create allocates a table of the given fixed bucket count. size == 0 is
// rejected with ErrInvalidSize.
func Create[K any, V any](size int, hash func(K) uint64, equal func(a, b K) bool) (*Table[K, V], error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	return &Table[K, V]{
		buckets: make([]bucket[K, V], size),
		hash:    hash,
		equal:   equal,
	}, nil
}

// New is an alias for Create, for callers that prefer a constructor name
// without an error-on-invalid-argument connotation at the call site.
func New[K any, V any](size int, hash func(K) uint64, equal func(a, b K) bool) (*Table[K, V], error) {
	return Create[K, V](size, hash, equal)
}

func (t *Table[K, V]) bucketFor(key K) *bucket[K, V] {
	idx := t.hash(key) % uint64(len(t.buckets))
	return &t.buckets[idx]
}

// Insert adds key/value to the table.
//
// If the bucket is empty, it occupies the inline head. Otherwise the
// chain is scanned for a key-equal node:
//   - if found and overwrite is true, that node's key and value are
//     replaced in place and Insert returns true. (The original C source
//     has a latent bug here: it mutates node->next's key/data instead of
//     the matched node's, silently corrupting the chain. This
//     implementation mutates the matched node itself, as spec.md section
//     4.1 mandates.)
//   - if found and overwrite is false, Insert returns false without
//     modifying anything.
//   - if no match is found by the end of the chain, a new link node is
//     appended, Count and Collisions both increase, and Insert returns
//     true.
func (t *Table[K, V]) Insert(key K, val V, overwrite bool) bool {
	head := t.bucketFor(key)
	if !head.occupied {
		head.key, head.val, head.occupied = key, val, true
		t.count++
		return true
	}

	n := &head.node
	for {
		if t.equal(key, n.key) {
			if !overwrite {
				return false
			}
			n.key, n.val = key, val
			return true
		}
		if n.next == nil {
			break
		}
		n = n.next
	}

	n.next = &node[K, V]{key: key, val: val}
	t.count++
	t.collisions++
	return true
}

// Search walks the bucket chain for key, returning its value and true on
// a match, or the zero value and false if key is absent. An empty bucket
// head terminates the search immediately.
func (t *Table[K, V]) Search(key K) (V, bool) {
	head := t.bucketFor(key)
	if !head.occupied {
		var zero V
		return zero, false
	}
	for n := &head.node; n != nil; n = n.next {
		if t.equal(key, n.key) {
			return n.val, true
		}
	}
	var zero V
	return zero, false
}

// Count returns the number of distinct keys currently stored.
func (t *Table[K, V]) Count() int { return t.count }

// Collisions returns the number of entries that required a chain
// extension beyond the bucket's inline head, i.e. true collisions. It
// does not increase on a duplicate-key overwrite.
func (t *Table[K, V]) Collisions() int { return t.collisions }

// Entry is one key/value pair yielded by First/Next.
type Entry[K any, V any] struct {
	Key K
	Val V
}

// First resets the table's embedded iteration cursor to the first
// occupied bucket and returns its entry. It returns false if the table is
// empty.
//
// Iteration is not re-entrant: First/Next share state with the table
// itself, so two concurrent walks of the same Table interfere with each
// other.
func (t *Table[K, V]) First() (Entry[K, V], bool) {
	for i := range t.buckets {
		if t.buckets[i].occupied {
			t.curBucket = i
			t.curNode = &t.buckets[i].node
			return Entry[K, V]{t.curNode.key, t.curNode.val}, true
		}
	}
	t.curNode = nil
	var zero Entry[K, V]
	return zero, false
}

// Next advances the cursor established by First and returns the next
// entry, following the current bucket's chain before moving on to
// subsequent buckets. It returns false once every occupied node has been
// visited.
func (t *Table[K, V]) Next() (Entry[K, V], bool) {
	if t.curNode == nil {
		var zero Entry[K, V]
		return zero, false
	}
	if t.curNode.next != nil {
		t.curNode = t.curNode.next
		return Entry[K, V]{t.curNode.key, t.curNode.val}, true
	}

	t.curBucket++
	for t.curBucket < len(t.buckets) {
		if t.buckets[t.curBucket].occupied {
			t.curNode = &t.buckets[t.curBucket].node
			return Entry[K, V]{t.curNode.key, t.curNode.val}, true
		}
		t.curBucket++
	}
	t.curNode = nil
	var zero Entry[K, V]
	return zero, false
}

// Destroy releases the table's contents. Go's garbage collector reclaims
// the backing memory; Destroy exists for API symmetry with the original
// hash_destroy(table, free_keys, free_values) and to drop references
// promptly rather than waiting for the Table itself to become
// unreachable.
func (t *Table[K, V]) Destroy() {
	t.buckets = nil
	t.count = 0
	t.collisions = 0
	t.curNode = nil
}
