// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ixfrdiff_test

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsavola/ixfrcreate/ixfrdiff"
)

// TestManagerCoalescesConcurrentStart drives a reload-storm scenario: many
// goroutines race to spool the same zone file at once. Only one should
// actually hit disk; every caller must get that one Context back.
func TestManagerCoalescesConcurrentStart(t *testing.T) {
	zone, _ := newZone(t, 10)
	path := spoolBase(t)

	mgr := ixfrdiff.NewManager(nil)

	const callers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	results := make([]*ixfrdiff.Context, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = mgr.Start(zone, path)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Same(t, results[0], results[i], "caller %d got a different Context", i)
	}
	results[0].Cleanup()

	spooled, err := filepath.Glob(path + ".spoolzone.*")
	require.NoError(t, err)
	require.Lenf(t, spooled, 1, "expected exactly one spool file, got %v", spooled)
}
