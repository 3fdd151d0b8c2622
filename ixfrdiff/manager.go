// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ixfrdiff

import (
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/tsavola/ixfrcreate/dns"
)

// Manager serializes concurrent Start calls for the same zone file, so a
// reload storm never spools the same zone to disk twice in parallel (and
// never races two Start calls over the same TempPath sequence number for
// no reason). It does not serialize Perform: once a Context exists, a
// Perform against it is independent of any other zone's traffic.
type Manager struct {
	group singleflight.Group
	log   *zap.SugaredLogger
}

// NewManager returns a Manager that logs through log, which may be nil.
func NewManager(log *zap.SugaredLogger) *Manager {
	return &Manager{log: log}
}

// Start spools zone to a new temporary file beside zoneFilePath, coalescing
// concurrent calls that share zoneFilePath into a single spool write: only
// the first caller actually spools, and every caller in the batch receives
// that one Context.
func (m *Manager) Start(zone dns.Zone, zoneFilePath string) (*Context, error) {
	v, err, _ := m.group.Do(zoneFilePath, func() (interface{}, error) {
		return Start(zone, zoneFilePath, m.log)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Context), nil
}
