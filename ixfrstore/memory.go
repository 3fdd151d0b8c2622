// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ixfrstore

import (
	miekgdns "github.com/miekg/dns"

	"github.com/tsavola/ixfrcreate/dns"
)

// Memory is an in-memory ixfrdiff.Store, primarily useful for tests:
// Close exposes the resulting IXFR answer section directly rather than
// writing it anywhere.
type Memory struct {
	session

	// Answer holds the most recently committed difference's answer
	// section, in RFC 1995 wire order, after a successful Close.
	Answer []miekgdns.RR

	// Aborted counts how many sessions ended in Abort rather than Close,
	// for tests asserting that a failing diff never commits anything.
	Aborted int
}

func (m *Memory) StartSession(apex dns.Name, oldSerial, newSerial uint32) error {
	return m.session.start(apex, oldSerial, newSerial)
}

func (m *Memory) AddRR(owner dns.Name, rr dns.RR) error {
	return m.session.addRR(owner, rr)
}

func (m *Memory) DelRR(owner dns.Name, typ dns.Type, class dns.Class, ttl uint32, rdataRaw []byte) error {
	return m.session.delRR(owner, typ, class, ttl, rdataRaw)
}

func (m *Memory) Abort() {
	m.session.abort()
	m.Aborted++
}

func (m *Memory) Close() error {
	answer, err := m.session.sequenceOrClear()
	if err != nil {
		return err
	}
	m.Answer = answer
	return nil
}
