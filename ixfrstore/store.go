// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ixfrstore implements ixfrdiff.Store: the sink the difference
// walk streams added and deleted RRs into, and the code that assembles
// those into an RFC 1995 IXFR response message.
//
// A difference's wire form is: the new SOA (announcing the version being
// transferred), then one "sequence" per version jump consisting of the
// old SOA, the RRs deleted since that version, the new SOA again, and the
// RRs added since that version, and finally the new SOA once more to
// close the message. This package only ever diffs a single version jump
// (old serial to current serial), so a session produces exactly one
// sequence.
package ixfrstore

import (
	"encoding/hex"

	miekgdns "github.com/miekg/dns"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/ixfrerr"
)

// rr converts a recorded (owner, type, class, ttl, raw rdata) tuple into a
// miekg/dns RR using the RFC3597 "unknown type" wire encoding, which
// packs its Rdata hex string as raw octets regardless of the declared
// type. This lets the store render any RR type present on the spool or in
// the zone without a type-specific rdata encoder for each of them.
func rr(owner dns.Name, typ dns.Type, class dns.Class, ttl uint32, raw []byte) *miekgdns.RFC3597 {
	return &miekgdns.RFC3597{
		Hdr: miekgdns.RR_Header{
			Name:   owner.String(),
			Rrtype: uint16(typ),
			Class:  uint16(class),
			Ttl:    ttl,
		},
		Rdata: hex.EncodeToString(raw),
	}
}

// session accumulates one StartSession..Close/Abort cycle's worth of RRs,
// shared by File and Memory.
type session struct {
	apex      dns.Name
	oldSerial uint32
	newSerial uint32
	oldSOA    *miekgdns.RFC3597
	newSOA    *miekgdns.RFC3597
	dels      []*miekgdns.RFC3597
	adds      []*miekgdns.RFC3597
	started   bool
}

func (s *session) start(apex dns.Name, oldSerial, newSerial uint32) error {
	*s = session{apex: apex, oldSerial: oldSerial, newSerial: newSerial, started: true}
	return nil
}

func (s *session) addRR(owner dns.Name, r dns.RR) error {
	if !s.started {
		return ixfrerr.Wrap(ixfrerr.KindLogic, "AddRR called without a started session")
	}
	raw := r.AppendRdataUncompressed(nil)
	rec := rr(owner, r.Type, r.Class, r.TTL, raw)
	if r.Type == dns.TypeSOA && owner.Equal(s.apex) {
		s.newSOA = rec
		return nil
	}
	s.adds = append(s.adds, rec)
	return nil
}

func (s *session) delRR(owner dns.Name, typ dns.Type, class dns.Class, ttl uint32, rdataRaw []byte) error {
	if !s.started {
		return ixfrerr.Wrap(ixfrerr.KindLogic, "DelRR called without a started session")
	}
	rec := rr(owner, typ, class, ttl, rdataRaw)
	if typ == dns.TypeSOA && owner.Equal(s.apex) {
		s.oldSOA = rec
		return nil
	}
	s.dels = append(s.dels, rec)
	return nil
}

func (s *session) abort() {
	*s = session{}
}

// sequenceOrClear validates that both boundary SOAs were recorded (every
// well-formed difference has one) and returns the assembled answer
// section, clearing s. A session in which the apex SOA did not change,
// such as the diff of an unchanged zone, has no boundary SOAs and fails
// here with a logic error.
func (s *session) sequenceOrClear() ([]miekgdns.RR, error) {
	if s.oldSOA == nil || s.newSOA == nil {
		s.abort()
		return nil, ixfrerr.Wrap(ixfrerr.KindLogic, "difference is missing its boundary SOA record")
	}
	answer := make([]miekgdns.RR, 0, 3+len(s.dels)+len(s.adds))
	answer = append(answer, s.newSOA)
	answer = append(answer, s.oldSOA)
	for _, d := range s.dels {
		answer = append(answer, d)
	}
	answer = append(answer, s.newSOA)
	for _, a := range s.adds {
		answer = append(answer, a)
	}
	answer = append(answer, s.newSOA)
	*s = session{}
	return answer, nil
}
