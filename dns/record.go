// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dns

import "bytes"

// Type is the wire-format RR TYPE field (RFC 1035 section 3.2.2). Values
// match the standard IANA assignments.
type Type uint16

const (
	TypeA     Type = 1
	TypeNS    Type = 2
	TypeCNAME Type = 5
	TypeSOA   Type = 6
	TypeTXT   Type = 16
	TypeAAAA  Type = 28
)

// Class is the wire-format RR CLASS field.
type Class uint16

const ClassINET Class = 1

// RdataIsDomain reports whether the i'th rdata field of a record of the
// given type is itself an embedded domain name (subject to wire
// compression on the network, but never on the spool) rather than an
// opaque octet string. This mirrors the external rdata_atom_is_domain
// introspection spec.md's data model assumes the in-memory zone exposes.
func RdataIsDomain(t Type, i int) bool {
	switch t {
	case TypeNS, TypeCNAME:
		return i == 0
	case TypeSOA:
		return i == 0 || i == 1
	default:
		return false
	}
}

// RdataAtom is one structural field of an RR's rdata: either an embedded
// domain name or an opaque length-prefixed octet string.
type RdataAtom struct {
	domain   Name
	data     []byte
	isDomain bool
}

// DomainAtom wraps an embedded domain-name rdata field.
func DomainAtom(n Name) RdataAtom { return RdataAtom{domain: n, isDomain: true} }

// OpaqueAtom wraps a raw octet-string rdata field.
func OpaqueAtom(b []byte) RdataAtom { return RdataAtom{data: append([]byte(nil), b...)} }

func (a RdataAtom) IsDomain() bool { return a.isDomain }
func (a RdataAtom) Domain() Name   { return a.domain }
func (a RdataAtom) Data() []byte   { return a.data }

// uncompressedLen is the atom's length when serialized without name
// compression, i.e. its contribution to rdlen on the spool.
func (a RdataAtom) uncompressedLen() int {
	if a.isDomain {
		return len(a.domain.Wire())
	}
	return len(a.data)
}

func (a RdataAtom) appendUncompressed(buf []byte) []byte {
	if a.isDomain {
		return append(buf, a.domain.Wire()...)
	}
	return append(buf, a.data...)
}

// RR is a single resource record tuple (owner, type, class, ttl, rdata).
type RR struct {
	Owner Name
	Type  Type
	Class Class
	TTL   uint32
	Rdata []RdataAtom
}

// RdataUncompressedLen returns the total rdlen this RR would occupy on the
// spool (uncompressed rdata).
func (rr RR) RdataUncompressedLen() int {
	n := 0
	for _, a := range rr.Rdata {
		n += a.uncompressedLen()
	}
	return n
}

// AppendRdataUncompressed appends the RR's rdata, uncompressed, to buf.
func (rr RR) AppendRdataUncompressed(buf []byte) []byte {
	for _, a := range rr.Rdata {
		buf = a.appendUncompressed(buf)
	}
	return buf
}

// MatchesRaw reports whether this RR's TTL and uncompressed rdata bytes
// are identical to the given (ttl, raw) pair. TTL participates in
// equality: a TTL-only change of an otherwise identical RR must diff as a
// deletion of the old value and an addition of the new one (spec.md
// section 8).
func (rr RR) MatchesRaw(ttl uint32, raw []byte) bool {
	if rr.TTL != ttl {
		return false
	}
	pos := 0
	for _, a := range rr.Rdata {
		n := a.uncompressedLen()
		if pos+n > len(raw) {
			return false
		}
		if a.isDomain {
			if !bytes.Equal(raw[pos:pos+n], a.domain.Wire()) {
				return false
			}
		} else {
			if !bytes.Equal(raw[pos:pos+n], a.data) {
				return false
			}
		}
		pos += n
	}
	return pos == len(raw)
}

// RRSet is all RRs at a single owner sharing (Type, Class). Order of RRs
// within the set is not semantically significant; equality is set
// equality.
type RRSet struct {
	Type  Type
	Class Class
	RRs   []RR
}
