// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	miekgdns "github.com/miekg/dns"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/dns/dnszone"
)

// loadZoneFile parses a standard RFC 1035 presentation-format zone file
// into a dnszone.Zone, using the corpus's own zone parser
// (github.com/miekg/dns's ZoneParser) rather than hand-rolling one: the
// diff engine and spool codec operate on the decoded dns.Zone/dns.RR
// model from here on, so this is the one place presentation format is
// ever seen.
//
// The first record in the file must be a SOA record: its owner becomes
// the zone's apex and its serial the zone's initial serial.
func loadZoneFile(path string) (*dnszone.Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zp := miekgdns.NewZoneParser(f, "", path)

	var zone *dnszone.Zone

	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		hdr := rr.Header()

		if zone == nil {
			soa, isSOA := rr.(*miekgdns.SOA)
			if !isSOA {
				return nil, fmt.Errorf("%s: first record must be the apex SOA", path)
			}
			apex, err := dns.NameFromString(hdr.Name)
			if err != nil {
				return nil, err
			}
			zone = dnszone.NewZone(apex, soa.Serial)
		}

		owner, err := dns.NameFromString(hdr.Name)
		if err != nil {
			return nil, err
		}

		converted, err := convertRR(rr)
		if err != nil {
			return nil, err
		}

		typ, class := dns.Type(hdr.Rrtype), dns.Class(hdr.Class)
		set, _ := zone.FindRRSet(owner, typ, class)
		set.Type, set.Class = typ, class
		set.RRs = append(set.RRs, converted)
		zone.SetRRSet(owner, set)
	}
	if err := zp.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if zone == nil {
		return nil, fmt.Errorf("%s: empty zone file", path)
	}
	return zone, nil
}

// convertRR turns a parsed miekg/dns RR into this module's (owner, type,
// class, ttl, rdata) tuple. The rdata is kept as a single opaque atom
// holding its uncompressed wire bytes: package dns only needs to tell
// domain-name atoms apart from opaque ones when it re-renders rdata for
// a specific type (spec.md section 3's rdata_atom_is_domain), and
// nothing downstream of this loader does that for zone-file-sourced
// records, so the uncompressed byte string is sufficient here.
func convertRR(rr miekgdns.RR) (dns.RR, error) {
	hdr := rr.Header()

	owner, err := dns.NameFromString(hdr.Name)
	if err != nil {
		return dns.RR{}, err
	}

	buf := make([]byte, miekgdns.MaxMsgSize)
	off, err := miekgdns.PackRR(rr, buf, 0, nil, false)
	if err != nil {
		return dns.RR{}, fmt.Errorf("pack %s %s: %w", hdr.Name, miekgdns.TypeToString[hdr.Rrtype], err)
	}
	rdlen := int(hdr.Rdlength)
	rdata := append([]byte(nil), buf[off-rdlen:off]...)

	return dns.RR{
		Owner: owner,
		Type:  dns.Type(hdr.Rrtype),
		Class: dns.Class(hdr.Class),
		TTL:   hdr.Ttl,
		Rdata: []dns.RdataAtom{dns.OpaqueAtom(rdata)},
	}, nil
}
