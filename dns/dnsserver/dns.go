// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dnsserver

import (
	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/dns/dnszone"
)

// Resolver can dump host and zone records. It must be instantaneous.
type Resolver interface {
	// ResolveRecords copies a host's RR-sets. It should return an empty
	// node name if and only if the host name doesn't fall into any known
	// zone: unknown node names in known zones must still be returned,
	// without RR-sets.
	//
	// filter selects a single RR type, or every type if filter is zero.
	//
	// serial is the current serial number of the node's zone. It is
	// non-zero for known zones, and zero if zone wasn't found.
	ResolveRecords(hostname string, filter dns.Type) (node string, rrsets []dns.RRSet, serial uint32)

	// TransferZone copies the contents of a domain. The apex owner must
	// be first, if present.
	//
	// serial is the current serial number of the zone. It is non-zero if
	// the zone was found, and zero if not.
	TransferZone(domain string) (zone []dnszone.ZoneDomainPair, serial uint32)
}
