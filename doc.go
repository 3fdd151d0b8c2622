// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*

Package ixfrcreate and its subpackages implement RFC 1995 incremental
zone transfer (IXFR) difference generation for an authoritative DNS
server: given a zone's state at some old serial and its state at a new
serial, they compute the minimal set of added and deleted resource
records that turns one into the other, without ever materializing both
zones in memory at once.

This top-level package exists for documentation; the work is split
across subpackages by concern.


Subpackages

The dns subpackage holds the wire-level data model shared by everything
else: canonically comparable domain names (dns.Name), resource records
and RR-sets (dns.RR, dns.RRSet), and the dns.Zone/dns.ZoneDomain
interfaces the diff engine walks.

The dns/dnszone subpackage implements a concrete, mutable, in-memory
zone container on top of that model, plus a Container that answers the
hostname/zone lookups the DNS server needs.

The dns/dnsserver subpackage implements a simple, authoritative DNS
server that answers ordinary queries and full zone transfers (AXFR) for
whatever zones a dnszone.Container holds. Transporting the IXFR
difference itself is out of scope for this subpackage; see ixfrstore.

The xhash subpackage is a generic, fixed-bucket hash table used for zone
and resource-set lookups.

The ixfrspool subpackage serializes a zone snapshot to a temporary file
("spools" it) so the diff engine can later stream it back a domain at a
time, instead of holding two full zones in memory during a diff.

The ixfrdiff subpackage is the diff engine itself: it walks a spooled
snapshot and a zone's current state together, in canonical name order,
and streams the difference into a Store.

The ixfrstore subpackage supplies concrete Store implementations: one
that renders the difference as a packed DNS message ready to serve as an
IXFR response body, and an in-memory one used by tests.

The cmd/ixfrcreate subpackage is a command-line tool that ties all of
the above together: it diffs two zone files and writes the result, or
serves a zone file directly.


Typical use

A long-running server spools its zone before applying a batch of edits,
then diffs the spooled snapshot against the zone's new state once the
edits are committed:

	mgr := ixfrdiff.NewManager(log)

	ctx, err := mgr.Start(zone, zoneFilePath) // spool the old state
	if err != nil {
		return err
	}
	defer ctx.Cleanup()

	// ... apply edits to zone, bump its serial ...

	store := ixfrstore.NewFile(outPath, log)
	if err := ctx.Perform(zone, store, log); err != nil {
		return err
	}

See package ixfrdiff for the full Store contract and package ixfrspool
for the on-disk spool format.

*/
package ixfrcreate
