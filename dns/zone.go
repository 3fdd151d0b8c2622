// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dns

// Zone is the in-memory zone collaborator consumed by the spool writer
// and the IXFR diff engine. spec.md treats the zone database as an
// external component and specifies only this interface; dnszone.Zone is
// the concrete implementation provided in this repository so the diff
// engine has something real to walk in tests.
type Zone interface {
	// Apex returns the zone's apex name.
	Apex() Name

	// CurrentSerial returns the zone's current SOA serial number.
	CurrentSerial() uint32

	// Domains returns the zone's domains in strict canonical name order,
	// restricted to the apex and its subdomains that carry at least one
	// RR-set belonging to this zone. No owner repeats.
	Domains() []ZoneDomain
}

// ZoneDomain is one domain (owner name) within a Zone's walk.
type ZoneDomain interface {
	// Name returns the owner name of this domain.
	Name() Name

	// RRSets returns the RR-set chain at this owner belonging to the
	// zone, in no particular order. Each (Type, Class) pair appears at
	// most once.
	RRSets() []RRSet
}
