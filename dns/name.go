// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dns

import (
	miekgdns "github.com/miekg/dns"
)

// MaxNameWire is the maximum wire length of a domain name, in octets,
// including the zero-length root label (RFC 1035 section 3.1).
const MaxNameWire = 255

// Name is a domain name in uncompressed wire format: a sequence of
// length-prefixed labels terminated by the zero-length root label. Names
// are never compressed on the spool, so a Name carries its own bytes
// rather than an offset into a message buffer.
type Name struct {
	wire []byte
}

// NameFromString parses a presentation-format domain name (escaping per
// RFC 1035 section 5.1 is handled by the underlying packer) into its
// canonical wire form.
func NameFromString(s string) (Name, error) {
	buf := make([]byte, MaxNameWire)
	n, err := miekgdns.PackDomainName(miekgdns.Fqdn(s), buf, 0, nil, false)
	if err != nil {
		return Name{}, err
	}
	return Name{wire: append([]byte(nil), buf[:n]...)}, nil
}

// NameFromWire wraps already-packed, uncompressed wire-format octets. The
// caller is responsible for ensuring there is no compression pointer in
// the bytes; the spool format never contains one.
func NameFromWire(wire []byte) Name {
	return Name{wire: append([]byte(nil), wire...)}
}

// Wire returns the uncompressed wire-format octets of the name.
func (n Name) Wire() []byte { return n.wire }

// Empty reports whether the name carries no wire bytes at all (distinct
// from the root name, whose wire form is a single zero octet).
func (n Name) Empty() bool { return len(n.wire) == 0 }

func (n Name) String() string {
	if n.Empty() {
		return ""
	}
	s, _, err := miekgdns.UnpackDomainName(n.wire, 0)
	if err != nil {
		return "(invalid)"
	}
	return s
}

// labels splits the wire form into its labels, excluding the root label.
func (n Name) labels() [][]byte {
	var labels [][]byte
	i := 0
	for i < len(n.wire) {
		l := int(n.wire[i])
		if l == 0 {
			break
		}
		i++
		if i+l > len(n.wire) {
			break
		}
		labels = append(labels, n.wire[i:i+l])
		i += l
	}
	return labels
}

// Compare orders two names in DNS canonical order (RFC 4034 section 6.1):
// label by label from the root end, each label compared octet-wise with
// ASCII letters lowercased. A name with fewer labels than an otherwise
// identical-prefix name sorts first.
func Compare(a, b Name) int {
	la, lb := a.labels(), b.labels()
	ia, ib := len(la)-1, len(lb)-1
	for ia >= 0 && ib >= 0 {
		if c := compareLabel(la[ia], lb[ib]); c != 0 {
			return c
		}
		ia--
		ib--
	}
	switch {
	case len(la) < len(lb):
		return -1
	case len(la) > len(lb):
		return 1
	default:
		return 0
	}
}

func compareLabel(x, y []byte) int {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	for i := 0; i < n; i++ {
		cx, cy := lowerOctet(x[i]), lowerOctet(y[i])
		if cx != cy {
			if cx < cy {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(x) < len(y):
		return -1
	case len(x) > len(y):
		return 1
	default:
		return 0
	}
}

func lowerOctet(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// IsSubdomainOf reports whether n is apex itself or a proper subdomain of
// apex, i.e. apex's labels are a suffix of n's labels.
func (n Name) IsSubdomainOf(apex Name) bool {
	nl, al := n.labels(), apex.labels()
	if len(nl) < len(al) {
		return false
	}
	off := len(nl) - len(al)
	for i, l := range al {
		if compareLabel(nl[off+i], l) != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two names have identical wire bytes after
// case-folding, i.e. Compare(n, other) == 0.
func (n Name) Equal(other Name) bool { return Compare(n, other) == 0 }
