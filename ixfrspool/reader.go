// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ixfrspool

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/ixfrerr"
)

// Reader streams a spool file back in the same record-by-record order it
// was written: header, then (owner, rrset-count, rrset*) tuples, then the
// zero-length end delimiter. It exposes the same granular primitives the
// original read_spool_* functions did so the diff engine (package
// ixfrdiff) can interleave reads with its own control flow instead of
// materializing the whole spooled zone.
type Reader struct {
	r    *bufio.Reader
	f    *os.File
	path string
}

// Open opens path for streaming read.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ixfrerr.Wrap(ixfrerr.KindIO, "open spool %s for reading: %v", path, err)
	}
	return &Reader{r: bufio.NewReader(f), f: f, path: path}, nil
}

// Close closes the underlying file. It does not unlink it: per spec.md
// section 5, the spool file is left for the caller to remove.
func (r *Reader) Close() error {
	if err := r.f.Close(); err != nil {
		return ixfrerr.Wrap(ixfrerr.KindIO, "close spool %s: %v", r.path, err)
	}
	return nil
}

func (r *Reader) readU16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, ixfrerr.Wrap(ixfrerr.KindIO, "error reading file %s: %v", r.path, err)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (r *Reader) readU32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		return 0, ixfrerr.Wrap(ixfrerr.KindIO, "error reading file %s: %v", r.path, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// readDname reads a length-prefixed dname. A zero length is a valid
// result (ok=false signals the sentinel, not an error) distinguishable
// from any real name, which has wire length >= 1 (the root label alone).
func (r *Reader) readDname() (name dns.Name, ok bool, err error) {
	length, err := r.readU16()
	if err != nil {
		return dns.Name{}, false, err
	}
	if length == 0 {
		return dns.Name{}, false, nil
	}
	if int(length) > dns.MaxNameWire {
		return dns.Name{}, false, ixfrerr.Wrap(ixfrerr.KindFormat, "dname too long in %s: %d", r.path, length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return dns.Name{}, false, ixfrerr.Wrap(ixfrerr.KindIO, "error reading file %s: %v", r.path, err)
	}
	return dns.NameFromWire(buf), true, nil
}

// Header is the spool file's fixed preamble: the zone's apex and the
// serial number it was spooled at.
type Header struct {
	Apex   dns.Name
	Serial uint32
}

// ReadHeader reads the apex and serial at the start of the file.
func (r *Reader) ReadHeader() (Header, error) {
	apex, ok, err := r.readDname()
	if err != nil {
		return Header{}, err
	}
	if !ok {
		return Header{}, ixfrerr.Wrap(ixfrerr.KindFormat, "empty apex in %s", r.path)
	}
	serial, err := r.readU32()
	if err != nil {
		return Header{}, err
	}
	return Header{Apex: apex, Serial: serial}, nil
}

// ReadOwnerName reads the next length-prefixed owner dname. ok is false
// (with no error) once the zero-length end-of-owners sentinel is
// reached.
func (r *Reader) ReadOwnerName() (name dns.Name, ok bool, err error) {
	return r.readDname()
}

// ReadRRSetCount reads the per-owner rrset_count field that precedes that
// owner's RR-set blocks.
func (r *Reader) ReadRRSetCount() (uint32, error) {
	return r.readU32()
}

// RRSetHeader is the fixed header of one RR-set block.
type RRSetHeader struct {
	Type    dns.Type
	Class   dns.Class
	RRCount uint16
}

// ReadRRSetHeader reads one RR-set block's (type, class, rr_count).
func (r *Reader) ReadRRSetHeader() (RRSetHeader, error) {
	tp, err := r.readU16()
	if err != nil {
		return RRSetHeader{}, err
	}
	cl, err := r.readU16()
	if err != nil {
		return RRSetHeader{}, err
	}
	count, err := r.readU16()
	if err != nil {
		return RRSetHeader{}, err
	}
	return RRSetHeader{Type: dns.Type(tp), Class: dns.Class(cl), RRCount: count}, nil
}

// ReadRR reads one RR record: (ttl, rdlen, rdata). The returned rdata
// slice is freshly allocated and safe to retain past the next call.
func (r *Reader) ReadRR() (ttl uint32, rdata []byte, err error) {
	ttl, err = r.readU32()
	if err != nil {
		return 0, nil, err
	}
	rdlen, err := r.readU16()
	if err != nil {
		return 0, nil, err
	}
	buf := make([]byte, rdlen)
	if rdlen > 0 {
		if _, err := io.ReadFull(r.r, buf); err != nil {
			return 0, nil, ixfrerr.Wrap(ixfrerr.KindIO, "error reading file %s: %v", r.path, err)
		}
	}
	return ttl, buf, nil
}

// SkipRRSet consumes and discards the rrCount RR records of an RR-set
// whose header has already been read, without inspecting them. The diff
// engine does not call it: its bulk deletions need each RR's bytes and
// read them with ReadRR in a loop.
func (r *Reader) SkipRRSet(rrCount uint16) error {
	for i := uint16(0); i < rrCount; i++ {
		if _, _, err := r.ReadRR(); err != nil {
			return err
		}
	}
	return nil
}
