// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ixfrspool implements the zone spool codec (module S of
// spec.md section 4.2): it serializes a zone snapshot to a file the IXFR
// diff engine later streams back, RR-set block by RR-set block.
//
// All integers are little-endian. spec.md section 6.1 permits matching
// the original host-endian behavior when interop isn't required, but
// recommends pinning the format; this implementation pins it, since the
// spool is created and consumed by the very same binary and there is no
// reason to inherit host-order ambiguity.
package ixfrspool

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/ixfrerr"
)

// MaxRdlength bounds a single RR's rdata on the spool, per the protocol's
// 16-bit rdlen field (spec.md section 4.3, "Boundedness").
const MaxRdlength = 65535

// spoolSeq supplements the pid in TempPath with a monotonic per-process
// counter, closing the hazard spec.md section 9 documents: "a second
// ixfr_create_start for the same zone in the same process will collide
// on <zone>.spoolzone.<pid>".
var spoolSeq uint64

// TempPath builds a spool file path for zoneFilePath, unique per
// (pid, process-lifetime call count).
func TempPath(zoneFilePath string) string {
	seq := atomic.AddUint64(&spoolSeq, 1)
	return fmt.Sprintf("%s.spoolzone.%d.%d", zoneFilePath, os.Getpid(), seq)
}

// WriteZone serializes zone to path as of the given serial, truncating
// any existing file at that path. serial is passed explicitly (rather
// than re-read from zone) so the caller can guarantee it matches the
// serial it records alongside the spool path, as ixfrdiff.Start does in
// the Context it returns.
func WriteZone(path string, zone dns.Zone, serial uint32, log *zap.SugaredLogger) (err error) {
	f, ferr := os.Create(path)
	if ferr != nil {
		return ixfrerr.Wrap(ixfrerr.KindIO, "open spool %s for writing: %v", path, ferr)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = ixfrerr.Wrap(ixfrerr.KindIO, "close spool %s: %v", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)

	if err = writeDname(w, zone.Apex()); err != nil {
		return err
	}
	if err = writeU32(w, serial); err != nil {
		return err
	}

	var domainCount, rrCount int
	for _, d := range zone.Domains() {
		sets := d.RRSets()
		if len(sets) == 0 {
			continue
		}
		if err = writeDname(w, d.Name()); err != nil {
			return err
		}
		if err = writeU32(w, uint32(len(sets))); err != nil {
			return err
		}
		for _, s := range sets {
			if err = writeRRSet(w, s); err != nil {
				return err
			}
			rrCount += len(s.RRs)
		}
		domainCount++
	}

	if err = writeU16(w, 0); err != nil { // end delimiter: zero-length dname
		return err
	}
	if err = w.Flush(); err != nil {
		return ixfrerr.Wrap(ixfrerr.KindIO, "flush spool %s: %v", path, err)
	}

	if log != nil {
		log.Debugw("spooled zone snapshot",
			"path", path, "apex", zone.Apex().String(), "serial", serial,
			"domains", domainCount, "rrs", rrCount)
	}
	return nil
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return ixfrerr.Wrap(ixfrerr.KindIO, "short write: %v", err)
	}
	return nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return ixfrerr.Wrap(ixfrerr.KindIO, "short write: %v", err)
	}
	return nil
}

func writeDname(w io.Writer, n dns.Name) error {
	wire := n.Wire()
	if len(wire) > dns.MaxNameWire {
		return ixfrerr.Wrap(ixfrerr.KindFormat, "dname too long: %d octets", len(wire))
	}
	if err := writeU16(w, uint16(len(wire))); err != nil {
		return err
	}
	if _, err := w.Write(wire); err != nil {
		return ixfrerr.Wrap(ixfrerr.KindIO, "short write: %v", err)
	}
	return nil
}

func writeRRSet(w io.Writer, s dns.RRSet) error {
	if len(s.RRs) == 0 {
		return nil
	}
	if err := writeU16(w, uint16(s.Type)); err != nil {
		return err
	}
	if err := writeU16(w, uint16(s.Class)); err != nil {
		return err
	}
	if err := writeU16(w, uint16(len(s.RRs))); err != nil {
		return err
	}
	for _, rr := range s.RRs {
		if err := writeRR(w, rr); err != nil {
			return err
		}
	}
	return nil
}

func writeRR(w io.Writer, rr dns.RR) error {
	if err := writeU32(w, rr.TTL); err != nil {
		return err
	}
	rdlen := rr.RdataUncompressedLen()
	if rdlen > MaxRdlength {
		return ixfrerr.Wrap(ixfrerr.KindFormat, "rdata too long: %d octets", rdlen)
	}
	if err := writeU16(w, uint16(rdlen)); err != nil {
		return err
	}
	buf := rr.AppendRdataUncompressed(make([]byte, 0, rdlen))
	if _, err := w.Write(buf); err != nil {
		return ixfrerr.Wrap(ixfrerr.KindIO, "short write: %v", err)
	}
	return nil
}
