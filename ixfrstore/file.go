// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ixfrstore

import (
	"os"

	miekgdns "github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/ixfrerr"
)

// File is an ixfrdiff.Store that renders a committed difference as a
// wire-format DNS message (question + answer section, no further
// sections) and writes it to Path, for a transfer server to serve
// directly as the body of an IXFR response.
type File struct {
	session

	Path string
	Log  *zap.SugaredLogger
}

// NewFile returns a File store that writes to path on Close.
func NewFile(path string, log *zap.SugaredLogger) *File {
	return &File{Path: path, Log: log}
}

func (f *File) StartSession(apex dns.Name, oldSerial, newSerial uint32) error {
	return f.session.start(apex, oldSerial, newSerial)
}

func (f *File) AddRR(owner dns.Name, rr dns.RR) error {
	return f.session.addRR(owner, rr)
}

func (f *File) DelRR(owner dns.Name, typ dns.Type, class dns.Class, ttl uint32, rdataRaw []byte) error {
	return f.session.delRR(owner, typ, class, ttl, rdataRaw)
}

func (f *File) Abort() {
	f.session.abort()
}

// Close assembles the answer section, packs a DNS message around it, and
// writes the result to Path, truncating any file already there.
func (f *File) Close() error {
	apex := f.apex
	answer, err := f.session.sequenceOrClear()
	if err != nil {
		return err
	}

	msg := new(miekgdns.Msg)
	msg.Question = []miekgdns.Question{{
		Name:   apex.String(),
		Qtype:  miekgdns.TypeIXFR,
		Qclass: miekgdns.ClassINET,
	}}
	msg.Answer = answer
	msg.Response = true

	wire, err := msg.Pack()
	if err != nil {
		return ixfrerr.Wrap(ixfrerr.KindFormat, "pack ixfr message: %v", err)
	}

	if err := os.WriteFile(f.Path, wire, 0o644); err != nil {
		return ixfrerr.Wrap(ixfrerr.KindIO, "write ixfr message %s: %v", f.Path, err)
	}

	if f.Log != nil {
		f.Log.Debugw("wrote ixfr difference message",
			"path", f.Path, "apex", apex.String(), "rrs", len(answer))
	}
	return nil
}
