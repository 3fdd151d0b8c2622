// Copyright (c) 2018 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dnsserver implements a simple, authoritative DNS server. It is
// built upon https://github.com/miekg/dns.
//
// See the top-level package for general documentation.
package dnsserver

import (
	"context"
	"encoding/hex"
	"net"
	"strings"

	miekgdns "github.com/miekg/dns"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tsavola/ixfrcreate/dns"
	"github.com/tsavola/ixfrcreate/dns/dnszone"
)

const (
	// Serial number used for negative answers.
	defaultSerial = 1
)

// Config of DNS server.
type Config struct {
	Addr  string // Defaults to ":dns"
	NoTCP bool
	NoUDP bool

	ErrorLog *zap.SugaredLogger // Defaults to zap.S()
	DebugLog *zap.SugaredLogger // Defaults to nil (no debug logging)

	// If provided, this channel will be closed once all listeners are ready.
	Ready chan struct{}

	// If the NS field of SOA is set, the name server will be authoritative and
	// NS and SOA records are returned.
	SOA SOA
}

// Serve DNS requests for the duration of the context. Resolver implementation
// effectively defines the zones. Configuration is optional.
func Serve(ctx context.Context, resolver Resolver, serverConfig *Config) (err error) {
	var config Config

	if serverConfig != nil {
		config = *serverConfig
	}

	if config.ErrorLog == nil {
		config.ErrorLog = zap.S().Named("dnsserver")
	}

	if config.Addr == "" {
		config.Addr = ":dns"
	}

	if err = config.SOA.init(); err != nil {
		return
	}

	handler := miekgdns.HandlerFunc(func(w miekgdns.ResponseWriter, m *miekgdns.Msg) {
		handle(w, m, resolver, &config.SOA, config.ErrorLog, config.DebugLog)
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	if !config.NoTCP {
		var l net.Listener

		l, err = net.Listen("tcp", config.Addr)
		if err != nil {
			return
		}

		group.Go(func() error {
			<-ctx.Done()
			return l.Close()
		})
		group.Go(func() error {
			return miekgdns.ActivateAndServe(l, nil, handler)
		})
	}

	if !config.NoUDP {
		var pc net.PacketConn

		pc, err = net.ListenPacket("udp", config.Addr)
		if err != nil {
			return
		}

		group.Go(func() error {
			<-ctx.Done()
			return pc.Close()
		})
		group.Go(func() error {
			return miekgdns.ActivateAndServe(nil, pc, handler)
		})
	}

	if config.Ready != nil {
		close(config.Ready)
	}

	err = group.Wait()
	return
}

func handle(w miekgdns.ResponseWriter, questMsg *miekgdns.Msg, resolver Resolver, soa *SOA, errorLog, debugLog *zap.SugaredLogger) {
	defer func() {
		if x := recover(); x != nil {
			errorLog.Errorw("panic", "value", x)
		}
	}()

	defer func() {
		if err := w.Close(); err != nil {
			errorLog.Errorw("close", "error", err)
		}
	}()

	var replyMsg miekgdns.Msg
	replyCode := miekgdns.RcodeServerFailure

	defer func() {
		if debugLog != nil && replyCode != miekgdns.RcodeSuccess {
			debugLog.Debugw("response", "remote", w.RemoteAddr(), "rcode", miekgdns.RcodeToString[replyCode])
		}

		if err := w.WriteMsg(replyMsg.SetRcode(questMsg, replyCode)); err != nil {
			errorLog.Errorw("write", "error", err)
		}
	}()

	if len(questMsg.Question) != 1 {
		replyCode = miekgdns.RcodeNotImplemented
		return
	}

	q := questMsg.Question[0]

	if q.Qclass != miekgdns.ClassINET {
		replyCode = miekgdns.RcodeNotImplemented
		return
	}

	if debugLog != nil {
		debugLog.Debugw("query", "remote", w.RemoteAddr(), "type", miekgdns.TypeToString[q.Qtype], "name", q.Name)
	}

	replyMsg.Authoritative = soa.authority()

	var (
		serial  uint32
		pairs   []dnszone.ZoneDomainPair
		hasApex bool
	)

	if transferReq(&q) {
		if soa.authority() {
			pairs, serial = resolver.TransferZone(strings.ToLower(q.Name))
			hasApex = true
		}
	} else {
		var (
			node   string
			rrsets []dns.RRSet
		)

		node, rrsets, serial = resolver.ResolveRecords(strings.ToLower(q.Name), dns.Type(q.Qtype))
		if node != "" {
			owner, _ := dns.NameFromString(q.Name)
			pairs = []dnszone.ZoneDomainPair{{Name: owner, RRSets: rrsets}}
			hasApex = node == dnszone.Apex
		}
	}

	if pairs != nil {
		if hasApex && soa.authority() {
			if replyType(&q, miekgdns.TypeSOA) {
				replyMsg.Answer = append(replyMsg.Answer, soaAnswer(&q, soa, serial))
			}

			if replyType(&q, miekgdns.TypeNS) {
				replyMsg.Answer = append(replyMsg.Answer, &miekgdns.NS{
					Hdr: miekgdns.RR_Header{
						Name:   q.Name,
						Rrtype: miekgdns.TypeNS,
						Class:  miekgdns.ClassINET,
						Ttl:    soa.TTL,
					},
					Ns: soa.NS,
				})
			}
		}

		for _, pair := range pairs {
			name := q.Name
			if transferReq(&q) {
				name = pair.Name.String()
			}

			for _, set := range pair.RRSets {
				if !replyType(&q, uint16(set.Type)) {
					continue
				}
				for _, rr := range set.RRs {
					replyMsg.Answer = append(replyMsg.Answer, toWireRR(name, rr))
				}
			}
		}

		if transferReq(&q) {
			// Zone transfer is concluded with repeated SOA record
			replyMsg.Answer = append(replyMsg.Answer, soaAnswer(&q, soa, serial))
		}

		replyCode = miekgdns.RcodeSuccess
	} else {
		replyCode = miekgdns.RcodeNameError
	}

	// RFC 2308, Section 3: SOA in Authority section for negative answers
	if negativeAnswer(&replyMsg, replyCode) && soa.authority() {
		replyMsg.Ns = append(replyMsg.Ns, soaAnswer(&q, soa, serial))
	}
}

// toWireRR renders an RR using the RFC3597 "unknown type" wire encoding:
// its hex Rdata is packed as raw octets by the underlying library
// regardless of the declared type, so the same code path serves every RR
// type the zone holds without a type-specific rdata encoder for each of
// them. Package ixfrstore renders IXFR difference messages the same way.
func toWireRR(name string, rr dns.RR) *miekgdns.RFC3597 {
	return &miekgdns.RFC3597{
		Hdr: miekgdns.RR_Header{
			Name:   name,
			Rrtype: uint16(rr.Type),
			Class:  uint16(rr.Class),
			Ttl:    rr.TTL,
		},
		Rdata: hex.EncodeToString(rr.AppendRdataUncompressed(nil)),
	}
}

// replyType returns true if records with recordType should be included in the
// reply message for the given question.
func replyType(q *miekgdns.Question, recordType uint16) bool {
	switch q.Qtype {
	case miekgdns.TypeAXFR, miekgdns.TypeIXFR, miekgdns.TypeANY, recordType:
		return true

	default:
		return false
	}
}

// transferReq returns true if question is some kind of zone transfer request.
func transferReq(q *miekgdns.Question) bool {
	switch q.Qtype {
	case miekgdns.TypeAXFR, miekgdns.TypeIXFR:
		return true

	default:
		return false
	}
}

func negativeAnswer(replyMsg *miekgdns.Msg, replyCode int) bool {
	return replyCode == miekgdns.RcodeNameError || len(replyMsg.Answer) == 0
}

func soaAnswer(q *miekgdns.Question, soa *SOA, serial uint32) *miekgdns.SOA {
	if serial == 0 {
		serial = defaultSerial
	}

	return &miekgdns.SOA{
		Hdr: miekgdns.RR_Header{
			Name:   q.Name,
			Rrtype: miekgdns.TypeSOA,
			Class:  miekgdns.ClassINET,
			Ttl:    soa.TTL,
		},
		Ns:      soa.NS,
		Mbox:    soa.Mbox,
		Serial:  serial,
		Refresh: soa.Refresh,
		Retry:   soa.Retry,
		Expire:  soa.Expire,
		Minttl:  soa.TTL,
	}
}
