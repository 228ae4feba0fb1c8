// Package testutils holds helpers shared by package tests.
package testutils

import (
	"net"
	"sync"
	"testing"

	"github.com/miekg/dns"
)

// DNSServer is a loopback UDP DNS server answering from a static zone.
type DNSServer struct {
	Addr string

	mu   sync.RWMutex
	zone map[dns.Question][]dns.RR
}

// NewDNSServer starts a DNS server on 127.0.0.1 with a random port.
// The server is shut down when the test finishes.
// Records are given in zone file syntax, e.g. "example.com. 60 IN A 127.0.0.1".
func NewDNSServer(tb testing.TB, records ...string) *DNSServer {
	tb.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("listen udp: %v", err)
	}

	s := &DNSServer{
		Addr: pc.LocalAddr().String(),
		zone: make(map[dns.Question][]dns.RR),
	}
	for _, rec := range records {
		s.Add(tb, rec)
	}

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		Handler:           dns.HandlerFunc(s.serveDNS),
		NotifyStartedFunc: func() { close(started) },
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.ActivateAndServe() //nolint:errcheck
	}()
	<-started

	tb.Cleanup(func() {
		srv.Shutdown() //nolint:errcheck
		<-done
	})
	return s
}

// Add appends a record to the zone.
func (s *DNSServer) Add(tb testing.TB, rec string) {
	tb.Helper()

	rr, err := dns.NewRR(rec)
	if err != nil {
		tb.Fatalf("parse record %q: %v", rec, err)
	}
	hdr := rr.Header()
	q := dns.Question{Name: dns.CanonicalName(hdr.Name), Qtype: hdr.Rrtype, Qclass: hdr.Class}

	s.mu.Lock()
	s.zone[q] = append(s.zone[q], rr)
	s.mu.Unlock()
}

func (s *DNSServer) serveDNS(w dns.ResponseWriter, req *dns.Msg) {
	resp := new(dns.Msg)
	resp.SetReply(req)
	resp.Authoritative = true

	s.mu.RLock()
	for _, q := range req.Question {
		q.Name = dns.CanonicalName(q.Name)
		resp.Answer = append(resp.Answer, s.zone[q]...)
	}
	s.mu.RUnlock()

	if len(resp.Answer) == 0 {
		resp.Rcode = dns.RcodeNameError
	}
	w.WriteMsg(resp) //nolint:errcheck
}
