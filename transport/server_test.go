package transport_test

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ghettovoice/sipwire/header"
	"github.com/ghettovoice/sipwire/sip"
	"github.com/ghettovoice/sipwire/transport"
	"github.com/ghettovoice/sipwire/uri"
)

func ptr[T any](v T) *T { return &v }

func newRequest(method sip.Method, branch string) *sip.Request {
	me := uri.SIP{User: uri.User("100"), Addr: uri.Host("127.0.0.1")}
	return &sip.Request{
		Method: method,
		URI:    uri.FromHost("127.0.0.1"),
		Proto:  sip.VersionSIP20,
		Headers: sip.Headers{
			&header.Via{
				Proto:     sip.VersionSIP20,
				Transport: "UDP",
				Addr:      header.HostPort("127.0.0.1", 5061),
				Branch:    ptr(branch),
			},
			header.MaxForwards(70),
			&header.From{URI: me, Tag: ptr("456248")},
			&header.To{URI: me},
			header.CallID("843817637684230@998sdasdh09"),
			&header.CSeq{SeqNum: 12340, Method: method},
			header.ContentLength(0),
		},
	}
}

// handlerFunc returns the packets to answer the n-th received request with.
type handlerFunc func(req *sip.Request, n int) [][]byte

// udpServer is a loopback UDP peer answering client requests.
type udpServer struct {
	conn net.PacketConn

	mu   sync.Mutex
	reqs []*sip.Request
}

func newUDPServer(t *testing.T, hdlr handlerFunc) *udpServer {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.ListenPacket(\"udp\", \"127.0.0.1:0\") error = %v, want nil", err)
	}

	srv := &udpServer{conn: conn}
	done := make(chan struct{})
	go func() {
		defer close(done)

		buf := make([]byte, transport.MaxPacketSize)
		for {
			n, raddr, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			req, err := sip.ParseRequest(buf[:n])
			if err != nil {
				continue
			}

			srv.mu.Lock()
			srv.reqs = append(srv.reqs, req)
			num := len(srv.reqs)
			srv.mu.Unlock()

			if hdlr == nil {
				continue
			}
			for _, pkt := range hdlr(req, num) {
				conn.WriteTo(pkt, raddr) //nolint:errcheck
			}
		}
	}()

	t.Cleanup(func() {
		conn.Close()
		<-done
	})
	return srv
}

func (srv *udpServer) Addr() *net.UDPAddr { return srv.conn.LocalAddr().(*net.UDPAddr) } //nolint:forcetypeassert

func (srv *udpServer) Port() uint16 { return uint16(srv.Addr().Port) } //nolint:gosec

func (srv *udpServer) PortString() string { return strconv.Itoa(srv.Addr().Port) }

func (srv *udpServer) Requests() []*sip.Request {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return append([]*sip.Request(nil), srv.reqs...)
}

func respond(t *testing.T, req *sip.Request, status sip.StatusCode) []byte {
	t.Helper()

	res, err := req.NewResponse(status, "")
	if err != nil {
		t.Errorf("req.NewResponse(%d, \"\") error = %v, want nil", status, err)
		return nil
	}
	return res.Encode()
}

func newClient(t *testing.T, opts *transport.ClientOptions) *transport.Client {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.ListenPacket(\"udp\", \"127.0.0.1:0\") error = %v, want nil", err)
	}
	t.Cleanup(func() { conn.Close() })

	c, err := transport.NewClient(conn, opts)
	if err != nil {
		t.Fatalf("transport.NewClient(conn, opts) error = %v, want nil", err)
	}
	return c
}

func fastTimings(t1 time.Duration) transport.Timings {
	return transport.Timings{T1: t1, T2: 8 * t1}
}
