package transport_test

import (
	"errors"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/mock/gomock"

	"github.com/ghettovoice/sipwire/internal/testutils/netmock"
	"github.com/ghettovoice/sipwire/sip"
	"github.com/ghettovoice/sipwire/transport"
)

func setupMockConn(tb testing.TB, onDeadline func(time.Time)) *netmock.MockPacketConn {
	tb.Helper()

	ctrl := gomock.NewController(tb)
	conn := netmock.NewMockPacketConn(ctrl)
	conn.EXPECT().
		LocalAddr().
		Return(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5061}).
		MinTimes(1)
	conn.EXPECT().
		SetReadDeadline(gomock.AssignableToTypeOf(time.Time{})).
		DoAndReturn(func(t time.Time) error {
			if onDeadline != nil {
				onDeadline(t)
			}
			return nil
		}).
		AnyTimes()
	return conn
}

func TestClient_Do_WriteError(t *testing.T) {
	t.Parallel()

	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5060}
	errWrite := errors.New("network is unreachable")

	conn := setupMockConn(t, nil)
	conn.EXPECT().
		WriteTo(gomock.AssignableToTypeOf([]byte(nil)), dst).
		Return(0, errWrite).
		Times(1)

	c, err := transport.NewClient(conn, nil)
	if err != nil {
		t.Fatalf("transport.NewClient(conn, nil) error = %v, want nil", err)
	}

	_, err = c.Do(t.Context(), newRequest(sip.MethodRegister, "z9hG4bK.write"), dst)
	if diff := cmp.Diff(err, errWrite, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("c.Do(ctx, req, dst) error = %v, want %v\ndiff (-got +want):\n%v", err, errWrite, diff)
	}
}

func TestClient_Do_ConnClosed(t *testing.T) {
	t.Parallel()

	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5060}
	req := newRequest(sip.MethodRegister, "z9hG4bK.closed")
	pkt := req.Encode()

	conn := setupMockConn(t, nil)
	conn.EXPECT().
		WriteTo(gomock.Cond(func(b []byte) bool { return string(b) == string(pkt) }), dst).
		Return(len(pkt), nil).
		MinTimes(1)
	conn.EXPECT().
		ReadFrom(gomock.AssignableToTypeOf([]byte(nil))).
		Return(0, nil, net.ErrClosed).
		Times(1)

	c, err := transport.NewClient(conn, &transport.ClientOptions{Timings: transport.Timings{T1: time.Second}})
	if err != nil {
		t.Fatalf("transport.NewClient(conn, opts) error = %v, want nil", err)
	}

	_, err = c.Do(t.Context(), req, dst)
	if diff := cmp.Diff(err, transport.ErrClosed, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("c.Do(ctx, req, dst) error = %v, want %v\ndiff (-got +want):\n%v", err, transport.ErrClosed, diff)
	}
	if !errors.Is(err, net.ErrClosed) {
		t.Errorf("c.Do(ctx, req, dst) error = %v, want it to match net.ErrClosed", err)
	}
}

func TestClient_Do_RetransmitError(t *testing.T) {
	t.Parallel()

	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5060}
	errWrite := errors.New("no buffer space available")
	unblock := make(chan struct{})
	var once sync.Once

	conn := setupMockConn(t, func(t time.Time) {
		if !t.IsZero() {
			once.Do(func() { close(unblock) })
		}
	})
	gomock.InOrder(
		conn.EXPECT().
			WriteTo(gomock.AssignableToTypeOf([]byte(nil)), dst).
			Return(100, nil),
		conn.EXPECT().
			WriteTo(gomock.AssignableToTypeOf([]byte(nil)), dst).
			Return(0, errWrite),
	)
	conn.EXPECT().
		ReadFrom(gomock.AssignableToTypeOf([]byte(nil))).
		DoAndReturn(func([]byte) (int, net.Addr, error) {
			<-unblock
			return 0, nil, os.ErrDeadlineExceeded
		}).
		MaxTimes(1)

	c, err := transport.NewClient(conn, &transport.ClientOptions{Timings: transport.Timings{T1: 10 * time.Millisecond}})
	if err != nil {
		t.Fatalf("transport.NewClient(conn, opts) error = %v, want nil", err)
	}

	_, err = c.Do(t.Context(), newRequest(sip.MethodRegister, "z9hG4bK.retrans-err"), dst)
	if diff := cmp.Diff(err, errWrite, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("c.Do(ctx, req, dst) error = %v, want %v\ndiff (-got +want):\n%v", err, errWrite, diff)
	}
}
