// Package transport sends SIP requests over UDP as non-INVITE client transactions (RFC 3261 Section 17.1.2)
// and locates the servers to send them to (RFC 3263).
//
// The codec packages never block. This package is the only one that touches the network.
package transport

//go:generate go tool errtrace -w .

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"braces.dev/errtrace"
	"golang.org/x/sync/errgroup"

	"github.com/ghettovoice/sipwire/dns"
	"github.com/ghettovoice/sipwire/header"
	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/log"
	"github.com/ghettovoice/sipwire/sip"
)

// MaxPacketSize is the size of the read buffer, large enough for any UDP datagram.
const MaxPacketSize = 65535

// Conn is the packet connection a [Client] sends requests and reads responses on.
// [net.PacketConn] satisfies it.
type Conn interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	WriteTo(p []byte, addr net.Addr) (n int, err error)
	SetReadDeadline(t time.Time) error
	LocalAddr() net.Addr
	Close() error
}

// ClientOptions are the options of a [Client].
// Zero value is ready to use.
type ClientOptions struct {
	// Timings overrides the RFC 3261 base timer values.
	Timings Timings
	// Resolver is used by [Client.Send] to locate the request target.
	// If nil, [dns.DefaultResolver] is used.
	Resolver *dns.Resolver
	// Tokens generates branches for requests re-sent to the next target by [Client.Send].
	// If nil, [header.UUIDTokens] is used.
	Tokens header.TokenSource
	// OnProvisional is called with every provisional response received by a transaction.
	OnProvisional func(res *sip.Response)
	// Logger is the client logger. If nil, [log.Noop] is used.
	Logger *slog.Logger
}

func (o *ClientOptions) log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Noop
	}
	return o.Logger
}

func (o *ClientOptions) resolver() *dns.Resolver {
	if o == nil || o.Resolver == nil {
		return dns.DefaultResolver()
	}
	return o.Resolver
}

// Client runs non-INVITE client transactions on a packet connection.
// Transactions of one client are serialized since they share the connection reader.
type Client struct {
	conn Conn
	opts ClientOptions
	log  *slog.Logger
	mu   sync.Mutex
}

// NewClient creates a new client on the connection.
// The client does not own the connection, the caller closes it.
func NewClient(conn Conn, opts *ClientOptions) (*Client, error) {
	if conn == nil {
		return nil, errtrace.Wrap(newInvalidArgumentError("nil connection"))
	}

	c := &Client{conn: conn}
	if opts != nil {
		c.opts = *opts
	}
	c.log = c.opts.log().With(slog.Any("local_addr", conn.LocalAddr()))
	c.opts.Logger = c.log
	return c, nil
}

// Do sends the request to dst and waits for the final response.
// The request is retransmitted on Timer E until a response arrives. Provisional responses are
// passed to [ClientOptions.OnProvisional]. If no final response arrives before Timer F fires,
// the error matches [ErrTimeout].
//
// The request must be valid, must not be INVITE or ACK, and its top Via must carry a branch.
func (c *Client) Do(ctx context.Context, req *sip.Request, dst net.Addr) (*sip.Response, error) {
	if req == nil {
		return nil, errtrace.Wrap(newInvalidArgumentError("nil request"))
	}
	if dst == nil {
		return nil, errtrace.Wrap(newInvalidArgumentError("nil destination"))
	}
	if err := req.Validate(); err != nil {
		return nil, errtrace.Wrap(newInvalidArgumentError(err))
	}
	if req.Method == sip.MethodInvite || req.Method == sip.MethodAck {
		return nil, errtrace.Wrap(newInvalidArgumentError("method %s is not allowed", req.Method))
	}
	via, ok := req.Headers.Via()
	if !ok {
		return nil, errtrace.Wrap(newInvalidArgumentError("missing or unparsed top Via"))
	}
	if via.Branch == nil || *via.Branch == "" {
		return nil, errtrace.Wrap(newInvalidArgumentError("missing Via branch"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx := newClientTx(c.conn, dst, req, *via.Branch, &c.opts)
	if err := tx.start(ctx); err != nil {
		return nil, errtrace.Wrap(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resCh := make(chan *sip.Response)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return errtrace.Wrap(c.readResponses(gctx, tx, resCh))
	})
	g.Go(func() error {
		defer cancel()
		return errtrace.Wrap(tx.run(gctx, resCh))
	})
	// ReadFrom is unblocked by an expired deadline once the transaction is over.
	g.Go(func() error {
		<-gctx.Done()
		c.conn.SetReadDeadline(time.Now()) //nolint:errcheck
		return nil
	})
	defer c.conn.SetReadDeadline(time.Time{}) //nolint:errcheck

	if err := g.Wait(); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return tx.res, nil
}

func (c *Client) readResponses(ctx context.Context, tx *clientTx, resCh chan<- *sip.Response) error {
	buf := make([]byte, MaxPacketSize)
	for {
		n, raddr, err := c.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errorutil.IsClosedErr(err) {
				return errtrace.Wrap(errorutil.NewWrapperError(ErrClosed, err))
			}
			return errtrace.Wrap(err)
		}

		res, err := sip.ParseResponse(buf[:n])
		if err != nil {
			c.log.LogAttrs(ctx, slog.LevelDebug,
				"discard malformed packet",
				slog.Any("remote_addr", raddr),
				slog.Any("packet", log.PacketValue(buf[:n], 256)),
				slog.Any("error", err),
			)
			continue
		}
		if !matchResponse(tx, res) {
			c.log.LogAttrs(ctx, slog.LevelDebug,
				"discard unmatched response",
				slog.Any("remote_addr", raddr),
				slog.Any("response", res),
			)
			continue
		}

		select {
		case resCh <- res:
		case <-ctx.Done():
			return nil
		}
	}
}

// matchResponse reports whether the response belongs to the transaction (RFC 3261 Section 17.1.3).
func matchResponse(tx *clientTx, res *sip.Response) bool {
	via, ok := res.Headers.Via()
	if !ok || via.Branch == nil || *via.Branch != tx.branch {
		return false
	}
	cseq, ok := res.Headers.CSeq()
	return ok && cseq.Method == tx.req.Method
}

// Send resolves the request URI (RFC 3263) and sends the request to each target in turn
// until a final response arrives. A target is abandoned on timeout or a transport error,
// and the request is re-sent to the next one with a new Via branch.
func (c *Client) Send(ctx context.Context, req *sip.Request) (*sip.Response, error) {
	if req == nil {
		return nil, errtrace.Wrap(newInvalidArgumentError("nil request"))
	}

	targets, err := resolve(ctx, c.opts.resolver(), req.URI, c.log)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	var errs []error
	for i, dst := range targets {
		if i > 0 {
			req = nextBranch(req, c.opts.Tokens)
		}

		res, err := c.Do(ctx, req, dst)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil || errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrClosed) {
			return nil, errtrace.Wrap(err)
		}

		c.log.LogAttrs(ctx, slog.LevelWarn,
			"target failed, trying next",
			slog.Any("remote_addr", dst),
			slog.Any("error", err),
		)
		errs = append(errs, err)
	}
	return nil, errtrace.Wrap(errors.Join(errs...))
}

func nextBranch(req *sip.Request, tokens header.TokenSource) *sip.Request {
	req = req.Clone().(*sip.Request) //nolint:forcetypeassert
	if via, ok := req.Headers.Via(); ok {
		branch := header.NewBranch(tokens)
		via.Branch = &branch
	}
	return req
}
