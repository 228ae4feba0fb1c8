package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"braces.dev/errtrace"
	"github.com/cenkalti/backoff/v4"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/sip"
)

// TransactionState represents the state of a non-INVITE client transaction (RFC 3261 Section 17.1.2).
type TransactionState string

const (
	TransactionStateTrying     TransactionState = "trying"
	TransactionStateProceeding TransactionState = "proceeding"
	TransactionStateCompleted  TransactionState = "completed"
	TransactionStateTerminated TransactionState = "terminated"
)

const (
	txEvtRecv1xx   = "recv_1xx"
	txEvtRecvFinal = "recv_final"
	txEvtTimerE    = "timer_e"
	txEvtTimerF    = "timer_f"
	txEvtTranspErr = "transport_error"
	txEvtTerminate = "terminate"
)

// clientTx is a single non-INVITE client transaction over an unreliable transport.
type clientTx struct {
	conn    Conn
	dst     net.Addr
	req     *sip.Request
	pkt     []byte
	branch  string
	timings Timings
	log     *slog.Logger
	onProv  func(*sip.Response)

	fsm     *stateless.StateMachine
	retrans backoff.BackOff
	res     *sip.Response
	err     error
}

func newClientTx(conn Conn, dst net.Addr, req *sip.Request, branch string, opts *ClientOptions) *clientTx {
	tx := &clientTx{
		conn:    conn,
		dst:     dst,
		req:     req,
		pkt:     req.Encode(),
		branch:  branch,
		timings: opts.Timings,
		log:     opts.log(),
		onProv:  opts.OnProvisional,
	}
	tx.initFSM()
	return tx
}

func (tx *clientTx) initFSM() {
	tx.fsm = stateless.NewStateMachine(TransactionStateTrying)

	tx.fsm.Configure(TransactionStateTrying).
		InternalTransition(txEvtTimerE, tx.actSendReq).
		Permit(txEvtRecv1xx, TransactionStateProceeding).
		Permit(txEvtRecvFinal, TransactionStateCompleted).
		Permit(txEvtTimerF, TransactionStateTerminated).
		Permit(txEvtTranspErr, TransactionStateTerminated).
		Permit(txEvtTerminate, TransactionStateTerminated)

	tx.fsm.Configure(TransactionStateProceeding).
		OnEntry(tx.actProceeding).
		OnEntryFrom(txEvtRecv1xx, tx.actPassRes).
		InternalTransition(txEvtTimerE, tx.actSendReq).
		InternalTransition(txEvtRecv1xx, tx.actPassRes).
		Permit(txEvtRecvFinal, TransactionStateCompleted).
		Permit(txEvtTimerF, TransactionStateTerminated).
		Permit(txEvtTranspErr, TransactionStateTerminated).
		Permit(txEvtTerminate, TransactionStateTerminated)

	tx.fsm.Configure(TransactionStateCompleted).
		OnEntryFrom(txEvtRecvFinal, tx.actPassRes).
		Ignore(txEvtRecv1xx).
		Ignore(txEvtRecvFinal).
		Ignore(txEvtTimerE).
		Ignore(txEvtTimerF).
		Permit(txEvtTerminate, TransactionStateTerminated)

	tx.fsm.Configure(TransactionStateTerminated).
		OnEntry(tx.actTerminated).
		OnEntryFrom(txEvtTimerF, tx.actTimedOut).
		OnEntryFrom(txEvtTranspErr, tx.actTranspErr).
		Ignore(txEvtRecv1xx).
		Ignore(txEvtRecvFinal).
		Ignore(txEvtTimerE).
		Ignore(txEvtTimerF).
		Ignore(txEvtTerminate)
}

// State returns the current transaction state.
func (tx *clientTx) State() TransactionState {
	return tx.fsm.MustState().(TransactionState) //nolint:forcetypeassert
}

func (tx *clientTx) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("branch", tx.branch),
		slog.String("method", tx.req.Method.String()),
		slog.String("state", string(tx.State())),
		slog.Any("remote_addr", tx.dst),
	)
}

func (tx *clientTx) fire(ctx context.Context, evt string, args ...any) {
	if err := tx.fsm.FireCtx(ctx, evt, args...); err != nil && tx.err == nil {
		tx.err = err
	}
}

// start sends the request for the first time and arms the Timer E schedule.
func (tx *clientTx) start(ctx context.Context) error {
	tx.log.LogAttrs(ctx, slog.LevelDebug, "transaction trying", slog.Any("transaction", tx))

	if err := tx.send(); err != nil {
		tx.fire(ctx, txEvtTranspErr, err)
		return errtrace.Wrap(tx.err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = tx.timings.TimeE()
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = tx.timings.BaseT2()
	bo.MaxElapsedTime = 0
	bo.Reset()
	tx.retrans = bo
	return nil
}

func (tx *clientTx) send() error {
	if _, err := tx.conn.WriteTo(tx.pkt, tx.dst); err != nil {
		return errtrace.Wrap(err)
	}
	return nil
}

// run drives the transaction until it leaves the Trying and Proceeding states.
// Responses matched to the transaction arrive through resCh.
func (tx *clientTx) run(ctx context.Context, resCh <-chan *sip.Response) error {
	tmrE := time.NewTimer(tx.retrans.NextBackOff())
	defer tmrE.Stop()
	tmrF := time.NewTimer(tx.timings.TimeF())
	defer tmrF.Stop()

	tx.log.LogAttrs(ctx, slog.LevelDebug,
		"timer F started",
		slog.Any("transaction", tx),
		slog.Time("expires_at", time.Now().Add(tx.timings.TimeF())),
	)

	for {
		select {
		case <-ctx.Done():
			tx.fire(context.WithoutCancel(ctx), txEvtTerminate)
			return errtrace.Wrap(context.Cause(ctx))
		case res := <-resCh:
			if res.Status.IsProvisional() {
				tx.fire(ctx, txEvtRecv1xx, res)
			} else {
				tx.fire(ctx, txEvtRecvFinal, res)
			}
		case <-tmrE.C:
			tx.log.LogAttrs(ctx, slog.LevelDebug, "timer E expired", slog.Any("transaction", tx))

			if err := tx.fsm.FireCtx(ctx, txEvtTimerE); err != nil {
				tx.fire(ctx, txEvtTranspErr, err)
				break
			}

			dur := tx.retrans.NextBackOff()
			tmrE.Reset(dur)

			tx.log.LogAttrs(ctx, slog.LevelDebug,
				"timer E reset",
				slog.Any("transaction", tx),
				slog.Time("expires_at", time.Now().Add(dur)),
			)
		case <-tmrF.C:
			tx.log.LogAttrs(ctx, slog.LevelDebug, "timer F expired", slog.Any("transaction", tx))

			tx.fire(ctx, txEvtTimerF)
		}

		switch tx.State() {
		case TransactionStateCompleted:
			tx.fire(ctx, txEvtTerminate)
			return nil
		case TransactionStateTerminated:
			return errtrace.Wrap(tx.err)
		}
	}
}

func (tx *clientTx) actSendReq(ctx context.Context, _ ...any) error {
	tx.log.LogAttrs(ctx, slog.LevelDebug, "retransmit request", slog.Any("transaction", tx))

	return errtrace.Wrap(tx.send())
}

func (tx *clientTx) actProceeding(ctx context.Context, _ ...any) error {
	tx.log.LogAttrs(ctx, slog.LevelDebug, "transaction proceeding", slog.Any("transaction", tx))

	tx.retrans = backoff.NewConstantBackOff(tx.timings.BaseT2())
	return nil
}

func (tx *clientTx) actPassRes(ctx context.Context, args ...any) error {
	res, ok := args[0].(*sip.Response)
	if !ok {
		return errtrace.Wrap(fmt.Errorf("unexpected argument %T", args[0]))
	}

	tx.log.LogAttrs(ctx, slog.LevelDebug,
		"transaction received response",
		slog.Any("transaction", tx),
		slog.Any("response", res),
	)

	if res.Status.IsProvisional() {
		if tx.onProv != nil {
			tx.onProv(res)
		}
		return nil
	}
	tx.res = res
	return nil
}

func (tx *clientTx) actTimedOut(ctx context.Context, _ ...any) error {
	tx.log.LogAttrs(ctx, slog.LevelDebug, "transaction timed out", slog.Any("transaction", tx))

	tx.err = ErrTimeout
	return nil
}

func (tx *clientTx) actTranspErr(ctx context.Context, args ...any) error {
	var err error
	if len(args) > 0 {
		err, _ = args[0].(error)
	}
	if errorutil.IsClosedErr(err) {
		err = errorutil.NewWrapperError(ErrClosed, err)
	}

	tx.log.LogAttrs(ctx, slog.LevelDebug,
		"transaction transport error",
		slog.Any("transaction", tx),
		slog.Any("error", err),
	)

	tx.err = err
	return nil
}

func (tx *clientTx) actTerminated(ctx context.Context, _ ...any) error {
	tx.log.LogAttrs(ctx, slog.LevelDebug, "transaction terminated", slog.Any("transaction", tx))
	return nil
}
