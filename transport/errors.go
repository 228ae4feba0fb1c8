package transport

import "github.com/ghettovoice/sipwire/internal/errorutil"

// Error represents a transport error.
type Error = errorutil.Error

const (
	// ErrTimeout is returned when no final response arrives before Timer F fires.
	ErrTimeout Error = "transaction timed out"
	// ErrClosed is returned when the underlying connection is closed.
	ErrClosed Error = "connection closed"
	// ErrNoTarget is returned when a request URI does not resolve to any address.
	ErrNoTarget Error = "no target address"
	// ErrInvalidArgument is returned when a request can not be sent by a client transaction.
	ErrInvalidArgument = errorutil.ErrInvalidArgument
)

func newInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}
