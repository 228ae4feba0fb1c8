package sip

import (
	"github.com/ghettovoice/sipwire/header"
	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/types"
	"github.com/ghettovoice/sipwire/uri"
)

// Error represents a SIP error.
// See [errorutil.Error].
type Error = errorutil.Error

// Vocabulary and addressing errors.
const (
	ErrInvalidMethod     = types.ErrInvalidMethod
	ErrInvalidSipVersion = types.ErrInvalidSipVersion
	ErrInvalidURI        = uri.ErrInvalidURI
)

// Header errors.
const (
	ErrMalformedHeaderLine  = header.ErrMalformedHeaderLine
	ErrMalformedHeaderValue = header.ErrMalformedHeaderValue
)

// Parse errors.
const (
	// ErrMalformedStartLine is returned when the start line is missing, has the wrong number of tokens
	// or carries an invalid status code.
	ErrMalformedStartLine Error = "malformed start line"
	// ErrUnrecognizedStartLine is returned when the first token of the start line is neither a method
	// nor a protocol version. Such errors also match [ErrInvalidMethod].
	ErrUnrecognizedStartLine Error = "unrecognized start line"
	// ErrTruncatedBody is returned when fewer bytes than declared by Content-Length follow the headers.
	ErrTruncatedBody Error = "truncated body"
)

// Message errors.
const (
	ErrInvalidArgument       = errorutil.ErrInvalidArgument
	ErrInvalidMessage  Error = "invalid message"
)

// NewInvalidArgumentError creates a new error with [ErrInvalidArgument] or
// wraps provided error with [ErrInvalidArgument].
func NewInvalidArgumentError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}

func newMissHdrErr(name header.Name) error {
	return errorutil.Errorf("missing %q header", name) //errtrace:skip
}
