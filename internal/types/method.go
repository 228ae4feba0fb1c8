package types

import (
	"fmt"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/errorutil"
)

// ErrInvalidMethod is returned when a token is not a known request method.
const ErrInvalidMethod errorutil.Error = "invalid method"

// Method is a SIP request method from the closed vocabulary supported by the codec.
// The zero value is not a valid method.
type Method uint8

const (
	MethodRegister Method = iota + 1
	MethodInvite
	MethodAck
	MethodCancel
	MethodBuy
	MethodOptions
)

var methodTokens = [...]string{
	MethodRegister: "REGISTER",
	MethodInvite:   "INVITE",
	MethodAck:      "ACK",
	MethodCancel:   "CANCEL",
	MethodBuy:      "BUY",
	MethodOptions:  "OPTIONS",
}

// Methods returns all known methods in declaration order.
func Methods() []Method {
	return []Method{MethodRegister, MethodInvite, MethodAck, MethodCancel, MethodBuy, MethodOptions}
}

// ParseMethod maps the exact wire token s to a [Method].
// Matching is case-sensitive and s is not trimmed.
func ParseMethod[T ~string | ~[]byte](s T) (Method, error) {
	for m := MethodRegister; m <= MethodOptions; m++ {
		if methodTokens[m] == string(s) {
			return m, nil
		}
	}
	return 0, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidMethod, "%q", string(s)))
}

// String returns the wire token of the method.
func (m Method) String() string {
	if !m.IsValid() {
		return "Method(" + strconv.Itoa(int(m)) + ")"
	}
	return methodTokens[m]
}

// IsValid reports whether m is one of the known methods.
func (m Method) IsValid() bool { return m >= MethodRegister && m <= MethodOptions }

func (m Method) Format(f fmt.State, verb rune) {
	switch verb {
	case 's', 'v':
		fmt.Fprint(f, m.String())
	case 'q':
		fmt.Fprint(f, strconv.Quote(m.String()))
	default:
		fmt.Fprintf(f, fmt.FormatString(f, verb), uint8(m))
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (m Method) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidMethod, "%d", uint8(m)))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *Method) UnmarshalText(text []byte) error {
	v, err := ParseMethod(text)
	if err != nil {
		return errtrace.Wrap(err)
	}
	*m = v
	return nil
}
