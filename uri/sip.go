package uri

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/types"
	"github.com/ghettovoice/sipwire/internal/util"
)

const scheme = "sip"

// SIP represents a SIP URI: "sip:" [ user "@" ] host [ ":" port ] *( ";" param ).
type SIP struct {
	User   *string // optional user part, nil if absent
	Addr   Addr    // host and optional port
	Params Params  // URI parameters in wire order
}

// FromHost returns a user-less SIP URI pointing to the given host.
func FromHost(host string) SIP { return SIP{Addr: Host(host)} }

// Parse parses a SIP URI from the given input s (string or []byte).
//
// The scheme prefix is matched case-insensitively. The user part is separated on the last '@',
// the port on the last ':' if the trailing segment is all digits.
func Parse[T ~string | ~[]byte](s T) (SIP, error) {
	str := string(s)
	if len(str) < len(scheme)+1 || !util.EqFold(str[:len(scheme)+1], scheme+":") {
		return SIP{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidURI, "missing %q scheme in %q", scheme, str))
	}
	rest := str[len(scheme)+1:]

	var u SIP
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		if i == 0 {
			return SIP{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidURI, "empty user in %q", str))
		}
		u.User = User(rest[:i])
		rest = rest[i+1:]
	}

	hostport, params, _ := strings.Cut(rest, ";")
	addr, err := types.ParseAddr(hostport)
	if err != nil {
		return SIP{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidURI, err))
	}
	u.Addr = addr

	if u.Params, err = types.ParseParams(params); err != nil {
		return SIP{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidURI, err))
	}
	return u, nil
}

// RenderTo writes the SIP URI to the provided writer.
func (u SIP) RenderTo(w io.Writer, _ *RenderOptions) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.WriteString(scheme + ":")
	if u.User != nil {
		cw.WriteString(*u.User)
		cw.WriteString("@")
	}
	cw.WriteString(u.Addr.String())
	cw.Call(u.Params.RenderTo)
	return errtrace.Wrap2(cw.Result())
}

// Render returns the string representation of the SIP URI.
func (u SIP) Render(opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	u.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

// String returns the string representation of the SIP URI.
func (u SIP) String() string { return u.Render(nil) }

// Format implements fmt.Formatter for custom formatting of the URI.
func (u SIP) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		fmt.Fprint(f, u.String())
		return
	case 'q':
		fmt.Fprint(f, strconv.Quote(u.String()))
		return
	default:
		if !f.Flag('+') && !f.Flag('#') {
			fmt.Fprint(f, u.String())
			return
		}

		type hideMethods SIP
		type SIP hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), SIP(u))
		return
	}
}

// Clone returns a deep copy of the SIP URI.
func (u SIP) Clone() SIP {
	if u.User != nil {
		u.User = User(*u.User)
	}
	u.Addr = u.Addr.Clone()
	u.Params = u.Params.Clone()
	return u
}

// Equal reports whether u equals the provided value, accepting SIP and *SIP.
// The user part is compared case-sensitively, the host as defined by [Addr.Equal].
func (u SIP) Equal(val any) bool {
	var other SIP
	switch v := val.(type) {
	case SIP:
		other = v
	case *SIP:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}

	if (u.User == nil) != (other.User == nil) || (u.User != nil && *u.User != *other.User) {
		return false
	}
	return u.Addr.Equal(other.Addr) && u.Params.Equal(other.Params)
}

// IsValid reports whether the URI has a valid host and a non-empty user part, if any.
func (u SIP) IsValid() bool {
	return u.Addr.IsValid() && (u.User == nil || *u.User != "")
}

// MarshalText implements [encoding.TextMarshaler].
func (u SIP) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

// UnmarshalText implements [encoding.TextUnmarshaler].
func (u *SIP) UnmarshalText(text []byte) error {
	v, err := Parse(text)
	if err != nil {
		return errtrace.Wrap(err)
	}
	*u = v
	return nil
}
