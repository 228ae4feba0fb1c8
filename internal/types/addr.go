package types

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/util"
)

// ErrInvalidAddr is returned when a host[:port] string can not be parsed.
const ErrInvalidAddr errorutil.Error = "invalid address"

// Addr is a container for host and optional port.
type Addr struct {
	host    string
	ip      net.IP
	port    uint16
	hasPort bool
}

// Host returns an [Addr] containing the provided host and no port.
func Host(host string) Addr {
	host = strings.Trim(host, "[]")
	return Addr{
		host: host,
		ip:   parseIP(host),
	}
}

// HostPort returns an [Addr] containing the provided host and port.
func HostPort(host string, port uint16) Addr {
	addr := Host(host)
	addr.port = port
	addr.hasPort = true
	return addr
}

func parseIP(host string) net.IP {
	ip := net.ParseIP(host)
	if v := ip.To4(); v != nil {
		ip = v
	}
	return ip
}

// ParseAddr parses a "host[:port]" string into an [Addr].
//
// The port is split off the last ':' only when the trailing segment is all digits.
// Bracketed IPv6 literals ("[::1]:5060") are supported, an unbracketed host containing
// more than one ':' is taken as an IPv6 literal without a port.
func ParseAddr[T ~string | ~[]byte](s T) (Addr, error) {
	str := string(s)
	if str == "" {
		return Addr{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidAddr, "empty input"))
	}

	var (
		host, port string
		hasPort    bool
	)
	switch {
	case str[0] == '[':
		end := strings.IndexByte(str, ']')
		if end < 0 {
			return Addr{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidAddr, "unclosed IPv6 literal %q", str))
		}
		host = str[1:end]
		switch rest := str[end+1:]; {
		case rest == "":
		case rest[0] == ':':
			port, hasPort = rest[1:], true
		default:
			return Addr{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidAddr, "unexpected %q after IPv6 literal", rest))
		}
	case strings.Count(str, ":") == 1:
		i := strings.LastIndexByte(str, ':')
		if util.IsDigits(str[i+1:]) {
			host, port, hasPort = str[:i], str[i+1:], true
		} else {
			host = str
		}
	default:
		host = str
	}

	if !hasPort {
		addr := Host(host)
		if !addr.IsValid() {
			return Addr{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidAddr, "malformed host %q", host))
		}
		return addr, nil
	}

	if !util.IsDigits(port) {
		return Addr{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidAddr, "malformed port %q", port))
	}
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil || p == 0 {
		return Addr{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidAddr, "port %q out of range", port))
	}
	addr := HostPort(host, uint16(p))
	if !addr.IsValid() {
		return Addr{}, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidAddr, "malformed host %q", host))
	}
	return addr, nil
}

// Host returns the hostname portion of the address as provided during construction or parsing.
func (addr Addr) Host() string { return addr.host }

// IP returns the parsed IP representation when the host is an IP literal, otherwise nil.
func (addr Addr) IP() net.IP { return addr.ip }

// Port returns the port, in case it is set, and bool flag indicating whether it is set.
func (addr Addr) Port() (uint16, bool) { return addr.port, addr.hasPort }

// String formats the address as host[:port], adding brackets for IPv6 literals.
func (addr Addr) String() string {
	host := addr.host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if !addr.hasPort {
		return host
	}
	return host + ":" + strconv.Itoa(int(addr.port))
}

// Format implements fmt.Formatter to support custom formatting verbs for Addr values.
func (addr Addr) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		fmt.Fprint(f, addr.String())
		return
	case 'q':
		fmt.Fprint(f, strconv.Quote(addr.String()))
		return
	default:
		if !f.Flag('+') && !f.Flag('#') {
			fmt.Fprint(f, addr.String())
			return
		}

		type hideMethods Addr
		type Addr hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), Addr(addr))
		return
	}
}

// Clone returns a deep copy of the address including the underlying IP slice.
func (addr Addr) Clone() Addr {
	addr.ip = slices.Clone(addr.ip)
	return addr
}

// Equal reports whether the address equals the provided value, accepting Addr and *Addr.
// Host names are compared case-insensitively, IP literals by value.
func (addr Addr) Equal(val any) bool {
	var other Addr
	switch v := val.(type) {
	case Addr:
		other = v
	case *Addr:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}

	var hostMatch bool
	switch {
	case addr.ip == nil && other.ip == nil:
		hostMatch = util.EqFold(addr.host, other.host)
	case addr.ip != nil && other.ip != nil:
		hostMatch = addr.ip.Equal(other.ip)
	default:
		return false
	}

	return hostMatch && addr.port == other.port && addr.hasPort == other.hasPort
}

// IsValid reports whether the host is non-empty, free of SIP delimiters,
// and the port, when set, lies within [1, 65535].
func (addr Addr) IsValid() bool {
	if addr.host == "" || strings.ContainsAny(addr.host, " \t\r\n;,<>@?\"[]/") {
		return false
	}
	if strings.Contains(addr.host, ":") && addr.ip == nil {
		return false
	}
	return !addr.hasPort || addr.port > 0
}

// IsZero reports whether the address has zero host, IP and port information.
func (addr Addr) IsZero() bool { return addr.host == "" && addr.ip == nil && !addr.hasPort }

// MarshalText encodes the address into its textual representation.
func (addr Addr) MarshalText() (text []byte, err error) {
	return []byte(addr.String()), nil
}

// UnmarshalText parses a textual representation of an address into the receiver.
func (addr *Addr) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*addr = Addr{}
		return nil
	}
	var err error
	*addr, err = ParseAddr(text)
	return errtrace.Wrap(err)
}
