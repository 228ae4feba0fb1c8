// Package header implements the catalog of SIP header fields known to the codec.
//
// Every header renders as one wire line "Name: value" and can be recognized from a
// field name and a raw value with [Parse]. Fields outside the catalog are kept verbatim as [*Any].
package header

//go:generate go tool errtrace -w .

import (
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/types"
	"github.com/ghettovoice/sipwire/internal/util"
	"github.com/ghettovoice/sipwire/uri"
)

const (
	// ErrMalformedHeaderLine is returned when a header line has no ':' separator or an invalid field name.
	ErrMalformedHeaderLine errorutil.Error = "malformed header line"
	// ErrMalformedHeaderValue is returned when the value of a known header violates its grammar.
	ErrMalformedHeaderValue errorutil.Error = "malformed header value"
)

// Addr represents a network address consisting of a host and optional port.
type Addr = types.Addr

// Host creates an Addr from a hostname without a port.
func Host(host string) Addr { return types.Host(host) }

// HostPort creates an Addr from a hostname and port.
func HostPort(host string, port uint16) Addr { return types.HostPort(host, port) }

// Params represents ordered header parameters.
type Params = types.Params

// Method represents a SIP request method.
type Method = types.Method

// Version represents a SIP protocol version.
type Version = types.Version

// RenderOptions contains options for rendering headers.
type RenderOptions = types.RenderOptions

// Header represents a SIP header from the closed catalog of this package.
type Header interface {
	types.Renderer
	types.Cloneable[Header]
	types.ValidFlag
	types.Equalable
	// CanonicName returns the field name used on encode.
	CanonicName() Name
	// CompactName returns the RFC 3261 compact form of the field name, or the canonical name if there is none.
	CompactName() Name
	// RenderValue returns the part of the line after "Name: ".
	RenderValue() string

	header()
}

// Name represents a SIP header name.
type Name string

// ToCanonic converts the Name to its canonical form.
func (n Name) ToCanonic() Name { return CanonicName(n) }

// IsValid checks whether the Name is a non-empty token.
func (n Name) IsValid() bool {
	return n != "" && !strings.ContainsAny(string(n), " \t\r\n:;,\"<>")
}

// Equal compares this Name with another for equality.
func (n Name) Equal(val any) bool {
	var other Name
	switch v := val.(type) {
	case Name:
		other = v
	case *Name:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return CanonicName(n) == CanonicName(other)
}

var hdrNames = map[string]Name{
	"f":       "From",
	"i":       "Call-ID",
	"l":       "Content-Length",
	"m":       "Contact",
	"t":       "To",
	"v":       "Via",
	"Call-Id": "Call-ID",
	"Cseq":    "CSeq",
}

// CanonicName converts name to the canonical form.
// The canonicalization converts the first letter and any letter following a hyphen to upper case;
// the rest are converted to lowercase. For example, the canonical name for "max-forwards" is "Max-Forwards".
// Also, any compact name is converted to its full canonical form. For example, "v" converts to "Via".
func CanonicName[T ~string](name T) Name {
	s := util.TrimSP(string(name))
	if len(s) == 1 {
		s = util.LCase(s)
	}
	if n, ok := hdrNames[s]; ok {
		return n
	}

	s = textproto.CanonicalMIMEHeaderKey(s)
	if n, ok := hdrNames[s]; ok {
		return n
	}
	return Name(s)
}

// Parse recognizes a header from its field name and raw value.
//
// The name is matched case-insensitively against the catalog, compact forms included.
// Unknown names, as well as multi-entry Via and Contact values, are returned as [*Any] keeping
// the name and value byte-for-byte. A known name whose value violates the header grammar
// fails with [ErrMalformedHeaderValue].
func Parse(name, value string) (Header, error) {
	if !Name(name).IsValid() {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedHeaderLine, "invalid field name %q", name))
	}

	var (
		hdr Header
		err error
	)
	switch CanonicName(name) {
	case "Via":
		if hasTopLevelComma(value) {
			return &Any{Name: name, Value: value}, nil
		}
		hdr, err = parseVia(value)
	case "Call-ID":
		hdr, err = parseCallID(value)
	case "CSeq":
		hdr, err = parseCSeq(value)
	case "Max-Forwards":
		hdr, err = parseMaxForwards(value)
	case "Content-Length":
		hdr, err = parseContentLength(value)
	case "From":
		hdr, err = parseFrom(value)
	case "To":
		hdr, err = parseTo(value)
	case "Contact":
		if hasTopLevelComma(value) {
			return &Any{Name: name, Value: value}, nil
		}
		hdr, err = parseContact(value)
	case "User-Agent":
		hdr, err = parseUserAgent(value)
	case "Expires":
		hdr, err = parseExpires(value)
	default:
		return &Any{Name: name, Value: value}, nil
	}
	if err != nil {
		return nil, errtrace.Wrap(fmt.Errorf("parse %q header: %w", CanonicName(name), err))
	}
	return hdr, nil
}

// ParseLine parses a single unfolded header line "Name: value".
// The line is split on the first ':', surrounding whitespace is trimmed from the name and the value.
func ParseLine[T ~string | ~[]byte](line T) (Header, error) {
	name, value, ok := strings.Cut(string(line), ":")
	if !ok {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedHeaderLine, "missing ':' in %q", util.Ellipsis(string(line), 64)))
	}
	return errtrace.Wrap2(Parse(util.TrimSP(name), util.TrimSP(value)))
}

func newMalformedValueErr(args ...any) error {
	return errorutil.NewWrapperError(ErrMalformedHeaderValue, args...) //errtrace:skip
}

func hdrName(hdr Header, opts *RenderOptions) Name {
	if opts != nil && opts.Compact {
		return hdr.CompactName()
	}
	return hdr.CanonicName()
}

func renderHdrTo(w io.Writer, hdr Header, opts *RenderOptions) (num int, err error) {
	return errtrace.Wrap2(fmt.Fprint(w, hdrName(hdr, opts), ": ", hdr.RenderValue()))
}

func renderHdr(hdr Header, opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	hdr.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

// formatHdr implements fmt.Formatter for headers:
// %s prints the value, %+s the whole line, %q and %+q quote them; other verbs print plain as a struct.
func formatHdr(f fmt.State, verb rune, hdr Header, plain any) {
	switch verb {
	case 's':
		if f.Flag('+') {
			hdr.RenderTo(f, nil) //nolint:errcheck
			return
		}
		fmt.Fprint(f, hdr.RenderValue())
	case 'q':
		if f.Flag('+') {
			fmt.Fprint(f, strconv.Quote(hdr.Render(nil)))
			return
		}
		fmt.Fprint(f, strconv.Quote(hdr.RenderValue()))
	default:
		fmt.Fprintf(f, fmt.FormatString(f, verb), plain)
	}
}

// hasTopLevelComma reports whether s contains a ',' outside of quoted strings and <...> brackets.
func hasTopLevelComma(s string) bool {
	var inQuote, inAngle, escaped bool
	for i := range len(s) {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inQuote && c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '<':
			inAngle = true
		case c == '>':
			inAngle = false
		case c == ',' && !inAngle:
			return true
		}
	}
	return false
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	return util.Ptr(*s)
}

func eqStr(s1, s2 *string) bool {
	if s1 == nil || s2 == nil {
		return s1 == s2
	}
	return *s1 == *s2
}

func eqFoldStr(s1, s2 *string) bool {
	if s1 == nil || s2 == nil {
		return s1 == s2
	}
	return util.EqFold(*s1, *s2)
}

// takeParam removes the first parameter named name from ps.
func takeParam(ps Params, name string) (Param, Params, bool) {
	for i, p := range ps {
		if util.EqFold(p.Name, name) {
			rest := append(ps[:i:i], ps[i+1:]...)
			if len(rest) == 0 {
				rest = nil
			}
			return p, rest, true
		}
	}
	return Param{}, ps, false
}

// Param is a single header parameter.
type Param = types.Param

// URI is the SIP URI used inside From, To and Contact.
type URI = uri.SIP
