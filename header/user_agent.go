package header

import (
	"fmt"
	"io"

	"braces.dev/errtrace"
)

// UserAgent represents the User-Agent header field.
// The value is kept as an opaque string.
type UserAgent string

func (UserAgent) header() {}

// CanonicName returns the canonical name of the header.
func (UserAgent) CanonicName() Name { return "User-Agent" }

// CompactName returns the compact name of the header (User-Agent has no compact form).
func (UserAgent) CompactName() Name { return "User-Agent" }

// RenderTo writes the header to the provided writer.
func (hdr UserAgent) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr UserAgent) Render(opts *RenderOptions) string { return renderHdr(hdr, opts) }

// RenderValue returns the header value without the name prefix.
func (hdr UserAgent) RenderValue() string { return string(hdr) }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr UserAgent) Format(f fmt.State, verb rune) {
	type hideMethods UserAgent
	type UserAgent hideMethods
	formatHdr(f, verb, hdr, UserAgent(hdr))
}

// Clone returns a copy of the header.
func (hdr UserAgent) Clone() Header { return hdr }

// Equal compares this header with another for equality.
func (hdr UserAgent) Equal(val any) bool {
	switch v := val.(type) {
	case UserAgent:
		return hdr == v
	case *UserAgent:
		return v != nil && hdr == *v
	default:
		return false
	}
}

// IsValid checks whether the header is syntactically valid.
func (hdr UserAgent) IsValid() bool { return hdr != "" }

func parseUserAgent(value string) (UserAgent, error) {
	if value == "" {
		return "", errtrace.Wrap(newMalformedValueErr("empty User-Agent"))
	}
	return UserAgent(value), nil
}
