package header

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"braces.dev/errtrace"
)

// Expires represents the Expires header field, the relative binding lifetime in seconds.
type Expires uint

// ExpiresIn converts d to whole seconds.
func ExpiresIn(d time.Duration) Expires { return Expires(d / time.Second) }

// Duration returns the header value as a time.Duration.
func (hdr Expires) Duration() time.Duration { return time.Duration(hdr) * time.Second }

func (Expires) header() {}

// CanonicName returns the canonical name of the header.
func (Expires) CanonicName() Name { return "Expires" }

// CompactName returns the compact name of the header (Expires has no compact form).
func (Expires) CompactName() Name { return "Expires" }

// RenderTo writes the header to the provided writer.
func (hdr Expires) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr Expires) Render(opts *RenderOptions) string { return renderHdr(hdr, opts) }

// RenderValue returns the header value without the name prefix.
func (hdr Expires) RenderValue() string { return strconv.FormatUint(uint64(hdr), 10) }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr Expires) Format(f fmt.State, verb rune) {
	type hideMethods Expires
	type Expires hideMethods
	formatHdr(f, verb, hdr, Expires(hdr))
}

// Clone returns a copy of the header.
func (hdr Expires) Clone() Header { return hdr }

// Equal compares this header with another for equality.
func (hdr Expires) Equal(val any) bool {
	switch v := val.(type) {
	case Expires:
		return hdr == v
	case *Expires:
		return v != nil && hdr == *v
	default:
		return false
	}
}

// IsValid checks whether the header is syntactically valid.
func (Expires) IsValid() bool { return true }

func parseExpires(value string) (Expires, error) {
	n, err := parseUint(value)
	return Expires(n), errtrace.Wrap(err)
}
