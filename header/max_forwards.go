package header

import (
	"fmt"
	"io"
	"strconv"

	"braces.dev/errtrace"
)

// MaxForwards represents the Max-Forwards header field.
// The Max-Forwards header field limits the number of proxies or gateways that can forward the request.
type MaxForwards uint

func (MaxForwards) header() {}

// CanonicName returns the canonical name of the header.
func (MaxForwards) CanonicName() Name { return "Max-Forwards" }

// CompactName returns the compact name of the header (Max-Forwards has no compact form).
func (MaxForwards) CompactName() Name { return "Max-Forwards" }

// RenderTo writes the header to the provided writer.
func (hdr MaxForwards) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr MaxForwards) Render(opts *RenderOptions) string { return renderHdr(hdr, opts) }

// RenderValue returns the header value without the name prefix.
func (hdr MaxForwards) RenderValue() string { return strconv.FormatUint(uint64(hdr), 10) }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr MaxForwards) Format(f fmt.State, verb rune) {
	type hideMethods MaxForwards
	type MaxForwards hideMethods
	formatHdr(f, verb, hdr, MaxForwards(hdr))
}

// Clone returns a copy of the header.
func (hdr MaxForwards) Clone() Header { return hdr }

// Equal compares this header with another for equality.
func (hdr MaxForwards) Equal(val any) bool {
	switch v := val.(type) {
	case MaxForwards:
		return hdr == v
	case *MaxForwards:
		return v != nil && hdr == *v
	default:
		return false
	}
}

// IsValid checks whether the header is syntactically valid.
func (MaxForwards) IsValid() bool { return true }

func parseMaxForwards(value string) (MaxForwards, error) {
	n, err := parseUint(value)
	return MaxForwards(n), errtrace.Wrap(err)
}

func parseUint(value string) (uint, error) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, errtrace.Wrap(newMalformedValueErr("want unsigned decimal, got %q", value))
	}
	return uint(n), nil
}
