package header

import (
	"fmt"
	"io"
	"strconv"

	"braces.dev/errtrace"
)

// ContentLength represents the Content-Length header field.
// The Content-Length header field indicates the size of the message-body, in decimal number of octets.
type ContentLength uint

func (ContentLength) header() {}

// CanonicName returns the canonical name of the header.
func (ContentLength) CanonicName() Name { return "Content-Length" }

// CompactName returns the compact name of the header.
func (ContentLength) CompactName() Name { return "l" }

// RenderTo writes the header to the provided writer.
func (hdr ContentLength) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr ContentLength) Render(opts *RenderOptions) string { return renderHdr(hdr, opts) }

// RenderValue returns the header value without the name prefix.
func (hdr ContentLength) RenderValue() string { return strconv.FormatUint(uint64(hdr), 10) }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr ContentLength) Format(f fmt.State, verb rune) {
	type hideMethods ContentLength
	type ContentLength hideMethods
	formatHdr(f, verb, hdr, ContentLength(hdr))
}

// Clone returns a copy of the header.
func (hdr ContentLength) Clone() Header { return hdr }

// Equal compares this header with another for equality.
func (hdr ContentLength) Equal(val any) bool {
	switch v := val.(type) {
	case ContentLength:
		return hdr == v
	case *ContentLength:
		return v != nil && hdr == *v
	default:
		return false
	}
}

// IsValid checks whether the header is syntactically valid.
func (ContentLength) IsValid() bool { return true }

func parseContentLength(value string) (ContentLength, error) {
	n, err := parseUint(value)
	return ContentLength(n), errtrace.Wrap(err)
}
