package header

import (
	"fmt"
	"io"

	"braces.dev/errtrace"
)

// Any represents a header field outside the catalog.
// Both the name and the value are kept exactly as they were received.
type Any struct {
	Name  string
	Value string
}

func (*Any) header() {}

// CanonicName returns the canonical form of the header name.
func (hdr *Any) CanonicName() Name {
	if hdr == nil {
		return ""
	}
	return CanonicName(hdr.Name)
}

// CompactName returns the header name in canonical form, an unknown header has no compact form.
func (hdr *Any) CompactName() Name { return hdr.CanonicName() }

// RenderTo writes the header to the provided writer using the original name.
func (hdr *Any) RenderTo(w io.Writer, _ *RenderOptions) (num int, err error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(fmt.Fprint(w, hdr.Name, ": ", hdr.Value))
}

// Render returns the string representation of the header.
func (hdr *Any) Render(opts *RenderOptions) string {
	if hdr == nil {
		return ""
	}
	return renderHdr(hdr, opts)
}

// RenderValue returns the header value without the name prefix.
func (hdr *Any) RenderValue() string {
	if hdr == nil {
		return ""
	}
	return hdr.Value
}

// String returns the string representation of the header value.
func (hdr *Any) String() string { return hdr.RenderValue() }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr *Any) Format(f fmt.State, verb rune) {
	type hideMethods Any
	type Any hideMethods
	formatHdr(f, verb, hdr, (*Any)(hdr))
}

// Clone returns a copy of the header.
func (hdr *Any) Clone() Header {
	if hdr == nil {
		return (*Any)(nil)
	}
	hdr2 := *hdr
	return &hdr2
}

// Equal compares this header with another for equality.
// Names are compared in canonical form, values byte-for-byte.
func (hdr *Any) Equal(val any) bool {
	var other *Any
	switch v := val.(type) {
	case Any:
		other = &v
	case *Any:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}
	return hdr.CanonicName() == other.CanonicName() && hdr.Value == other.Value
}

// IsValid checks whether the header is syntactically valid.
func (hdr *Any) IsValid() bool { return hdr != nil && Name(hdr.Name).IsValid() }
