package header

import (
	"fmt"
	"io"

	"braces.dev/errtrace"
)

// CallID represents the Call-ID header field.
// The Call-ID header field uniquely identifies a particular invitation or all registrations of a particular client.
type CallID string

// NewCallID generates a Call-ID from a random token of src.
// The result is "token@host" when host is non-empty, otherwise the bare token.
// A nil src falls back to [UUIDTokens].
func NewCallID(src TokenSource, host string) CallID {
	if src == nil {
		src = UUIDTokens
	}
	if host == "" {
		return CallID(src.Token())
	}
	return CallID(src.Token() + "@" + host)
}

func (CallID) header() {}

// CanonicName returns the canonical name of the header.
func (CallID) CanonicName() Name { return "Call-ID" }

// CompactName returns the compact name of the header.
func (CallID) CompactName() Name { return "i" }

// RenderTo writes the header to the provided writer.
func (hdr CallID) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr CallID) Render(opts *RenderOptions) string { return renderHdr(hdr, opts) }

// RenderValue returns the header value without the name prefix.
func (hdr CallID) RenderValue() string { return string(hdr) }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr CallID) Format(f fmt.State, verb rune) {
	type hideMethods CallID
	type CallID hideMethods
	formatHdr(f, verb, hdr, CallID(hdr))
}

// Clone returns a copy of the header.
func (hdr CallID) Clone() Header { return hdr }

// Equal compares this header with another for equality.
func (hdr CallID) Equal(val any) bool {
	var other CallID
	switch v := val.(type) {
	case CallID:
		other = v
	case *CallID:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return hdr == other
}

// IsValid checks whether the header is syntactically valid.
func (hdr CallID) IsValid() bool { return hdr != "" && !containsWS(string(hdr)) }

func parseCallID(value string) (CallID, error) {
	hdr := CallID(value)
	if !hdr.IsValid() {
		return "", errtrace.Wrap(newMalformedValueErr("invalid Call-ID %q", value))
	}
	return hdr, nil
}
