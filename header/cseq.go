package header

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/types"
)

// CSeq represents the CSeq header field.
// The CSeq header field serves as a way to identify and order transactions.
type CSeq struct {
	SeqNum uint32
	Method Method
}

func (*CSeq) header() {}

// CanonicName returns the canonical name of the header.
func (*CSeq) CanonicName() Name { return "CSeq" }

// CompactName returns the compact name of the header (CSeq has no compact form).
func (*CSeq) CompactName() Name { return "CSeq" }

// RenderTo writes the header to the provided writer.
func (hdr *CSeq) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr *CSeq) Render(opts *RenderOptions) string {
	if hdr == nil {
		return ""
	}
	return renderHdr(hdr, opts)
}

// RenderValue returns the header value without the name prefix.
func (hdr *CSeq) RenderValue() string {
	if hdr == nil {
		return ""
	}
	return strconv.FormatUint(uint64(hdr.SeqNum), 10) + " " + hdr.Method.String()
}

// String returns the string representation of the header value.
func (hdr *CSeq) String() string { return hdr.RenderValue() }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr *CSeq) Format(f fmt.State, verb rune) {
	type hideMethods CSeq
	type CSeq hideMethods
	formatHdr(f, verb, hdr, (*CSeq)(hdr))
}

// Clone returns a copy of the header.
func (hdr *CSeq) Clone() Header {
	if hdr == nil {
		return (*CSeq)(nil)
	}
	hdr2 := *hdr
	return &hdr2
}

// Equal compares this header with another for equality.
func (hdr *CSeq) Equal(val any) bool {
	var other *CSeq
	switch v := val.(type) {
	case CSeq:
		other = &v
	case *CSeq:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}
	return *hdr == *other
}

// IsValid checks whether the header is syntactically valid.
func (hdr *CSeq) IsValid() bool { return hdr != nil && hdr.Method.IsValid() }

func parseCSeq(value string) (*CSeq, error) {
	fields := strings.Fields(value)
	if len(fields) != 2 {
		return nil, errtrace.Wrap(newMalformedValueErr("want \"<seq> <method>\", got %q", value))
	}
	seq, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return nil, errtrace.Wrap(newMalformedValueErr("malformed sequence number %q", fields[0]))
	}
	method, err := types.ParseMethod(fields[1])
	if err != nil {
		return nil, errtrace.Wrap(newMalformedValueErr(err))
	}
	return &CSeq{SeqNum: uint32(seq), Method: method}, nil
}
