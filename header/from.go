package header

import (
	"fmt"
	"io"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/util"
)

// From represents the From header field.
// The From header field indicates the initiator of the request.
//
//	From: "Alice" <sip:alice@example.com>;tag=1928301774
//
// Tag is rendered only when set, before the other parameters.
type From struct {
	DisplayName *string // optional display name, rendered quoted
	URI         URI     // address of record
	Tag         *string // "tag" parameter
	Params      Params  // any other parameters in wire order
}

func (*From) header() {}

// CanonicName returns the canonical name of the header.
func (*From) CanonicName() Name { return "From" }

// CompactName returns the compact name of the header.
func (*From) CompactName() Name { return "f" }

// RenderTo writes the header to the provided writer.
func (hdr *From) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr *From) Render(opts *RenderOptions) string {
	if hdr == nil {
		return ""
	}
	return renderHdr(hdr, opts)
}

// RenderValue returns the header value without the name prefix.
func (hdr *From) RenderValue() string {
	if hdr == nil {
		return ""
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	cw := ioutil.GetCountingWriter(sb)
	defer ioutil.FreeCountingWriter(cw)
	renderNameAddrTo(cw, hdr.DisplayName, hdr.URI)
	if hdr.Tag != nil {
		cw.WriteString(";tag=")
		cw.WriteString(*hdr.Tag)
	}
	cw.Call(hdr.Params.RenderTo)
	return sb.String()
}

// String returns the string representation of the header value.
func (hdr *From) String() string { return hdr.RenderValue() }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr *From) Format(f fmt.State, verb rune) {
	type hideMethods From
	type From hideMethods
	formatHdr(f, verb, hdr, (*From)(hdr))
}

// Clone returns a copy of the header.
func (hdr *From) Clone() Header {
	if hdr == nil {
		return (*From)(nil)
	}

	hdr2 := *hdr
	hdr2.DisplayName = cloneStr(hdr.DisplayName)
	hdr2.URI = hdr.URI.Clone()
	hdr2.Tag = cloneStr(hdr.Tag)
	hdr2.Params = hdr.Params.Clone()
	return &hdr2
}

// Equal compares this header with another for equality.
// Display names are ignored, tags are compared case-sensitively.
func (hdr *From) Equal(val any) bool {
	var other *From
	switch v := val.(type) {
	case From:
		other = &v
	case *From:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}

	return hdr.URI.Equal(other.URI) &&
		eqStr(hdr.Tag, other.Tag) &&
		hdr.Params.Equal(other.Params)
}

// IsValid checks whether the header is syntactically valid.
func (hdr *From) IsValid() bool {
	return hdr != nil && hdr.URI.IsValid() && (hdr.Tag == nil || *hdr.Tag != "")
}

func parseFrom(value string) (*From, error) {
	display, u, params, err := parseNameAddr(value)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	hdr := &From{DisplayName: display, URI: u}
	if p, rest, ok := takeParam(params, "tag"); ok {
		if p.Value == nil || *p.Value == "" {
			return nil, errtrace.Wrap(newMalformedValueErr("empty tag"))
		}
		hdr.Tag, params = p.Value, rest
	}
	hdr.Params = params
	return hdr, nil
}
