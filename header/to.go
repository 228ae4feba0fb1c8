package header

import (
	"fmt"
	"io"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/util"
)

// To represents the To header field.
// The To header field specifies the logical recipient of the request.
//
//	To: Bob <sip:bob@biloxi.com>;tag=a6c85cf
//
// A request outside a dialog carries no tag; the UAS adds one to its responses.
type To struct {
	DisplayName *string // optional display name, rendered quoted
	URI         URI     // address of record
	Tag         *string // "tag" parameter
	Params      Params  // any other parameters in wire order
}

func (*To) header() {}

// CanonicName returns the canonical name of the header.
func (*To) CanonicName() Name { return "To" }

// CompactName returns the compact name of the header.
func (*To) CompactName() Name { return "t" }

// RenderTo writes the header to the provided writer.
func (hdr *To) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr *To) Render(opts *RenderOptions) string {
	if hdr == nil {
		return ""
	}
	return renderHdr(hdr, opts)
}

// RenderValue returns the header value without the name prefix.
func (hdr *To) RenderValue() string {
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
func (hdr *To) String() string { return hdr.RenderValue() }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr *To) Format(f fmt.State, verb rune) {
	type hideMethods To
	type To hideMethods
	formatHdr(f, verb, hdr, (*To)(hdr))
}

// Clone returns a copy of the header.
func (hdr *To) Clone() Header {
	if hdr == nil {
		return (*To)(nil)
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
func (hdr *To) Equal(val any) bool {
	var other *To
	switch v := val.(type) {
	case To:
		other = &v
	case *To:
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

// InDialog reports whether the header carries a tag.
func (hdr *To) InDialog() bool { return hdr != nil && hdr.Tag != nil }

// IsValid checks whether the header is syntactically valid.
func (hdr *To) IsValid() bool {
	return hdr != nil && hdr.URI.IsValid() && (hdr.Tag == nil || *hdr.Tag != "")
}

func parseTo(value string) (*To, error) {
	display, u, params, err := parseNameAddr(value)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	hdr := &To{DisplayName: display, URI: u}
	if p, rest, ok := takeParam(params, "tag"); ok {
		if p.Value == nil || *p.Value == "" {
			return nil, errtrace.Wrap(newMalformedValueErr("empty tag"))
		}
		hdr.Tag, params = p.Value, rest
	}
	hdr.Params = params
	return hdr, nil
}
