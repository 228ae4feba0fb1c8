package header

import (
	"fmt"
	"io"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/util"
)

// Contact represents a single entry of the Contact header field.
//
//	Contact: <sip:alice@192.168.1.143:5061>;expires=3600
//	Contact: *
//
// The wildcard form is used by REGISTER to remove all bindings; such a header has no URI.
type Contact struct {
	Wildcard    bool
	DisplayName *string
	URI         URI
	Params      Params
}

func (*Contact) header() {}

// CanonicName returns the canonical name of the header.
func (*Contact) CanonicName() Name { return "Contact" }

// CompactName returns the compact name of the header.
func (*Contact) CompactName() Name { return "m" }

// RenderTo writes the header to the provided writer.
func (hdr *Contact) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr *Contact) Render(opts *RenderOptions) string {
	if hdr == nil {
		return ""
	}
	return renderHdr(hdr, opts)
}

// RenderValue returns the header value without the name prefix.
func (hdr *Contact) RenderValue() string {
	if hdr == nil {
		return ""
	}
	if hdr.Wildcard {
		return "*"
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	cw := ioutil.GetCountingWriter(sb)
	defer ioutil.FreeCountingWriter(cw)
	renderNameAddrTo(cw, hdr.DisplayName, hdr.URI)
	cw.Call(hdr.Params.RenderTo)
	return sb.String()
}

// String returns the string representation of the header value.
func (hdr *Contact) String() string { return hdr.RenderValue() }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr *Contact) Format(f fmt.State, verb rune) {
	type hideMethods Contact
	type Contact hideMethods
	formatHdr(f, verb, hdr, (*Contact)(hdr))
}

// Clone returns a copy of the header.
func (hdr *Contact) Clone() Header {
	if hdr == nil {
		return (*Contact)(nil)
	}

	hdr2 := *hdr
	hdr2.DisplayName = cloneStr(hdr.DisplayName)
	hdr2.URI = hdr.URI.Clone()
	hdr2.Params = hdr.Params.Clone()
	return &hdr2
}

// Equal compares this header with another for equality.
func (hdr *Contact) Equal(val any) bool {
	var other *Contact
	switch v := val.(type) {
	case Contact:
		other = &v
	case *Contact:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}

	if hdr.Wildcard || other.Wildcard {
		return hdr.Wildcard == other.Wildcard
	}
	return hdr.URI.Equal(other.URI) && hdr.Params.Equal(other.Params)
}

// IsValid checks whether the header is syntactically valid.
func (hdr *Contact) IsValid() bool {
	if hdr == nil {
		return false
	}
	if hdr.Wildcard {
		return hdr.DisplayName == nil && len(hdr.Params) == 0
	}
	return hdr.URI.IsValid()
}

// Expires returns the value of the "expires" parameter.
func (hdr *Contact) Expires() (Expires, bool) {
	if hdr == nil {
		return 0, false
	}
	p, ok := hdr.Params.Lookup("expires")
	if !ok || p.Value == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(*p.Value, 10, 32)
	if err != nil {
		return 0, false
	}
	return Expires(n), true
}

func parseContact(value string) (*Contact, error) {
	if util.TrimSP(value) == "*" {
		return &Contact{Wildcard: true}, nil
	}

	display, u, params, err := parseNameAddr(value)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return &Contact{DisplayName: display, URI: u, Params: params}, nil
}
