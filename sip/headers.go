package sip

import (
	"io"
	"slices"

	"braces.dev/errtrace"
	"github.com/samber/lo"

	"github.com/ghettovoice/sipwire/header"
	"github.com/ghettovoice/sipwire/internal/ioutil"
)

// Headers is the ordered list of message header fields.
// Order is preserved on render and parse, repeated fields are allowed.
type Headers []Header

// Append adds hdrs to the end of the list.
func (hs *Headers) Append(hdrs ...Header) *Headers {
	*hs = append(*hs, hdrs...)
	return hs
}

// Set replaces the first header with the same name as hdr, or appends it if there is none.
func (hs *Headers) Set(hdr Header) *Headers {
	if i := hs.index(hdr.CanonicName()); i >= 0 {
		(*hs)[i] = hdr
		return hs
	}
	return hs.Append(hdr)
}

// Del removes all headers with the given name.
func (hs *Headers) Del(name string) *Headers {
	n := header.CanonicName(name)
	*hs = lo.Reject(*hs, func(hdr Header, _ int) bool { return hdr.CanonicName() == n })
	return hs
}

func (hs Headers) index(name header.Name) int {
	_, i, _ := lo.FindIndexOf(hs, func(hdr Header) bool { return hdr.CanonicName() == name })
	return i
}

// Get returns all headers with the given name in wire order.
// The name is matched case-insensitively, compact forms included.
func (hs Headers) Get(name string) []Header {
	n := header.CanonicName(name)
	return lo.Filter(hs, func(hdr Header, _ int) bool { return hdr.CanonicName() == n })
}

// First returns the first header with the given name.
func (hs Headers) First(name string) (Header, bool) {
	n := header.CanonicName(name)
	return lo.Find(hs, func(hdr Header) bool { return hdr.CanonicName() == n })
}

// Has reports whether at least one header with the given name is present.
func (hs Headers) Has(name string) bool {
	return hs.index(header.CanonicName(name)) >= 0
}

// first returns the first header with the given name if it was parsed into T.
// A later header of the same name is never looked at.
func first[T Header](hs Headers, name string) (T, bool) {
	hdr, ok := hs.First(name)
	if !ok {
		var zero T
		return zero, false
	}
	h, ok := hdr.(T)
	return h, ok
}

// Via returns the topmost Via hop.
// It reports false if the topmost Via field was kept unparsed as [*header.Any].
func (hs Headers) Via() (*header.Via, bool) { return first[*header.Via](hs, "Via") }

// CallID returns the Call-ID header.
func (hs Headers) CallID() (header.CallID, bool) { return first[header.CallID](hs, "Call-ID") }

// CSeq returns the CSeq header.
func (hs Headers) CSeq() (*header.CSeq, bool) { return first[*header.CSeq](hs, "CSeq") }

// From returns the From header.
func (hs Headers) From() (*header.From, bool) { return first[*header.From](hs, "From") }

// To returns the To header.
func (hs Headers) To() (*header.To, bool) { return first[*header.To](hs, "To") }

// Contact returns the first Contact header.
func (hs Headers) Contact() (*header.Contact, bool) { return first[*header.Contact](hs, "Contact") }

// MaxForwards returns the Max-Forwards header.
func (hs Headers) MaxForwards() (header.MaxForwards, bool) {
	return first[header.MaxForwards](hs, "Max-Forwards")
}

// ContentLength returns the Content-Length header.
func (hs Headers) ContentLength() (header.ContentLength, bool) {
	return first[header.ContentLength](hs, "Content-Length")
}

// Expires returns the Expires header.
func (hs Headers) Expires() (header.Expires, bool) { return first[header.Expires](hs, "Expires") }

// UserAgent returns the User-Agent header.
func (hs Headers) UserAgent() (header.UserAgent, bool) {
	return first[header.UserAgent](hs, "User-Agent")
}

// Clone returns a deep copy of the list.
func (hs Headers) Clone() Headers {
	if hs == nil {
		return nil
	}
	return lo.Map(hs, func(hdr Header, _ int) Header { return hdr.Clone() })
}

// Equal reports whether both lists hold equal headers in the same order.
func (hs Headers) Equal(val any) bool {
	var other Headers
	switch v := val.(type) {
	case Headers:
		other = v
	case *Headers:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return slices.EqualFunc(hs, other, func(h1, h2 Header) bool { return h1.Equal(h2) })
}

// IsValid reports whether every header is valid.
func (hs Headers) IsValid() bool {
	return lo.EveryBy(hs, func(hdr Header) bool { return hdr != nil && hdr.IsValid() })
}

// RenderTo writes each header followed by CRLF.
func (hs Headers) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for _, hdr := range hs {
		cw.Call(func(w io.Writer) (int, error) { return errtrace.Wrap2(hdr.RenderTo(w, opts)) })
		cw.WriteString("\r\n")
	}
	return errtrace.Wrap2(cw.Result())
}
