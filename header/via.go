package header

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/types"
	"github.com/ghettovoice/sipwire/internal/util"
)

// Via represents a single hop of the Via header field:
//
//	Via: SIP/2.0/UDP 192.168.1.1:5060;branch=z9hG4bK776asdhds;rport
//
// Branch and RPort are rendered only when set, in that order, followed by the other parameters.
type Via struct {
	Proto     Version // protocol name and version, normally types.VersionSIP20
	Transport string  // transport token, e.g. "UDP"
	Addr      Addr    // sent-by host and optional port
	Branch    *string // "branch" parameter
	RPort     *RPort  // "rport" parameter (RFC 3581)
	Params    Params  // any other parameters in wire order
}

// RPort is the value of the Via "rport" parameter.
// Zero Port renders the bare ";rport" flag used in requests.
type RPort struct {
	Port uint16
}

func (rp RPort) String() string {
	if rp.Port == 0 {
		return "rport"
	}
	return "rport=" + strconv.Itoa(int(rp.Port))
}

func (*Via) header() {}

// CanonicName returns the canonical name of the header.
func (*Via) CanonicName() Name { return "Via" }

// CompactName returns the compact name of the header.
func (*Via) CompactName() Name { return "v" }

// RenderTo writes the header to the provided writer.
func (hdr *Via) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	if hdr == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderHdrTo(w, hdr, opts))
}

// Render returns the string representation of the header.
func (hdr *Via) Render(opts *RenderOptions) string {
	if hdr == nil {
		return ""
	}
	return renderHdr(hdr, opts)
}

// RenderValue returns the header value without the name prefix.
func (hdr *Via) RenderValue() string {
	if hdr == nil {
		return ""
	}

	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	hdr.renderValueTo(sb) //nolint:errcheck
	return sb.String()
}

func (hdr *Via) renderValueTo(w io.Writer) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Fprint(hdr.Proto, "/", hdr.Transport, " ", hdr.Addr)
	if hdr.Branch != nil {
		cw.WriteString(";branch=")
		cw.WriteString(*hdr.Branch)
	}
	if hdr.RPort != nil {
		cw.WriteString(";")
		cw.WriteString(hdr.RPort.String())
	}
	cw.Call(hdr.Params.RenderTo)
	return errtrace.Wrap2(cw.Result())
}

// String returns the string representation of the header value.
func (hdr *Via) String() string { return hdr.RenderValue() }

// Format implements fmt.Formatter for custom formatting of the header.
func (hdr *Via) Format(f fmt.State, verb rune) {
	type hideMethods Via
	type Via hideMethods
	formatHdr(f, verb, hdr, (*Via)(hdr))
}

// Clone returns a copy of the header.
func (hdr *Via) Clone() Header {
	if hdr == nil {
		return (*Via)(nil)
	}

	hdr2 := *hdr
	hdr2.Addr = hdr.Addr.Clone()
	hdr2.Branch = cloneStr(hdr.Branch)
	if hdr.RPort != nil {
		hdr2.RPort = util.Ptr(*hdr.RPort)
	}
	hdr2.Params = hdr.Params.Clone()
	return &hdr2
}

// Equal compares this header with another for equality.
// Transport and branch are compared case-insensitively.
func (hdr *Via) Equal(val any) bool {
	var other *Via
	switch v := val.(type) {
	case Via:
		other = &v
	case *Via:
		other = v
	default:
		return false
	}

	if hdr == other {
		return true
	} else if hdr == nil || other == nil {
		return false
	}

	return hdr.Proto == other.Proto &&
		util.EqFold(hdr.Transport, other.Transport) &&
		hdr.Addr.Equal(other.Addr) &&
		eqFoldStr(hdr.Branch, other.Branch) &&
		((hdr.RPort == nil && other.RPort == nil) ||
			(hdr.RPort != nil && other.RPort != nil && *hdr.RPort == *other.RPort)) &&
		hdr.Params.Equal(other.Params)
}

// IsValid checks whether the header is syntactically valid.
func (hdr *Via) IsValid() bool {
	return hdr != nil &&
		hdr.Proto.IsValid() &&
		hdr.Transport != "" && !strings.ContainsAny(hdr.Transport, " \t/;") &&
		hdr.Addr.IsValid() &&
		(hdr.Branch == nil || *hdr.Branch != "")
}

// IsRFC3261 reports whether the branch starts with the RFC 3261 magic cookie.
func (hdr *Via) IsRFC3261() bool {
	return hdr != nil && hdr.Branch != nil && strings.HasPrefix(*hdr.Branch, BranchMagicCookie)
}

func parseVia(value string) (*Via, error) {
	sent, rawParams, _ := strings.Cut(value, ";")
	fields := strings.Fields(sent)
	if len(fields) != 2 {
		return nil, errtrace.Wrap(newMalformedValueErr("want \"<protocol> <sent-by>\", got %q", sent))
	}

	i := strings.LastIndexByte(fields[0], '/')
	if i <= 0 || i == len(fields[0])-1 {
		return nil, errtrace.Wrap(newMalformedValueErr("malformed sent-protocol %q", fields[0]))
	}
	proto, err := types.ParseVersion(fields[0][:i])
	if err != nil {
		return nil, errtrace.Wrap(newMalformedValueErr(err))
	}
	hdr := &Via{
		Proto:     proto,
		Transport: fields[0][i+1:],
	}

	if hdr.Addr, err = types.ParseAddr(fields[1]); err != nil {
		return nil, errtrace.Wrap(newMalformedValueErr(err))
	}

	params, err := types.ParseParams(rawParams)
	if err != nil {
		return nil, errtrace.Wrap(newMalformedValueErr(err))
	}

	var (
		p  Param
		ok bool
	)
	if p, params, ok = takeParam(params, "branch"); ok {
		if p.Value == nil || *p.Value == "" {
			return nil, errtrace.Wrap(newMalformedValueErr("empty branch"))
		}
		hdr.Branch = p.Value
	}
	if p, params, ok = takeParam(params, "rport"); ok {
		hdr.RPort = &RPort{}
		if p.Value != nil {
			port, err := strconv.ParseUint(*p.Value, 10, 16)
			if err != nil || port == 0 {
				return nil, errtrace.Wrap(newMalformedValueErr("malformed rport %q", *p.Value))
			}
			hdr.RPort.Port = uint16(port)
		}
	}
	hdr.Params = params
	return hdr, nil
}
