package header

import (
	"io"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/types"
	"github.com/ghettovoice/sipwire/internal/util"
	"github.com/ghettovoice/sipwire/uri"
)

// renderNameAddrTo writes `["display" ]<uri>`.
// The URI is always enclosed in angle brackets so its own parameters can't be confused with header parameters.
func renderNameAddrTo(cw *ioutil.CountingWriter, display *string, u URI) {
	if display != nil {
		cw.WriteString(quoteDisplay(*display))
		cw.WriteString(" ")
	}
	cw.WriteString("<")
	cw.Call(func(w io.Writer) (int, error) { return u.RenderTo(w, nil) })
	cw.WriteString(">")
}

func quoteDisplay(s string) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	sb.WriteByte('"')
	for i := range len(s) {
		if s[i] == '"' || s[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

// parseNameAddr parses a name-addr or a bare addr-spec followed by header parameters.
//
//	"Alice" <sip:alice@example.com>;tag=1
//	Alice <sip:alice@example.com>;tag=1
//	sip:alice@example.com;tag=1
//
// In the bare form everything after the first ';' belongs to the header, not to the URI.
func parseNameAddr(value string) (display *string, u URI, params Params, err error) {
	s := util.TrimSP(value)
	if s == "" {
		return nil, URI{}, nil, errtrace.Wrap(newMalformedValueErr("empty name-addr"))
	}

	quoted := false
	if s[0] == '"' {
		name, rest, ok := unquote(s)
		if !ok {
			return nil, URI{}, nil, errtrace.Wrap(newMalformedValueErr("unterminated display name in %q", value))
		}
		display, s, quoted = &name, util.TrimSP(rest), true
	}

	var rawURI, rawParams string
	if i := strings.IndexByte(s, '<'); i >= 0 {
		if !quoted {
			if name := util.TrimSP(s[:i]); name != "" {
				display = &name
			}
		} else if i != 0 {
			return nil, URI{}, nil, errtrace.Wrap(newMalformedValueErr("unexpected %q after display name", s[:i]))
		}
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			return nil, URI{}, nil, errtrace.Wrap(newMalformedValueErr("missing '>' in %q", value))
		}
		rawURI, rawParams = s[i+1:i+j], util.TrimSP(s[i+j+1:])
		if rawParams != "" && rawParams[0] != ';' {
			return nil, URI{}, nil, errtrace.Wrap(newMalformedValueErr("unexpected %q after URI", rawParams))
		}
	} else {
		if quoted {
			return nil, URI{}, nil, errtrace.Wrap(newMalformedValueErr("missing '<' after display name in %q", value))
		}
		rawURI, rawParams, _ = strings.Cut(s, ";")
	}

	if u, err = uri.Parse(util.TrimSP(rawURI)); err != nil {
		return nil, URI{}, nil, errtrace.Wrap(newMalformedValueErr(err))
	}
	if params, err = types.ParseParams(rawParams); err != nil {
		return nil, URI{}, nil, errtrace.Wrap(newMalformedValueErr(err))
	}
	return display, u, params, nil
}

// unquote reads a quoted string at the start of s and returns its unescaped content and the remainder.
func unquote(s string) (val, rest string, ok bool) {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 == len(s) {
				return "", "", false
			}
			i++
			sb.WriteByte(s[i])
		case '"':
			return sb.String(), s[i+1:], true
		default:
			sb.WriteByte(c)
		}
	}
	return "", "", false
}
