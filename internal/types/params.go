package types

import (
	"io"
	"slices"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/util"
)

// ErrInvalidParam is returned when a ";name[=value]" parameter can not be parsed.
const ErrInvalidParam errorutil.Error = "invalid parameter"

// Param is a single ";name[=value]" parameter.
// A nil Value denotes a flag parameter rendered without "=".
type Param struct {
	Name  string
	Value *string
}

// String renders the parameter without the leading ';'.
func (p Param) String() string {
	if p.Value == nil {
		return p.Name
	}
	return p.Name + "=" + *p.Value
}

// Params is an ordered list of parameters.
// Names are matched case-insensitively, order and duplicates are preserved.
type Params []Param

// Add appends a parameter with value and returns the updated list.
func (ps Params) Add(name, value string) Params {
	return append(ps, Param{Name: name, Value: &value})
}

// AddFlag appends a parameter without value and returns the updated list.
func (ps Params) AddFlag(name string) Params {
	return append(ps, Param{Name: name})
}

// Lookup returns the first parameter with the given name.
func (ps Params) Lookup(name string) (Param, bool) {
	i := slices.IndexFunc(ps, func(p Param) bool { return util.EqFold(p.Name, name) })
	if i < 0 {
		return Param{}, false
	}
	return ps[i], true
}

// Has checks whether a parameter with the given name is in the list.
func (ps Params) Has(name string) bool {
	_, ok := ps.Lookup(name)
	return ok
}

// Clone returns a deep copy of the list.
func (ps Params) Clone() Params {
	if ps == nil {
		return nil
	}
	ps2 := make(Params, len(ps))
	for i, p := range ps {
		ps2[i] = Param{Name: p.Name}
		if p.Value != nil {
			ps2[i].Value = util.Ptr(*p.Value)
		}
	}
	return ps2
}

// Equal reports whether both lists hold the same parameters in the same order.
// Names are compared case-insensitively, values exactly.
func (ps Params) Equal(val any) bool {
	var other Params
	switch v := val.(type) {
	case Params:
		other = v
	case *Params:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return slices.EqualFunc(ps, other, func(p1, p2 Param) bool {
		if !util.EqFold(p1.Name, p2.Name) || (p1.Value == nil) != (p2.Value == nil) {
			return false
		}
		return p1.Value == nil || *p1.Value == *p2.Value
	})
}

// RenderTo writes each parameter as ";name[=value]".
func (ps Params) RenderTo(w io.Writer) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	for _, p := range ps {
		cw.WriteString(";")
		cw.WriteString(p.String())
	}
	return errtrace.Wrap2(cw.Result())
}

// String renders the list as ";name[=value]..." string.
func (ps Params) String() string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	ps.RenderTo(sb) //nolint:errcheck
	return sb.String()
}

// ParseParams parses a ";"-separated list such as "branch=z9hG4bK1;rport".
// A leading ';' is optional. Whitespace around names, '=' and values is trimmed.
func ParseParams(s string) (Params, error) {
	s = strings.TrimPrefix(util.TrimSP(s), ";")
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ";")
	ps := make(Params, 0, len(parts))
	for _, part := range parts {
		name, value, hasValue := strings.Cut(part, "=")
		name = util.TrimSP(name)
		if name == "" || strings.ContainsAny(name, " \t\"<>,") {
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidParam, "malformed parameter %q", part))
		}
		if !hasValue {
			ps = ps.AddFlag(name)
			continue
		}
		ps = ps.Add(name, util.TrimSP(value))
	}
	return ps, nil
}
