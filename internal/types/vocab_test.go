package types_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/sipwire/internal/types"
)

func TestMethod_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, m := range types.Methods() {
		t.Run(m.String(), func(t *testing.T) {
			t.Parallel()

			got, err := types.ParseMethod(m.String())
			if err != nil {
				t.Fatalf("ParseMethod(%q) error = %v, want nil", m.String(), err)
			}
			if got != m {
				t.Errorf("ParseMethod(%q) = %v, want %v", m.String(), got, m)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    types.Method
		wantErr error
	}{
		{"REGISTER", types.MethodRegister, nil},
		{"INVITE", types.MethodInvite, nil},
		{"ACK", types.MethodAck, nil},
		{"CANCEL", types.MethodCancel, nil},
		{"BUY", types.MethodBuy, nil},
		{"OPTIONS", types.MethodOptions, nil},
		{"", 0, types.ErrInvalidMethod},
		{"register", 0, types.ErrInvalidMethod},
		{" REGISTER", 0, types.ErrInvalidMethod},
		{"REGISTER ", 0, types.ErrInvalidMethod},
		{"BYE", 0, types.ErrInvalidMethod},
		{"REG", 0, types.ErrInvalidMethod},
		{"SIP/2.0", 0, types.ErrInvalidMethod},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			t.Parallel()

			got, err := types.ParseMethod(c.in)
			if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("ParseMethod(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
			}
			if got != c.want {
				t.Errorf("ParseMethod(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestMethod_String(t *testing.T) {
	t.Parallel()

	if got, want := types.Method(0).String(), "Method(0)"; got != want {
		t.Errorf("Method(0).String() = %q, want %q", got, want)
	}
	if types.Method(0).IsValid() || types.Method(42).IsValid() {
		t.Errorf("unknown methods reported valid")
	}

	seen := map[string]bool{}
	for _, m := range types.Methods() {
		if seen[m.String()] {
			t.Errorf("duplicate method token %q", m.String())
		}
		seen[m.String()] = true
	}
}

func TestMethod_Text(t *testing.T) {
	t.Parallel()

	var m types.Method
	if err := m.UnmarshalText([]byte("OPTIONS")); err != nil {
		t.Fatalf("m.UnmarshalText() error = %v, want nil", err)
	}
	if m != types.MethodOptions {
		t.Errorf("m = %v, want %v", m, types.MethodOptions)
	}
	if err := m.UnmarshalText([]byte("options")); !errors.Is(err, types.ErrInvalidMethod) {
		t.Errorf("m.UnmarshalText(\"options\") error = %v, want %v", err, types.ErrInvalidMethod)
	}
	if _, err := types.Method(0).MarshalText(); !errors.Is(err, types.ErrInvalidMethod) {
		t.Errorf("Method(0).MarshalText() error = %v, want %v", err, types.ErrInvalidMethod)
	}
}

func TestParseVersion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    types.Version
		wantErr error
	}{
		{"SIP", types.VersionSIP, nil},
		{"SIP/2.0", types.VersionSIP20, nil},
		{"SIP2", 0, types.ErrInvalidSipVersion},
		{"sip/2.0", 0, types.ErrInvalidSipVersion},
		{"SIP/2.0 ", 0, types.ErrInvalidSipVersion},
		{"", 0, types.ErrInvalidSipVersion},
		{"REGISTER", 0, types.ErrInvalidSipVersion},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			t.Parallel()

			got, err := types.ParseVersion(c.in)
			if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("ParseVersion(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
			}
			if got != c.want {
				t.Errorf("ParseVersion(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestVersion_TokensDistinct(t *testing.T) {
	t.Parallel()

	tokens := map[string]string{}
	for _, m := range types.Methods() {
		tokens[m.String()] = "method"
	}
	for _, v := range types.Versions() {
		if kind, ok := tokens[v.String()]; ok {
			t.Errorf("version token %q collides with %s token", v, kind)
		}
		tokens[v.String()] = "version"

		got, err := types.ParseVersion(v.String())
		if err != nil || got != v {
			t.Errorf("ParseVersion(%q) = (%v, %v), want (%v, nil)", v.String(), got, err, v)
		}
	}
	if len(tokens) != len(types.Methods())+len(types.Versions()) {
		t.Errorf("got %d distinct tokens, want %d", len(tokens), len(types.Methods())+len(types.Versions()))
	}
}
