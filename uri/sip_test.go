package uri_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/sipwire/uri"
)

func TestSIP_Render(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		uri  uri.SIP
		want string
	}{
		{"host", uri.FromHost("192.168.1.143"), "sip:192.168.1.143"},
		{"user host", uri.SIP{User: uri.User("100"), Addr: uri.Host("192.168.1.143")}, "sip:100@192.168.1.143"},
		{"user host port", uri.SIP{User: uri.User("alice"), Addr: uri.HostPort("example.com", 5060)}, "sip:alice@example.com:5060"},
		{"IPv6", uri.SIP{Addr: uri.HostPort("::1", 5060)}, "sip:[::1]:5060"},
		{
			"params",
			uri.SIP{
				User:   uri.User("bob"),
				Addr:   uri.Host("b.example.com"),
				Params: uri.Params{}.Add("transport", "udp").AddFlag("lr"),
			},
			"sip:bob@b.example.com;transport=udp;lr",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			if got := c.uri.Render(nil); got != c.want {
				t.Errorf("uri.Render(nil) = %q, want %q", got, c.want)
			}
			if got := c.uri.String(); got != c.want {
				t.Errorf("uri.String() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestSIP_RenderMatchesHost(t *testing.T) {
	t.Parallel()

	for _, addr := range []uri.Addr{uri.Host("a"), uri.HostPort("a", 5060)} {
		if got, want := (uri.SIP{Addr: addr}).String(), "sip:"+addr.String(); got != want {
			t.Errorf("SIP{Addr: %v}.String() = %q, want %q", addr, got, want)
		}
		u := uri.SIP{User: uri.User("u"), Addr: addr}
		if got, want := u.String(), "sip:u@"+addr.String(); got != want {
			t.Errorf("SIP{User: u, Addr: %v}.String() = %q, want %q", addr, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    uri.SIP
		wantErr error
	}{
		{"", uri.SIP{}, uri.ErrInvalidURI},
		{"sip:", uri.SIP{}, uri.ErrInvalidURI},
		{"tel:+123", uri.SIP{}, uri.ErrInvalidURI},
		{"192.168.1.143", uri.SIP{}, uri.ErrInvalidURI},
		{"sip:192.168.1.143", uri.FromHost("192.168.1.143"), nil},
		{"SIP:example.com", uri.FromHost("example.com"), nil},
		{"sip:100@192.168.1.143", uri.SIP{User: uri.User("100"), Addr: uri.Host("192.168.1.143")}, nil},
		{"sip:alice@example.com:5060", uri.SIP{User: uri.User("alice"), Addr: uri.HostPort("example.com", 5060)}, nil},
		{"sip:a@b@example.com", uri.SIP{User: uri.User("a@b"), Addr: uri.Host("example.com")}, nil},
		{"sip:[2001:db8::1]:5070", uri.SIP{Addr: uri.HostPort("2001:db8::1", 5070)}, nil},
		{"sip:2001:db8::1", uri.SIP{Addr: uri.Host("2001:db8::1")}, nil},
		{
			"sip:bob@b.example.com;transport=tcp;lr",
			uri.SIP{
				User:   uri.User("bob"),
				Addr:   uri.Host("b.example.com"),
				Params: uri.Params{}.Add("transport", "tcp").AddFlag("lr"),
			},
			nil,
		},
		{"sip:@example.com", uri.SIP{}, uri.ErrInvalidURI},
		{"sip:alice@", uri.SIP{}, uri.ErrInvalidURI},
		{"sip:alice@example.com:0", uri.SIP{}, uri.ErrInvalidURI},
		{"sip:alice@example.com:70000", uri.SIP{}, uri.ErrInvalidURI},
		{"sip:alice@example.com;=x", uri.SIP{}, uri.ErrInvalidURI},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			t.Parallel()

			got, err := uri.Parse(c.in)
			if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("uri.Parse(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
			}
			if diff := cmp.Diff(got, c.want); diff != "" {
				t.Errorf("uri.Parse(%q) = %+v, want %+v\ndiff (-got +want):\n%v", c.in, got, c.want, diff)
			}
		})
	}
}

func TestSIP_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, in := range []uri.SIP{
		uri.FromHost("192.168.1.143"),
		{User: uri.User("100"), Addr: uri.Host("192.168.1.143")},
		{User: uri.User("alice"), Addr: uri.HostPort("atlanta.com", 5061), Params: uri.Params{}.Add("transport", "udp")},
		{Addr: uri.HostPort("fe80::1", 5060)},
	} {
		got, err := uri.Parse(in.String())
		if err != nil {
			t.Errorf("uri.Parse(%q) error = %v, want nil", in, err)
			continue
		}
		if !got.Equal(in) {
			t.Errorf("uri.Parse(%q) = %v, want %v", in, got, in)
		}
	}
}

func TestSIP_Clone(t *testing.T) {
	t.Parallel()

	u := uri.SIP{User: uri.User("alice"), Addr: uri.Host("example.com"), Params: uri.Params{}.Add("transport", "udp")}
	c := u.Clone()
	*c.User = "bob"
	*c.Params[0].Value = "tcp"
	if got, want := u.String(), "sip:alice@example.com;transport=udp"; got != want {
		t.Errorf("original changed after clone mutation: %q, want %q", got, want)
	}
	if !u.IsValid() || (uri.SIP{User: uri.User(""), Addr: uri.Host("a")}).IsValid() {
		t.Errorf("unexpected IsValid result")
	}
}
