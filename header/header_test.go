package header_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ghettovoice/sipwire/header"
	"github.com/ghettovoice/sipwire/internal/types"
	"github.com/ghettovoice/sipwire/uri"
)

func TestCanonicName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want header.Name
	}{
		{"via", "Via"},
		{"V", "Via"},
		{"call-id", "Call-ID"},
		{"CALL-ID", "Call-ID"},
		{"i", "Call-ID"},
		{"cseq", "CSeq"},
		{"max-forwards", "Max-Forwards"},
		{"l", "Content-Length"},
		{"f", "From"},
		{"t", "To"},
		{"m", "Contact"},
		{" user-agent ", "User-Agent"},
		{"x-custom-header", "X-Custom-Header"},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			t.Parallel()

			if got := header.CanonicName(c.in); got != c.want {
				t.Errorf("header.CanonicName(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		hdrName string
		value   string
		want    header.Header
		wantErr error
	}{
		{"max-forwards", "Max-Forwards", "70", header.MaxForwards(70), nil},
		{"max-forwards lower case", "max-forwards", "70", header.MaxForwards(70), nil},
		{"content-length compact", "l", "0", header.ContentLength(0), nil},
		{"call-id", "Call-ID", "a84b4c76e66710@pc33.atlanta.com", header.CallID("a84b4c76e66710@pc33.atlanta.com"), nil},
		{"call-id compact", "i", "abc", header.CallID("abc"), nil},
		{"cseq", "CSeq", "12340 REGISTER", &header.CSeq{SeqNum: 12340, Method: types.MethodRegister}, nil},
		{"user-agent", "User-Agent", "sipwire/0.1 (linux)", header.UserAgent("sipwire/0.1 (linux)"), nil},
		{"expires", "Expires", "3600", header.Expires(3600), nil},
		{
			"via",
			"v",
			"SIP/2.0/UDP 192.168.1.1:5060;branch=z9hG4bK776;rport",
			&header.Via{
				Proto:     types.VersionSIP20,
				Transport: "UDP",
				Addr:      header.HostPort("192.168.1.1", 5060),
				Branch:    ptr("z9hG4bK776"),
				RPort:     &header.RPort{},
			},
			nil,
		},
		{
			"from",
			"From",
			"<sip:100@192.168.1.143>;tag=abc",
			&header.From{
				URI: uri.SIP{User: uri.User("100"), Addr: uri.Host("192.168.1.143")},
				Tag: ptr("abc"),
			},
			nil,
		},
		{
			"to compact",
			"t",
			"sip:100@192.168.1.143",
			&header.To{URI: uri.SIP{User: uri.User("100"), Addr: uri.Host("192.168.1.143")}},
			nil,
		},
		{"contact wildcard", "m", "*", &header.Contact{Wildcard: true}, nil},
		{"via multi", "Via", "SIP/2.0/UDP a, SIP/2.0/UDP b", &header.Any{Name: "Via", Value: "SIP/2.0/UDP a, SIP/2.0/UDP b"}, nil},
		{"unknown", "X-Custom", "Some Value;x=1", &header.Any{Name: "X-Custom", Value: "Some Value;x=1"}, nil},
		{"unknown keeps case", "x-CUSTOM", "v", &header.Any{Name: "x-CUSTOM", Value: "v"}, nil},
		{"bad max-forwards", "Max-Forwards", "seventy", nil, header.ErrMalformedHeaderValue},
		{"negative content-length", "Content-Length", "-1", nil, header.ErrMalformedHeaderValue},
		{"empty call-id", "Call-ID", "", nil, header.ErrMalformedHeaderValue},
		{"bad cseq method", "CSeq", "1 FOOBAR", nil, header.ErrMalformedHeaderValue},
		{"bad cseq", "CSeq", "REGISTER", nil, header.ErrMalformedHeaderValue},
		{"bad via", "Via", "SIP/2.0/UDP", nil, header.ErrMalformedHeaderValue},
		{"bad from", "From", "<http://example.com>", nil, header.ErrMalformedHeaderValue},
		{"bad name", "Bad Name", "x", nil, header.ErrMalformedHeaderLine},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got, err := header.Parse(c.hdrName, c.value)
			if c.wantErr != nil {
				if !errors.Is(err, c.wantErr) {
					t.Fatalf("header.Parse(%q, %q) error = %v, want %v", c.hdrName, c.value, err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("header.Parse(%q, %q) error = %v, want nil", c.hdrName, c.value, err)
			}
			if diff := cmp.Diff(got, c.want); diff != "" {
				t.Errorf("header.Parse(%q, %q) = %+v, want %+v\ndiff (-got +want):\n%v", c.hdrName, c.value, got, c.want, diff)
			}
		})
	}
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	got, err := header.ParseLine("Content-Length :  5 ")
	if err != nil {
		t.Fatalf("header.ParseLine() error = %v, want nil", err)
	}
	if want := header.ContentLength(5); !got.Equal(want) {
		t.Errorf("header.ParseLine() = %v, want %v", got, want)
	}

	if _, err := header.ParseLine("no separator"); !errors.Is(err, header.ErrMalformedHeaderLine) {
		t.Errorf("header.ParseLine() error = %v, want %v", err, header.ErrMalformedHeaderLine)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	hdrs := []header.Header{
		header.MaxForwards(70),
		header.ContentLength(0),
		header.CallID("f81d4fae-7dec-11d0-a765-00a0c91e6bf6@192.168.1.143"),
		&header.CSeq{SeqNum: 12340, Method: types.MethodRegister},
		header.UserAgent("sipwire"),
		header.Expires(60),
		&header.Via{
			Proto:     types.VersionSIP20,
			Transport: "UDP",
			Addr:      header.HostPort("192.168.1.143", 5061),
			Branch:    ptr("z9hG4bK1"),
			RPort:     &header.RPort{Port: 5061},
			Params:    header.Params{}.Add("received", "10.0.0.1"),
		},
		&header.From{
			DisplayName: ptr(`Alice "A" Smith`),
			URI:         uri.SIP{User: uri.User("alice"), Addr: uri.Host("atlanta.com")},
			Tag:         ptr("1928301774"),
		},
		&header.To{URI: uri.SIP{User: uri.User("bob"), Addr: uri.Host("biloxi.com"), Params: header.Params{}.AddFlag("lr")}},
		&header.Contact{
			URI:    uri.SIP{User: uri.User("100"), Addr: uri.HostPort("192.168.1.143", 5061)},
			Params: header.Params{}.Add("expires", "3600"),
		},
		&header.Any{Name: "X-Foo", Value: "bar"},
	}

	for _, hdr := range hdrs {
		t.Run(string(hdr.CanonicName()), func(t *testing.T) {
			t.Parallel()

			got, err := header.ParseLine(hdr.Render(nil))
			if err != nil {
				t.Fatalf("header.ParseLine(%q) error = %v, want nil", hdr.Render(nil), err)
			}
			if diff := cmp.Diff(got, hdr); diff != "" {
				t.Errorf("header.ParseLine(%q) = %+v, want %+v\ndiff (-got +want):\n%v", hdr.Render(nil), got, hdr, diff)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
