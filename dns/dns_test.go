package dns_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ghettovoice/sipwire/dns"
	"github.com/ghettovoice/sipwire/internal/testutils"
)

func newResolver(t *testing.T, records ...string) *dns.Resolver {
	t.Helper()
	srv := testutils.NewDNSServer(t, records...)
	return &dns.Resolver{NameServer: srv.Addr, Timeout: time.Second}
}

func TestResolver_LookupNAPTR(t *testing.T) {
	t.Parallel()

	r := newResolver(t,
		`example.com. 60 IN NAPTR 20 10 "s" "SIP+D2T" "" _sip._tcp.example.com.`,
		`example.com. 60 IN NAPTR 10 20 "s" "SIP+D2U" "" _sip._udp2.example.com.`,
		`example.com. 60 IN NAPTR 10 10 "s" "SIP+D2U" "" _sip._udp.example.com.`,
	)

	got, err := r.LookupNAPTR(t.Context(), "example.com")
	if err != nil {
		t.Fatalf("r.LookupNAPTR(ctx, \"example.com\") error = %v, want nil", err)
	}
	want := []*dns.NAPTR{
		{Order: 10, Preference: 10, Flags: "s", Service: "SIP+D2U", Replacement: "_sip._udp.example.com."},
		{Order: 10, Preference: 20, Flags: "s", Service: "SIP+D2U", Replacement: "_sip._udp2.example.com."},
		{Order: 20, Preference: 10, Flags: "s", Service: "SIP+D2T", Replacement: "_sip._tcp.example.com."},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("r.LookupNAPTR(ctx, \"example.com\") = %+v, want %+v\ndiff (-got +want):\n%v", got, want, diff)
	}
}

func TestResolver_LookupNAPTR_NotFound(t *testing.T) {
	t.Parallel()

	r := newResolver(t)

	_, err := r.LookupNAPTR(t.Context(), "missing.example.com")
	var de *net.DNSError
	if !errors.As(err, &de) || !de.IsNotFound {
		t.Errorf("r.LookupNAPTR(ctx, \"missing.example.com\") error = %v, want not found *net.DNSError", err)
	}
}

func TestResolver_LookupSRV(t *testing.T) {
	t.Parallel()

	r := newResolver(t,
		"_sip._udp.example.com. 60 IN SRV 20 0 5060 backup.example.com.",
		"_sip._udp.example.com. 60 IN SRV 10 5 5062 b.example.com.",
		"_sip._udp.example.com. 60 IN SRV 10 50 5060 a.example.com.",
	)

	got, err := r.LookupSRV(t.Context(), "sip", "udp", "example.com")
	if err != nil {
		t.Fatalf("r.LookupSRV(ctx, \"sip\", \"udp\", \"example.com\") error = %v, want nil", err)
	}
	want := []*dns.SRV{
		{Target: "a.example.com.", Port: 5060, Priority: 10, Weight: 50},
		{Target: "b.example.com.", Port: 5062, Priority: 10, Weight: 5},
		{Target: "backup.example.com.", Port: 5060, Priority: 20, Weight: 0},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("r.LookupSRV(ctx, \"sip\", \"udp\", \"example.com\") = %+v, want %+v\ndiff (-got +want):\n%v", got, want, diff)
	}
}

func TestResolver_LookupIP(t *testing.T) {
	t.Parallel()

	r := newResolver(t,
		"sip.example.com. 60 IN AAAA 2001:db8::1",
		"sip.example.com. 60 IN A 192.0.2.10",
		"v4.example.com. 60 IN A 192.0.2.11",
	)

	cases := []struct {
		name, host string
		want       []net.IP
		wantErr    bool
	}{
		{"dual stack", "sip.example.com", []net.IP{net.ParseIP("192.0.2.10").To4(), net.ParseIP("2001:db8::1")}, false},
		{"v4 only", "v4.example.com", []net.IP{net.ParseIP("192.0.2.11").To4()}, false},
		{"ipv4 literal", "10.0.0.1", []net.IP{net.ParseIP("10.0.0.1").To4()}, false},
		{"ipv6 literal", "::1", []net.IP{net.ParseIP("::1")}, false},
		{"missing", "missing.example.com", nil, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.LookupIP(t.Context(), c.host)
			if (err != nil) != c.wantErr {
				t.Fatalf("r.LookupIP(ctx, %q) error = %v, want error %v", c.host, err, c.wantErr)
			}
			if diff := cmp.Diff(got, c.want); diff != "" {
				t.Errorf("r.LookupIP(ctx, %q) = %v, want %v\ndiff (-got +want):\n%v", c.host, got, c.want, diff)
			}
		})
	}
}

func TestResolver_Timeout(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.ListenPacket() error = %v, want nil", err)
	}
	t.Cleanup(func() { pc.Close() })

	r := &dns.Resolver{NameServer: pc.LocalAddr().String(), Timeout: 50 * time.Millisecond}
	_, err = r.LookupNAPTR(t.Context(), "example.com")
	var de *net.DNSError
	if !errors.As(err, &de) || !de.IsTimeout {
		t.Errorf("r.LookupNAPTR(ctx, \"example.com\") error = %v, want timeout *net.DNSError", err)
	}
}

func TestResolver_LookupSRV_Name(t *testing.T) {
	t.Parallel()

	r := newResolver(t, "_sip._udp.example.com. 60 IN SRV 10 0 5070 a.example.com.")

	got, err := r.LookupSRV(t.Context(), "", "", "_sip._udp.example.com.")
	if err != nil {
		t.Fatalf("r.LookupSRV(ctx, \"\", \"\", name) error = %v, want nil", err)
	}
	want := []*dns.SRV{{Target: "a.example.com.", Port: 5070, Priority: 10}}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("r.LookupSRV(ctx, \"\", \"\", name) = %+v, want %+v\ndiff (-got +want):\n%v", got, want, diff)
	}
}
