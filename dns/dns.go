// Package dns implements the DNS lookups used to locate SIP servers (RFC 3263):
// NAPTR, SRV and address records.
package dns

//go:generate go tool errtrace -w .

import (
	"cmp"
	"context"
	"errors"
	"net"
	"slices"
	"time"

	"braces.dev/errtrace"
	"github.com/miekg/dns"

	"github.com/ghettovoice/sipwire/internal/errorutil"
)

// Resolver performs DNS lookups.
//
// With an empty NameServer, address and SRV lookups go through the embedded net.Resolver and
// NAPTR queries are sent to the first server of /etc/resolv.conf.
// Otherwise every query is sent to NameServer directly.
type Resolver struct {
	net.Resolver

	// NameServer specifies the DNS server address (e.g., "8.8.8.8:53").
	// Port 53 is assumed when omitted.
	NameServer string
	// Timeout specifies the timeout for DNS queries.
	// If zero, defaults to 5 seconds.
	Timeout time.Duration
}

// LookupIP returns the IPv4 and IPv6 addresses of host, IPv4 first.
// IP literals are returned as is without a query.
func (r *Resolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{normIP(ip)}, nil
	}

	if r.NameServer == "" {
		ips, err := r.Resolver.LookupIP(ctx, "ip", host)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		for i, ip := range ips {
			ips[i] = normIP(ip)
		}
		slices.SortStableFunc(ips, func(a, b net.IP) int { return cmp.Compare(len(a), len(b)) })
		return ips, nil
	}

	var ips []net.IP
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		ans, err := r.exchange(ctx, host, qtype)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, errtrace.Wrap(err)
		}
		for _, rr := range ans {
			switch rr := rr.(type) {
			case *dns.A:
				ips = append(ips, normIP(rr.A))
			case *dns.AAAA:
				ips = append(ips, rr.AAAA)
			}
		}
	}
	if len(ips) == 0 {
		return nil, errtrace.Wrap(&net.DNSError{Err: "no such host", Name: host, IsNotFound: true})
	}
	return ips, nil
}

func normIP(ip net.IP) net.IP {
	if ip4 := ip.To4(); ip4 != nil {
		return ip4
	}
	return ip
}

// SRV represents a single DNS SRV record.
type SRV = net.SRV

// LookupSRV queries the "_service._proto.name" SRV records.
// If both service and proto are empty, name is queried directly, as for NAPTR replacements.
// Records are sorted by priority and, within one priority, by weight descending.
func (r *Resolver) LookupSRV(ctx context.Context, service, proto, name string) ([]*SRV, error) {
	if r.NameServer == "" {
		_, srvs, err := r.Resolver.LookupSRV(ctx, service, proto, name)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		return srvs, nil
	}

	if service != "" || proto != "" {
		name = "_" + service + "._" + proto + "." + name
	}
	ans, err := r.exchange(ctx, name, dns.TypeSRV)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	srvs := make([]*SRV, 0, len(ans))
	for _, rr := range ans {
		if rr, ok := rr.(*dns.SRV); ok {
			srvs = append(srvs, &SRV{
				Target:   rr.Target,
				Port:     rr.Port,
				Priority: rr.Priority,
				Weight:   rr.Weight,
			})
		}
	}
	slices.SortStableFunc(srvs, func(a, b *SRV) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(b.Weight, a.Weight)
	})
	return srvs, nil
}

// NAPTR represents a NAPTR DNS record as defined in RFC 3403.
// NAPTR records are used for URI resolution, particularly in SIP (RFC 3263)
// for discovering transport protocols and services.
type NAPTR struct {
	// Order specifies the order in which NAPTR records must be processed.
	// Lower values are processed first.
	Order uint16
	// Preference specifies the preference for records with equal Order values.
	// Lower values are preferred.
	Preference uint16
	// Flags control aspects of the rewriting and interpretation of fields.
	// Common flags: "s" (SRV lookup), "a" (A/AAAA lookup), "u" (terminal URI).
	Flags string
	// Service specifies the service and protocol available.
	// For SIP: "SIP+D2U" (UDP), "SIP+D2T" (TCP), "SIP+D2S" (SCTP), "SIPS+D2T" (TLS).
	Service string
	// Regexp is a substitution expression applied to the original string.
	Regexp string
	// Replacement is the next domain name to query.
	Replacement string
}

// LookupNAPTR queries NAPTR records for the given host.
// Returns records sorted by Order (ascending), then by Preference (ascending).
func (r *Resolver) LookupNAPTR(ctx context.Context, host string) ([]*NAPTR, error) {
	ans, err := r.exchange(ctx, host, dns.TypeNAPTR)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	recs := make([]*NAPTR, 0, len(ans))
	for _, rr := range ans {
		if rr, ok := rr.(*dns.NAPTR); ok {
			recs = append(recs, &NAPTR{
				Order:       rr.Order,
				Preference:  rr.Preference,
				Flags:       rr.Flags,
				Service:     rr.Service,
				Regexp:      rr.Regexp,
				Replacement: rr.Replacement,
			})
		}
	}

	slices.SortStableFunc(recs, func(a, b *NAPTR) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.Preference, b.Preference)
	})
	return recs, nil
}

func (r *Resolver) exchange(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	nameserver, err := r.nameserver()
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	client := &dns.Client{Timeout: r.timeout()}
	resp, _, err := client.ExchangeContext(ctx, m, nameserver)
	if err != nil {
		return nil, errtrace.Wrap(&net.DNSError{
			Err:       err.Error(),
			Name:      name,
			Server:    nameserver,
			IsTimeout: errorutil.IsTimeoutErr(err),
		})
	}

	if resp.Rcode != dns.RcodeSuccess {
		return nil, errtrace.Wrap(&net.DNSError{
			Err:        dns.RcodeToString[resp.Rcode],
			Name:       name,
			Server:     nameserver,
			IsNotFound: resp.Rcode == dns.RcodeNameError,
		})
	}
	return resp.Answer, nil
}

func isNotFound(err error) bool {
	var de *net.DNSError
	return errors.As(err, &de) && de.IsNotFound
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 5 * time.Second
}

func (r *Resolver) nameserver() (string, error) {
	if r.NameServer != "" {
		if _, _, err := net.SplitHostPort(r.NameServer); err != nil {
			return net.JoinHostPort(r.NameServer, "53"), nil //nolint:nilerr
		}
		return r.NameServer, nil
	}

	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	if len(conf.Servers) == 0 {
		return "", errtrace.Wrap(&net.DNSError{
			Err:  "no DNS servers configured",
			Name: "resolv.conf",
		})
	}

	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}

var defResolver = &Resolver{}

// DefaultResolver returns the package level resolver used by the Lookup functions.
func DefaultResolver() *Resolver { return defResolver }

// LookupIP calls [Resolver.LookupIP] of the default resolver.
func LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	return errtrace.Wrap2(defResolver.LookupIP(ctx, host))
}

// LookupSRV calls [Resolver.LookupSRV] of the default resolver.
func LookupSRV(ctx context.Context, service, proto, name string) ([]*SRV, error) {
	return errtrace.Wrap2(defResolver.LookupSRV(ctx, service, proto, name))
}

// LookupNAPTR calls [Resolver.LookupNAPTR] of the default resolver.
func LookupNAPTR(ctx context.Context, host string) ([]*NAPTR, error) {
	return errtrace.Wrap2(defResolver.LookupNAPTR(ctx, host))
}
