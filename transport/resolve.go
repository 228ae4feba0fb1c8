package transport

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"braces.dev/errtrace"
	"github.com/samber/lo"

	"github.com/ghettovoice/sipwire/dns"
	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/log"
	"github.com/ghettovoice/sipwire/uri"
)

// DefaultPort is the SIP port used for UDP when neither the URI nor SRV records specify one.
const DefaultPort = 5060

const naptrServiceUDP = "SIP+D2U"

// Resolve locates the UDP targets of a SIP URI as described in RFC 3263 Section 4.
//
// IP literals are used as is. Hosts with an explicit port are resolved to addresses only.
// Otherwise NAPTR records offering UDP are followed to SRV records, falling back to "_sip._udp"
// SRV records of the host and then to the host addresses with [DefaultPort].
// The error matches [ErrNoTarget] when nothing resolves.
func Resolve(ctx context.Context, r *dns.Resolver, u uri.SIP) ([]*net.UDPAddr, error) {
	return errtrace.Wrap2(resolve(ctx, r, u, log.Noop))
}

func resolve(ctx context.Context, r *dns.Resolver, u uri.SIP, logger *slog.Logger) ([]*net.UDPAddr, error) {
	if r == nil {
		r = dns.DefaultResolver()
	}

	host := u.Addr.Host()
	port, hasPort := u.Addr.Port()
	if !hasPort {
		port = DefaultPort
	}

	if ip := u.Addr.IP(); ip != nil {
		return []*net.UDPAddr{{IP: ip, Port: int(port)}}, nil
	}
	if host == "" {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrNoTarget, "empty host"))
	}

	var targets []*net.UDPAddr
	if hasPort {
		targets = lookupAddrs(ctx, logger, r, host, port)
	} else {
		srvs := lookupSRV(ctx, logger, r, host)
		if len(srvs) == 0 {
			targets = lookupAddrs(ctx, logger, r, host, port)
		}
		for _, srv := range srvs {
			targets = append(targets, lookupAddrs(ctx, logger, r, strings.TrimSuffix(srv.Target, "."), srv.Port)...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, errtrace.Wrap(err)
	}
	if len(targets) == 0 {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrNoTarget, "host %q", host))
	}
	return targets, nil
}

func lookupSRV(ctx context.Context, logger *slog.Logger, r *dns.Resolver, host string) []*dns.SRV {
	recs, err := r.LookupNAPTR(ctx, host)
	if err != nil {
		logLookupErr(ctx, logger, "NAPTR", host, err)
	}
	recs = lo.Filter(recs, func(rec *dns.NAPTR, _ int) bool {
		return strings.EqualFold(rec.Service, naptrServiceUDP) && strings.EqualFold(rec.Flags, "s")
	})
	for _, rec := range recs {
		srvs, err := r.LookupSRV(ctx, "", "", rec.Replacement)
		if err != nil {
			logLookupErr(ctx, logger, "SRV", rec.Replacement, err)
			continue
		}
		if len(srvs) > 0 {
			return srvs
		}
	}

	srvs, err := r.LookupSRV(ctx, "sip", "udp", host)
	if err != nil {
		logLookupErr(ctx, logger, "SRV", "_sip._udp."+host, err)
	}
	return srvs
}

func lookupAddrs(ctx context.Context, logger *slog.Logger, r *dns.Resolver, host string, port uint16) []*net.UDPAddr {
	ips, err := r.LookupIP(ctx, host)
	if err != nil {
		logLookupErr(ctx, logger, "A", host, err)
		return nil
	}
	return lo.Map(ips, func(ip net.IP, _ int) *net.UDPAddr {
		return &net.UDPAddr{IP: ip, Port: int(port)}
	})
}

func logLookupErr(ctx context.Context, logger *slog.Logger, qtype, name string, err error) {
	logger.LogAttrs(ctx, slog.LevelDebug,
		"DNS lookup failed",
		slog.String("type", qtype),
		slog.String("name", name),
		slog.Any("error", err),
	)
}
