package uri

//go:generate go tool errtrace -w .

import (
	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/types"
)

// ErrInvalidURI is returned when a SIP URI can not be parsed.
const ErrInvalidURI errorutil.Error = "invalid URI"

// Addr represents a network address consisting of a host and optional port.
type Addr = types.Addr

// Host creates an Addr from a hostname without a port.
func Host(host string) Addr { return types.Host(host) }

// HostPort creates an Addr from a hostname and port.
func HostPort(host string, port uint16) Addr { return types.HostPort(host, port) }

// Params represents ordered URI parameters.
type Params = types.Params

// RenderOptions contains options for rendering URIs.
type RenderOptions = types.RenderOptions

// User returns a pointer to the user part, suitable for [SIP.User].
func User(name string) *string { return &name }
