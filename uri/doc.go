// Package uri implements the SIP URI used to address requests and name-addr headers.
//
// The canonical textual form is
//
//	sip:user@host:port;param1=value1;flag
//
// where the user part, the port and the parameters are optional:
//
//	u := uri.SIP{
//	    User: uri.User("alice"),
//	    Addr: uri.HostPort("example.com", 5060),
//	}
//	u.String() // "sip:alice@example.com:5060"
//
// [Parse] accepts the scheme in any letter case, IPv6 hosts in brackets and ordered
// parameters, and fails with [ErrInvalidURI] on anything else.
//
// URI values are not safe for concurrent modification. Use [SIP.Clone] to share them across goroutines.
package uri
