// Package sip implements the SIP message model and its wire codec.
//
// A [Request] or [Response] is built from typed values of the [header] and [uri] packages
// and rendered to the RFC 3261 text form with RenderTo, Render or Encode:
//
//	req := &sip.Request{
//	    Method: sip.MethodRegister,
//	    URI:    uri.FromHost("192.168.1.143"),
//	    Proto:  sip.VersionSIP20,
//	    Headers: sip.Headers{
//	        header.MaxForwards(70),
//	        header.ContentLength(0),
//	    },
//	}
//	req.Encode() // "REGISTER sip:192.168.1.143 SIP/2.0\r\nMax-Forwards: 70\r\nContent-Length: 0\r\n\r\n"
//
// [ParsePacket], [ParseRequest] and [ParseResponse] reconstruct messages from a single datagram.
// Parse failures are returned as [*ParseError] and match the package sentinels with [errors.Is].
//
// Encoding and parsing are pure functions of their input and can be called concurrently.
package sip

//go:generate go tool errtrace -w .

import (
	"strconv"

	"github.com/ghettovoice/sipwire/header"
	"github.com/ghettovoice/sipwire/internal/types"
	"github.com/ghettovoice/sipwire/uri"
)

// Method represents a SIP request method.
// See [types.Method].
type Method = types.Method

// Request method constants.
const (
	MethodRegister = types.MethodRegister
	MethodInvite   = types.MethodInvite
	MethodAck      = types.MethodAck
	MethodCancel   = types.MethodCancel
	MethodBuy      = types.MethodBuy
	MethodOptions  = types.MethodOptions
)

// ParseMethod maps the exact wire token s to a [Method].
func ParseMethod(s string) (Method, error) { return types.ParseMethod(s) } //errtrace:skip

// Version represents a SIP protocol version.
// See [types.Version].
type Version = types.Version

// Protocol version constants.
const (
	VersionSIP   = types.VersionSIP
	VersionSIP20 = types.VersionSIP20
)

// ParseVersion maps the exact wire token s to a [Version].
func ParseVersion(s string) (Version, error) { return types.ParseVersion(s) } //errtrace:skip

// URI is the SIP URI used as the request target.
type URI = uri.SIP

// Header is a single SIP header field.
type Header = header.Header

// RenderOptions contains options for rendering messages.
type RenderOptions = types.RenderOptions

// StatusCode is a response status code in the range 100-699.
type StatusCode uint16

// Frequently used status codes.
const (
	StatusTrying              StatusCode = 100
	StatusRinging             StatusCode = 180
	StatusSessionProgress     StatusCode = 183
	StatusOK                  StatusCode = 200
	StatusMovedTemporarily    StatusCode = 302
	StatusBadRequest          StatusCode = 400
	StatusUnauthorized        StatusCode = 401
	StatusForbidden           StatusCode = 403
	StatusNotFound            StatusCode = 404
	StatusMethodNotAllowed    StatusCode = 405
	StatusRequestTimeout      StatusCode = 408
	StatusIntervalTooBrief    StatusCode = 423
	StatusTemporarilyUnavail  StatusCode = 480
	StatusBusyHere            StatusCode = 486
	StatusRequestTerminated   StatusCode = 487
	StatusServerInternalError StatusCode = 500
	StatusNotImplemented      StatusCode = 501
	StatusServiceUnavailable  StatusCode = 503
	StatusBusyEverywhere      StatusCode = 600
	StatusDecline             StatusCode = 603
)

var reasons = map[StatusCode]string{
	StatusTrying:              "Trying",
	StatusRinging:             "Ringing",
	StatusSessionProgress:     "Session Progress",
	StatusOK:                  "OK",
	StatusMovedTemporarily:    "Moved Temporarily",
	StatusBadRequest:          "Bad Request",
	StatusUnauthorized:        "Unauthorized",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusRequestTimeout:      "Request Timeout",
	StatusIntervalTooBrief:    "Interval Too Brief",
	StatusTemporarilyUnavail:  "Temporarily Unavailable",
	StatusBusyHere:            "Busy Here",
	StatusRequestTerminated:   "Request Terminated",
	StatusServerInternalError: "Server Internal Error",
	StatusNotImplemented:      "Not Implemented",
	StatusServiceUnavailable:  "Service Unavailable",
	StatusBusyEverywhere:      "Busy Everywhere",
	StatusDecline:             "Decline",
}

// Reason returns the default reason phrase of the status code, or "" if it is not known.
func (c StatusCode) Reason() string { return reasons[c] }

// String returns the decimal form of the status code.
func (c StatusCode) String() string { return strconv.Itoa(int(c)) }

// IsValid reports whether the code lies within 100-699.
func (c StatusCode) IsValid() bool { return c >= 100 && c <= 699 }

// IsProvisional reports whether the code is 1xx.
func (c StatusCode) IsProvisional() bool { return c >= 100 && c <= 199 }

// IsFinal reports whether the code is a final 2xx-6xx status.
func (c StatusCode) IsFinal() bool { return c >= 200 && c <= 699 }

// IsSuccess reports whether the code is 2xx.
func (c StatusCode) IsSuccess() bool { return c >= 200 && c <= 299 }
