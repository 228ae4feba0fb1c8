package sip

import (
	"fmt"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/header"
	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/types"
	"github.com/ghettovoice/sipwire/internal/util"
	"github.com/ghettovoice/sipwire/uri"
)

// ParseError represents an error that occurred during parsing.
//
// It contains the error that occurred, the current parsing state and the bytes that caused the error.
type ParseError struct {
	Err   error
	State ParseState
	Buf   []byte
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", err.State, err.Err)
}

func (err *ParseError) Unwrap() error { return err.Err }

// ParseState is the stage of the parser at which an error occurred.
type ParseState int

const (
	ParseStateStart   ParseState = iota // parsing message start line
	ParseStateHeaders                   // parsing message headers
	ParseStateBody                      // parsing message body
)

func (s ParseState) String() string {
	switch s {
	case ParseStateStart:
		return "start line"
	case ParseStateHeaders:
		return "headers"
	case ParseStateBody:
		return "body"
	default:
		return "ParseState(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParsePacket parses a single SIP message from the datagram b.
//
// The start line and every header line end with CRLF, a bare LF is tolerated.
// Continuation lines starting with a space or a tab are folded into the previous header with a single space.
// The body is the Content-Length bytes that follow the empty line, or the rest of b without Content-Length;
// bytes beyond Content-Length are ignored.
//
// b is never retained: the returned message owns copies of all data.
// On failure the message is nil and the returned error is a [*ParseError].
func ParsePacket(b []byte) (Message, error) {
	return errtrace.Wrap2(parseMessage(string(b)))
}

// ParseRequest parses a single SIP request from the datagram b.
// See [ParsePacket] for details.
func ParseRequest(b []byte) (*Request, error) {
	msg, err := parseMessage(string(b))
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	req, ok := msg.(*Request)
	if !ok {
		return nil, errtrace.Wrap(&ParseError{
			Err:   errorutil.NewWrapperError(ErrMalformedStartLine, "want request, got response"),
			State: ParseStateStart,
		})
	}
	return req, nil
}

// ParseResponse parses a single SIP response from the datagram b.
// See [ParsePacket] for details.
func ParseResponse(b []byte) (*Response, error) {
	msg, err := parseMessage(string(b))
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	res, ok := msg.(*Response)
	if !ok {
		return nil, errtrace.Wrap(&ParseError{
			Err:   errorutil.NewWrapperError(ErrMalformedStartLine, "want response, got request"),
			State: ParseStateStart,
		})
	}
	return res, nil
}

func parseMessage(src string) (Message, error) {
	var (
		state ParseState
		msg   Message
		hdrs  Headers
		rest  = src
	)
	for {
		switch state {
		case ParseStateStart:
			line, next, ok := cutLine(rest)
			if !ok {
				return nil, &ParseError{
					errorutil.NewWrapperError(ErrMalformedStartLine, "missing CRLF after start line"),
					state,
					[]byte(rest),
				}
			}

			var err error
			if msg, err = parseStartLine(line); err != nil {
				return nil, &ParseError{err, state, []byte(line)}
			}

			rest = next
			state = ParseStateHeaders
		case ParseStateHeaders:
			for {
				line, next, ok := cutLine(rest)
				if !ok {
					return nil, &ParseError{
						errorutil.NewWrapperError(ErrMalformedHeaderLine, "unexpected end of headers"),
						state,
						[]byte(rest),
					}
				}
				rest = next

				if line == "" {
					break
				}

				for len(rest) > 0 && (rest[0] == ' ' || rest[0] == '\t') {
					cont, next, ok := cutLine(rest)
					if !ok {
						break
					}
					line = strings.TrimRight(line, " \t") + " " + strings.TrimLeft(cont, " \t")
					rest = next
				}

				hdr, err := header.ParseLine(line)
				if err != nil {
					return nil, &ParseError{
						errorutil.NewWrapperError(ErrMalformedHeaderLine, err),
						state,
						[]byte(line),
					}
				}
				hdrs.Append(hdr)
			}
			msg.SetMessageHeaders(hdrs)

			state = ParseStateBody
		case ParseStateBody:
			body := rest
			if cl, ok := hdrs.ContentLength(); ok {
				if size := int(cl); size <= len(rest) {
					body = rest[:size]
				} else {
					return nil, &ParseError{
						errorutil.NewWrapperError(ErrTruncatedBody, "got %d bytes, want %d", len(rest), size),
						state,
						[]byte(rest),
					}
				}
			}
			if body != "" {
				msg.SetMessageBody([]byte(body))
			}
			return msg, nil
		}
	}
}

// cutLine slices s around the first line terminator.
// The line ends with CRLF or a bare LF, the terminator is not included.
func cutLine(s string) (line, rest string, found bool) {
	line, rest, found = strings.Cut(s, "\n")
	if !found {
		return s, "", false
	}
	return strings.TrimSuffix(line, "\r"), rest, true
}

func parseStartLine(line string) (Message, error) {
	if line == "" {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine, "empty start line"))
	}

	toks := strings.SplitN(line, " ", 3)
	if len(toks) != 3 {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine,
			"want 3 tokens, got %q", util.Ellipsis(line, 64)))
	}
	if _, err := types.ParseVersion(toks[0]); err == nil {
		return errtrace.Wrap2(parseStatusLine(line))
	}
	if _, err := types.ParseMethod(toks[0]); err != nil {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnrecognizedStartLine, err))
	}
	return errtrace.Wrap2(parseRequestLine(line))
}

func parseRequestLine(line string) (*Request, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine,
			"want \"<method> <uri> <version>\", got %q", util.Ellipsis(line, 64)))
	}

	var (
		req = new(Request)
		err error
	)
	if req.Method, err = types.ParseMethod(parts[0]); err != nil {
		return nil, errtrace.Wrap(err)
	}
	if req.URI, err = uri.Parse(parts[1]); err != nil {
		return nil, errtrace.Wrap(err)
	}
	if req.Proto, err = types.ParseVersion(parts[2]); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return req, nil
}

func parseStatusLine(line string) (*Response, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine,
			"want \"<version> <code> <reason>\", got %q", util.Ellipsis(line, 64)))
	}

	var (
		res = new(Response)
		err error
	)
	if res.Proto, err = types.ParseVersion(parts[0]); err != nil {
		return nil, errtrace.Wrap(err)
	}
	if len(parts[1]) != 3 || !util.IsDigits(parts[1]) {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine, "malformed status code %q", parts[1]))
	}
	code, _ := strconv.Atoi(parts[1])
	if res.Status = StatusCode(code); !res.Status.IsValid() {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrMalformedStartLine, "status code %d out of range", code))
	}
	res.Reason = parts[2]
	return res, nil
}
