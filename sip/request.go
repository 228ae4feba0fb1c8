package sip

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/header"
	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/util"
)

// Request represents a SIP request message.
type Request struct {
	Method  Method  `json:"method"`
	URI     URI     `json:"uri"`
	Proto   Version `json:"proto"`
	Headers Headers `json:"-"`
	Body    []byte  `json:"body,omitempty"`
}

func (*Request) message() {}

// RenderTo renders the SIP request to the given writer.
// Headers are written in insertion order, Content-Length is never computed.
func (req *Request) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	if req == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderMessageTo(w, req.renderStartLine, req.Headers, req.Body, opts))
}

func (req *Request) renderStartLine(w io.Writer) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Fprint(req.Method, " ")
	cw.Call(func(w io.Writer) (int, error) {
		return errtrace.Wrap2(req.URI.RenderTo(w, nil))
	})
	cw.Fprint(" ", req.Proto)
	return errtrace.Wrap2(cw.Result())
}

// Render renders the SIP request to a string.
func (req *Request) Render(opts *RenderOptions) string {
	if req == nil {
		return ""
	}
	return renderMessage(req, opts)
}

// Encode renders the SIP request to a new byte slice.
func (req *Request) Encode() []byte {
	if req == nil {
		return nil
	}
	return encodeMessage(req)
}

// String returns a short string representation of the request, its start line.
func (req *Request) String() string {
	if req == nil {
		return "<nil>"
	}
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	req.renderStartLine(sb) //nolint:errcheck
	return sb.String()
}

// Format implements [fmt.Formatter] for custom formatting.
// %s prints the start line, %+s the whole message.
func (req *Request) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		if f.Flag('+') {
			req.RenderTo(f, nil) //nolint:errcheck
			return
		}
		fmt.Fprint(f, req.String())
		return
	case 'q':
		if f.Flag('+') {
			fmt.Fprint(f, strconv.Quote(req.Render(nil)))
			return
		}
		fmt.Fprint(f, strconv.Quote(req.String()))
		return
	default:
		type hideMethods Request
		type Request hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), (*Request)(req))
		return
	}
}

// LogValue implements [slog.LogValuer] for structured logging.
func (req *Request) LogValue() slog.Value {
	if req == nil {
		return slog.Value{}
	}

	attrs := make([]slog.Attr, 0, 7)
	attrs = append(attrs, slog.String("method", req.Method.String()), slog.String("uri", req.URI.String()))
	return slog.GroupValue(logAttrs(req.Headers, attrs)...)
}

// MessageHeaders returns the request headers.
func (req *Request) MessageHeaders() Headers { return req.Headers }

// SetMessageHeaders replaces the request headers.
func (req *Request) SetMessageHeaders(hdrs Headers) { req.Headers = hdrs }

// MessageBody returns the request body.
func (req *Request) MessageBody() []byte { return req.Body }

// SetMessageBody replaces the request body without touching Content-Length.
func (req *Request) SetMessageBody(body []byte) { req.Body = body }

// SetBody sets the body and writes a matching Content-Length header,
// replacing the existing one in place or appending a new one.
func (req *Request) SetBody(body []byte) *Request {
	setBody(&req.Headers, &req.Body, body)
	return req
}

// Clone returns a deep copy of the request.
func (req *Request) Clone() Message {
	if req == nil {
		return (*Request)(nil)
	}

	req2 := *req
	req2.URI = req.URI.Clone()
	req2.Headers = req.Headers.Clone()
	req2.Body = slices.Clone(req.Body)
	return &req2
}

// Equal reports whether the request is equal to another value field by field, header order included.
// A nil body equals an empty one.
func (req *Request) Equal(val any) bool {
	var other *Request
	switch v := val.(type) {
	case Request:
		other = &v
	case *Request:
		other = v
	default:
		return false
	}

	if req == other {
		return true
	} else if req == nil || other == nil {
		return false
	}

	return req.Method == other.Method &&
		req.Proto == other.Proto &&
		req.URI.Equal(other.URI) &&
		req.Headers.Equal(other.Headers) &&
		slices.Equal(req.Body, other.Body)
}

// IsValid returns whether the request is valid.
func (req *Request) IsValid() bool { return req.Validate() == nil }

// Validate checks the start line, the mandatory headers (Via, From, To, Call-ID, CSeq, Max-Forwards),
// that the CSeq method matches the request method and that Content-Length matches the body.
// All problems are reported together wrapped in [ErrInvalidMessage].
func (req *Request) Validate() error {
	if req == nil {
		return errtrace.Wrap(NewInvalidArgumentError("invalid request"))
	}

	var errs []error
	if !req.Method.IsValid() {
		errs = append(errs, fmt.Errorf("invalid method %q", req.Method))
	}
	if !req.URI.IsValid() {
		errs = append(errs, fmt.Errorf("invalid URI %q", req.URI))
	}
	if !req.Proto.IsValid() {
		errs = append(errs, fmt.Errorf("invalid protocol %q", req.Proto))
	}
	errs = append(errs, validateMessage(req.Headers, req.Body, "Max-Forwards")...)
	if cseq, ok := req.Headers.CSeq(); ok && cseq.Method != req.Method {
		errs = append(errs, fmt.Errorf("CSeq method %s does not match request method %s", cseq.Method, req.Method))
	}
	return errtrace.Wrap(joinInvalidMessage(errs))
}

// NewResponse builds a response to the request.
//
// Via, From, To, Call-ID and CSeq are copied from the request in that order.
// Responses other than 100 Trying get a To tag from [header.NewTag] if the request has none.
// An empty reason is replaced with the default phrase of the status code.
func (req *Request) NewResponse(status StatusCode, reason string) (*Response, error) {
	if req == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("invalid request"))
	}
	if req.Method == MethodAck {
		return nil, errtrace.Wrap(NewInvalidArgumentError("ACK can not be responded"))
	}
	if !status.IsValid() {
		return nil, errtrace.Wrap(NewInvalidArgumentError(fmt.Sprintf("invalid status code %d", status)))
	}
	if reason == "" {
		reason = status.Reason()
	}

	res := &Response{
		Proto:  req.Proto,
		Status: status,
		Reason: reason,
	}
	for _, n := range []string{"Via", "From", "To", "Call-ID", "CSeq"} {
		for _, hdr := range req.Headers.Get(n) {
			hdr = hdr.Clone()
			if to, ok := hdr.(*header.To); ok && to.Tag == nil && status != StatusTrying {
				to.Tag = util.Ptr(header.NewTag(nil))
			}
			res.Headers.Append(hdr)
		}
	}
	return res, nil
}
