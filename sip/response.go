package sip

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/util"
)

// Response represents a SIP response message.
type Response struct {
	Proto   Version    `json:"proto"`
	Status  StatusCode `json:"status"`
	Reason  string     `json:"reason"`
	Headers Headers    `json:"-"`
	Body    []byte     `json:"body,omitempty"`
}

func (*Response) message() {}

// RenderTo renders the SIP response to the given writer.
// The status line always carries the space before the reason, even if the reason is empty.
func (res *Response) RenderTo(w io.Writer, opts *RenderOptions) (num int, err error) {
	if res == nil {
		return 0, nil
	}
	return errtrace.Wrap2(renderMessageTo(w, res.renderStartLine, res.Headers, res.Body, opts))
}

func (res *Response) renderStartLine(w io.Writer) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Fprint(res.Proto, " ", res.Status.String(), " ", res.Reason)
	return errtrace.Wrap2(cw.Result())
}

// Render renders the SIP response to a string.
func (res *Response) Render(opts *RenderOptions) string {
	if res == nil {
		return ""
	}
	return renderMessage(res, opts)
}

// Encode renders the SIP response to a new byte slice.
func (res *Response) Encode() []byte {
	if res == nil {
		return nil
	}
	return encodeMessage(res)
}

// String returns a short string representation of the response, its status line.
func (res *Response) String() string {
	if res == nil {
		return "<nil>"
	}
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	res.renderStartLine(sb) //nolint:errcheck
	return sb.String()
}

// Format implements [fmt.Formatter] for custom formatting.
// %s prints the status line, %+s the whole message.
func (res *Response) Format(f fmt.State, verb rune) {
	switch verb {
	case 's':
		if f.Flag('+') {
			res.RenderTo(f, nil) //nolint:errcheck
			return
		}
		fmt.Fprint(f, res.String())
		return
	case 'q':
		if f.Flag('+') {
			fmt.Fprint(f, strconv.Quote(res.Render(nil)))
			return
		}
		fmt.Fprint(f, strconv.Quote(res.String()))
		return
	default:
		type hideMethods Response
		type Response hideMethods
		fmt.Fprintf(f, fmt.FormatString(f, verb), (*Response)(res))
		return
	}
}

// LogValue implements [slog.LogValuer] for structured logging.
func (res *Response) LogValue() slog.Value {
	if res == nil {
		return slog.Value{}
	}

	attrs := make([]slog.Attr, 0, 7)
	attrs = append(attrs, slog.Int("status", int(res.Status)), slog.String("reason", res.Reason))
	return slog.GroupValue(logAttrs(res.Headers, attrs)...)
}

// MessageHeaders returns the response headers.
func (res *Response) MessageHeaders() Headers { return res.Headers }

// SetMessageHeaders replaces the response headers.
func (res *Response) SetMessageHeaders(hdrs Headers) { res.Headers = hdrs }

// MessageBody returns the response body.
func (res *Response) MessageBody() []byte { return res.Body }

// SetMessageBody replaces the response body without touching Content-Length.
func (res *Response) SetMessageBody(body []byte) { res.Body = body }

// SetBody sets the body and writes a matching Content-Length header,
// replacing the existing one in place or appending a new one.
func (res *Response) SetBody(body []byte) *Response {
	setBody(&res.Headers, &res.Body, body)
	return res
}

// Clone returns a deep copy of the response.
func (res *Response) Clone() Message {
	if res == nil {
		return (*Response)(nil)
	}

	res2 := *res
	res2.Headers = res.Headers.Clone()
	res2.Body = slices.Clone(res.Body)
	return &res2
}

// Equal reports whether the response is equal to another value field by field, header order included.
func (res *Response) Equal(val any) bool {
	var other *Response
	switch v := val.(type) {
	case Response:
		other = &v
	case *Response:
		other = v
	default:
		return false
	}

	if res == other {
		return true
	} else if res == nil || other == nil {
		return false
	}

	return res.Proto == other.Proto &&
		res.Status == other.Status &&
		res.Reason == other.Reason &&
		res.Headers.Equal(other.Headers) &&
		slices.Equal(res.Body, other.Body)
}

// IsValid returns whether the response is valid.
func (res *Response) IsValid() bool { return res.Validate() == nil }

// Validate checks the status line, the mandatory headers (Via, From, To, Call-ID, CSeq)
// and that Content-Length matches the body.
func (res *Response) Validate() error {
	if res == nil {
		return errtrace.Wrap(NewInvalidArgumentError("invalid response"))
	}

	var errs []error
	if !res.Proto.IsValid() {
		errs = append(errs, fmt.Errorf("invalid protocol %q", res.Proto))
	}
	if !res.Status.IsValid() {
		errs = append(errs, fmt.Errorf("invalid status code %d", res.Status))
	}
	errs = append(errs, validateMessage(res.Headers, res.Body)...)
	return errtrace.Wrap(joinInvalidMessage(errs))
}
