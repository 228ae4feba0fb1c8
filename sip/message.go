package sip

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"slices"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/header"
	"github.com/ghettovoice/sipwire/internal/errorutil"
	"github.com/ghettovoice/sipwire/internal/ioutil"
	"github.com/ghettovoice/sipwire/internal/types"
	"github.com/ghettovoice/sipwire/internal/util"
)

// Message is implemented by [*Request] and [*Response].
type Message interface {
	types.Renderer
	types.ValidFlag
	types.Equalable
	slog.LogValuer
	// Encode renders the message to a new byte slice.
	Encode() []byte
	// Clone returns a deep copy of the message.
	Clone() Message
	// MessageHeaders returns the message header list.
	MessageHeaders() Headers
	// SetMessageHeaders replaces the message header list.
	SetMessageHeaders(hdrs Headers)
	// MessageBody returns the message body, nil if there is none.
	MessageBody() []byte
	// SetMessageBody replaces the message body without touching Content-Length.
	SetMessageBody(body []byte)

	message()
}

// renderMessageTo writes the common message layout: start line, headers, empty line, body.
func renderMessageTo(
	w io.Writer,
	startLine func(io.Writer) (int, error),
	hdrs Headers,
	body []byte,
	opts *RenderOptions,
) (num int, err error) {
	cw := ioutil.GetCountingWriter(w)
	defer ioutil.FreeCountingWriter(cw)
	cw.Call(startLine)
	cw.WriteString("\r\n")
	cw.Call(func(w io.Writer) (int, error) {
		return errtrace.Wrap2(hdrs.RenderTo(w, opts))
	})
	cw.WriteString("\r\n")
	cw.Write(body)
	return errtrace.Wrap2(cw.Result())
}

func renderMessage(msg Message, opts *RenderOptions) string {
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	msg.RenderTo(sb, opts) //nolint:errcheck
	return sb.String()
}

func encodeMessage(msg Message) []byte {
	var buf bytes.Buffer
	msg.RenderTo(&buf, nil) //nolint:errcheck
	return buf.Bytes()
}

// setBody assigns body and writes a matching Content-Length header in place.
func setBody(hdrs *Headers, dst *[]byte, body []byte) {
	if len(body) == 0 {
		body = nil
	}
	*dst = body
	hdrs.Set(header.ContentLength(len(body)))
}

var mandatoryHdrs = []header.Name{"Via", "From", "To", "Call-ID", "CSeq"}

func validateMessage(hdrs Headers, body []byte, extra ...header.Name) []error {
	errs := make([]error, 0, 4)
	for _, hdr := range hdrs {
		if hdr == nil || !hdr.IsValid() {
			errs = append(errs, errorutil.Errorf("invalid header %+q", hdr))
		}
	}
	for _, n := range slices.Concat(mandatoryHdrs, extra) {
		if !hdrs.Has(string(n)) {
			errs = append(errs, newMissHdrErr(n))
		}
	}
	if cl, ok := hdrs.ContentLength(); ok && int(cl) != len(body) {
		errs = append(errs, errorutil.Errorf("content length mismatch: got %d, want %d", cl, len(body)))
	}
	return errs
}

func joinInvalidMessage(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errorutil.NewWrapperError(ErrInvalidMessage, errors.Join(errs...)) //errtrace:skip
}

func logAttrs(hdrs Headers, attrs []slog.Attr) []slog.Attr {
	if via, ok := hdrs.Via(); ok {
		attrs = append(attrs, slog.Any("Via", via))
	}
	if from, ok := hdrs.From(); ok {
		attrs = append(attrs, slog.Any("From", from))
	}
	if to, ok := hdrs.To(); ok {
		attrs = append(attrs, slog.Any("To", to))
	}
	if callID, ok := hdrs.CallID(); ok {
		attrs = append(attrs, slog.Any("Call-ID", callID))
	}
	if cseq, ok := hdrs.CSeq(); ok {
		attrs = append(attrs, slog.Any("CSeq", cseq))
	}
	return attrs
}
