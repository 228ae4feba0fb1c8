// Package log provides the slog loggers used by the transport and the example programs.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/golang-cz/devslog"
	"github.com/phsym/console-slog"
	slogformatter "github.com/samber/slog-formatter"

	"github.com/ghettovoice/sipwire/internal/util"
)

var newHandler = slogformatter.NewFormatterHandler(
	slogformatter.ErrorFormatter("error"),
	slogformatter.FormatByType(func(c net.PacketConn) slog.Value {
		return slog.GroupValue(
			slog.String("type", fmt.Sprintf("%T", c)),
			slog.String("ptr", fmt.Sprintf("%p", c)),
			slog.String("local_addr", c.LocalAddr().String()),
		)
	}),
	slogformatter.FormatByType(func(c net.Conn) slog.Value {
		return slog.GroupValue(
			slog.String("type", fmt.Sprintf("%T", c)),
			slog.String("ptr", fmt.Sprintf("%p", c)),
			slog.String("local_addr", c.LocalAddr().String()),
			slog.String("remote_addr", c.RemoteAddr().String()),
		)
	}),
)

// Def is a default logger.
var Def = New("console", os.Stdout, slog.LevelDebug)

// Dev is a developer logger.
var Dev = New("dev", os.Stdout, slog.LevelDebug)

// New builds a logger writing to w in the given format:
// "console" (phsym/console-slog), "dev" (golang-cz/devslog), "json" or "text".
// Unknown formats fall back to "console".
func New(format string, w io.Writer, level slog.Leveler) *slog.Logger {
	var h slog.Handler
	switch util.LCase(strings.TrimSpace(format)) {
	case "dev":
		h = devslog.NewHandler(w, &devslog.Options{
			HandlerOptions: &slog.HandlerOptions{
				AddSource: true,
				Level:     level,
			},
			SortKeys:   true,
			TimeFormat: time.RFC3339Nano,
		})
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	default:
		h = console.NewHandler(w, &console.HandlerOptions{
			AddSource:  true,
			Level:      level,
			TimeFormat: time.RFC3339Nano,
		})
	}
	return slog.New(newHandler(h))
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (h noopHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h noopHandler) WithGroup(string) slog.Handler { return h }

// Noop is a noop logger.
var Noop = slog.New(noopHandler{})

type calcValue struct{ fn func() any }

func (v calcValue) LogValue() slog.Value {
	cv := v.fn()
	switch cv := cv.(type) {
	case slog.Value:
		return cv
	default:
		return slog.AnyValue(cv)
	}
}

// CalcValue returns a value logger that computes a value using a fn.
// The fn is called only if the record is actually handled.
func CalcValue(fn func() any) slog.LogValuer { return calcValue{fn} }

type stringValue[T ~string | ~[]byte] struct {
	v      T
	maxLen int
}

func (v stringValue[T]) LogValue() slog.Value {
	if v.maxLen > 0 {
		return slog.StringValue(util.Ellipsis(string(v.v), v.maxLen))
	}
	return slog.StringValue(string(v.v))
}

// StringValue returns a value logger that formats v as string.
func StringValue[T ~string | ~[]byte](v T) slog.LogValuer { return stringValue[T]{v: v} }

// PacketValue returns a value logger that formats a datagram as string cut to maxLen characters.
func PacketValue(b []byte, maxLen int) slog.LogValuer { return stringValue[[]byte]{b, maxLen} }
