package errorutil_test

import (
	"errors"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/ghettovoice/sipwire/internal/errorutil"
)

const errSentinel errorutil.Error = "sentinel"

func TestNewWrapperError(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	cases := []struct {
		name    string
		args    []any
		wantMsg string
	}{
		{"no args", nil, "sentinel"},
		{"error", []any{cause}, "sentinel: cause"},
		{"already wrapped", []any{fmt.Errorf("ctx: %w", errSentinel)}, "ctx: sentinel"},
		{"string", []any{"detail"}, "sentinel: detail"},
		{"format", []any{"got %d", 5}, "sentinel: got 5"},
		{"unsupported", []any{42}, "sentinel"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			err := errorutil.NewWrapperError(errSentinel, c.args...)
			if !errors.Is(err, errSentinel) {
				t.Errorf("errors.Is(err, errSentinel) = false, want true")
			}
			if got := err.Error(); got != c.wantMsg {
				t.Errorf("err.Error() = %q, want %q", got, c.wantMsg)
			}
		})
	}
}

func TestIsTimeoutErr(t *testing.T) {
	t.Parallel()

	if !errorutil.IsTimeoutErr(fmt.Errorf("read: %w", os.ErrDeadlineExceeded)) {
		t.Errorf("IsTimeoutErr(deadline) = false, want true")
	}
	if errorutil.IsTimeoutErr(errSentinel) {
		t.Errorf("IsTimeoutErr(sentinel) = true, want false")
	}
	if !errorutil.IsClosedErr(&net.OpError{Op: "read", Err: net.ErrClosed}) {
		t.Errorf("IsClosedErr(net.ErrClosed) = false, want true")
	}
}
