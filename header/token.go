package header

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ghettovoice/sipwire/internal/util"
)

// BranchMagicCookie is the prefix of RFC 3261 compliant Via branch values.
const BranchMagicCookie = "z9hG4bK"

// TokenSource produces random tokens used for Call-ID values, tags and branches.
// Tests inject a deterministic source to assert exact output.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts an ordinary function to a [TokenSource].
type TokenFunc func() string

// Token calls f.
func (f TokenFunc) Token() string { return f() }

// UUIDTokens is the default [TokenSource] producing random UUID strings.
var UUIDTokens TokenSource = TokenFunc(uuid.NewString)

// RandTokens returns a [TokenSource] producing random alphanumeric tokens of length n.
func RandTokens(n int) TokenSource {
	return TokenFunc(func() string { return util.RandString(n) })
}

// NewBranch returns a Via branch value: the magic cookie followed by a token of src.
// A nil src falls back to [UUIDTokens].
func NewBranch(src TokenSource) string {
	if src == nil {
		src = UUIDTokens
	}
	return BranchMagicCookie + src.Token()
}

// NewTag returns a From/To tag made of a token of src.
// A nil src falls back to 16 character random tokens.
func NewTag(src TokenSource) string {
	if src == nil {
		src = RandTokens(16)
	}
	return src.Token()
}

func containsWS(s string) bool { return strings.ContainsAny(s, " \t\r\n") }
