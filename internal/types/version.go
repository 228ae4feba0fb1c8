package types

import (
	"fmt"
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipwire/internal/errorutil"
)

// ErrInvalidSipVersion is returned when a token is not a known SIP version.
const ErrInvalidSipVersion errorutil.Error = "invalid SIP version"

// Version is a SIP protocol version token.
// The zero value is not a valid version.
type Version uint8

const (
	// VersionSIP is the bare "SIP" token.
	VersionSIP Version = iota + 1
	// VersionSIP20 is the RFC 3261 "SIP/2.0" token.
	VersionSIP20
)

var versionTokens = [...]string{
	VersionSIP:   "SIP",
	VersionSIP20: "SIP/2.0",
}

// Versions returns all known versions.
func Versions() []Version { return []Version{VersionSIP, VersionSIP20} }

// ParseVersion maps the exact wire token s to a [Version].
func ParseVersion[T ~string | ~[]byte](s T) (Version, error) {
	for v := VersionSIP; v <= VersionSIP20; v++ {
		if versionTokens[v] == string(s) {
			return v, nil
		}
	}
	return 0, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidSipVersion, "%q", string(s)))
}

// String returns the wire token of the version.
func (v Version) String() string {
	if !v.IsValid() {
		return "Version(" + strconv.Itoa(int(v)) + ")"
	}
	return versionTokens[v]
}

// IsValid reports whether v is one of the known versions.
func (v Version) IsValid() bool { return v == VersionSIP || v == VersionSIP20 }

func (v Version) Format(f fmt.State, verb rune) {
	switch verb {
	case 's', 'v':
		fmt.Fprint(f, v.String())
	case 'q':
		fmt.Fprint(f, strconv.Quote(v.String()))
	default:
		fmt.Fprintf(f, fmt.FormatString(f, verb), uint8(v))
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (v Version) MarshalText() ([]byte, error) {
	if !v.IsValid() {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrInvalidSipVersion, "%d", uint8(v)))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (v *Version) UnmarshalText(text []byte) error {
	pv, err := ParseVersion(text)
	if err != nil {
		return errtrace.Wrap(err)
	}
	*v = pv
	return nil
}
