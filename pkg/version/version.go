// Package version implements package versions and version ranges.
//
// A Version has up to four numeric components plus an optional prerelease
// label; it wraps hashicorp/go-version, which supplies parsing and ordering
// (a prerelease sorts before its release). A Spec is an interval over versions
// with independently inclusive or exclusive bounds, written in the familiar
// bracket notation: "[1.0, 2.0)", "(, 3.0]", "[1.2]".
package version

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/glorpus-work/nupack/pkg/errutils"
)

// MaxSegments is the number of numeric components a version may carry.
const MaxSegments = 4

var zero = goversion.Must(goversion.NewVersion("0.0"))

// Version is an immutable package version. The zero value is 0.0.
type Version struct {
	v *goversion.Version
}

// Parse parses a version such as "1.2", "1.2.3.4" or "2.0.0-beta1".
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Version{}, errutils.NewParseError("version", s, "empty string")
	}
	v, err := goversion.NewVersion(s)
	if err != nil {
		return Version{}, errutils.NewParseError("version", s, err.Error())
	}
	if n := len(v.Segments64()); n > MaxSegments {
		return Version{}, errutils.NewParseError("version", s, fmt.Sprintf("%d numeric components, at most %d allowed", n, MaxSegments))
	}
	return Version{v: v}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// New builds a release version from its numeric components.
func New(major, minor, patch, revision int64) Version {
	return Version{v: goversion.Must(goversion.NewVersion(
		fmt.Sprintf("%d.%d.%d.%d", major, minor, patch, revision)))}
}

func (v Version) inner() *goversion.Version {
	if v.v == nil {
		return zero
	}
	return v.v
}

func (v Version) segment(i int) int64 {
	segs := v.inner().Segments64()
	if i < len(segs) {
		return segs[i]
	}
	return 0
}

// Major returns the first component.
func (v Version) Major() int64 { return v.segment(0) }

// Minor returns the second component.
func (v Version) Minor() int64 { return v.segment(1) }

// Patch returns the third component.
func (v Version) Patch() int64 { return v.segment(2) }

// Revision returns the fourth component.
func (v Version) Revision() int64 { return v.segment(3) }

// Prerelease returns the prerelease label without the leading dash.
func (v Version) Prerelease() string { return v.inner().Prerelease() }

// IsPrerelease reports whether the version carries a prerelease label.
func (v Version) IsPrerelease() bool { return v.Prerelease() != "" }

// IsZero reports whether v is 0.0 without a prerelease label.
func (v Version) IsZero() bool { return v.Compare(Version{}) == 0 }

// Compare returns -1, 0 or 1 when v is lower than, equal to or higher than o.
// Build metadata is ignored.
func (v Version) Compare(o Version) int {
	return v.inner().Compare(o.inner())
}

// Equal reports whether both versions have the same precedence.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool { return v.Compare(o) < 0 }

// GreaterThan reports whether v sorts after o.
func (v Version) GreaterThan(o Version) bool { return v.Compare(o) > 0 }

// String returns the normalized form: major.minor, then patch and revision
// only when needed, then the prerelease label.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d", v.Major(), v.Minor())
	switch {
	case v.Revision() != 0:
		fmt.Fprintf(&b, ".%d.%d", v.Patch(), v.Revision())
	case v.Patch() != 0:
		fmt.Fprintf(&b, ".%d", v.Patch())
	}
	if pre := v.Prerelease(); pre != "" {
		b.WriteString("-")
		b.WriteString(pre)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Max returns the higher of a and b.
func Max(a, b Version) Version {
	if a.LessThan(b) {
		return b
	}
	return a
}
