// Package resolver decides how far an installed package may move during an
// update and in which order a set of packages should be processed.
package resolver

import (
	"strings"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/version"
)

// UpdateMode bounds the upgrade range computed for an installed version.
type UpdateMode int

const (
	// Newest allows any version at or above the installed one.
	Newest UpdateMode = iota
	// Safe keeps major and minor fixed.
	Safe
	// Minor keeps the major fixed.
	Minor
)

func (m UpdateMode) String() string {
	switch m {
	case Newest:
		return "newest"
	case Safe:
		return "safe"
	case Minor:
		return "minor"
	default:
		return "unknown"
	}
}

// ParseUpdateMode parses "newest", "safe" or "minor". The empty string is Newest.
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "newest":
		return Newest, nil
	case "safe":
		return Safe, nil
	case "minor":
		return Minor, nil
	default:
		return Newest, errutils.Wrapf(errutils.ErrInvalidUpdateMode, "%q (must be one of: newest, safe, minor)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m UpdateMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *UpdateMode) UnmarshalText(text []byte) error {
	parsed, err := ParseUpdateMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ComputeUpgradeSpec returns the range an installed version may be updated
// within:
//
//	Newest  [current, )
//	Safe    [current, major.(minor+1))
//	Minor   [current, (major+1).0)
//
// The lower bound is inclusive so that the installed version itself is a
// valid result, meaning "already up to date".
func ComputeUpgradeSpec(current version.Version, mode UpdateMode) version.Spec {
	switch mode {
	case Safe:
		return version.Between(current, version.New(current.Major(), current.Minor()+1, 0, 0))
	case Minor:
		return version.Between(current, version.New(current.Major()+1, 0, 0, 0))
	default:
		return version.AtLeast(current)
	}
}

// AllowPrerelease reports whether prerelease candidates are acceptable. An
// installed prerelease keeps prereleases eligible even without the flag.
func AllowPrerelease(explicit bool, current version.Version) bool {
	return explicit || current.IsPrerelease()
}
