// Package platform models the frameworks a package or a project targets.
//
// A Target is one framework (identifier plus version). A Profile is the set
// of targets a portable library declares it supports. Compatibility is
// directional: a profile target is usable from a requested target of the same
// family when its version is not newer than the requested one, and version 0.0
// on the profile side means any version.
package platform

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/nupack/pkg/version"
)

// Target is a single framework such as .NETFramework 4.5.
type Target struct {
	Identifier string
	Version    version.Version
}

// NewTarget builds a target from an identifier and a major.minor version.
func NewTarget(identifier string, major, minor int64) Target {
	return Target{Identifier: identifier, Version: version.New(major, minor, 0, 0)}
}

// String returns the long framework name, e.g. ".NETFramework, Version=v4.5".
func (t Target) String() string {
	return fmt.Sprintf("%s, Version=v%s", t.Identifier, t.Version)
}

// ShortName returns the compact form, e.g. "net45".
func (t Target) ShortName() string {
	short := strings.ToLower(t.Identifier)
	for id, name := range preferredShortNames {
		if strings.EqualFold(id, t.Identifier) {
			short = name
			break
		}
	}
	return short + compactVersion(t.Version)
}

// Equal reports whether both targets name the same family and version.
func (t Target) Equal(o Target) bool {
	a, b := canonical(t), canonical(o)
	return a.Identifier == b.Identifier && a.Version.Equal(b.Version)
}

func compactVersion(v version.Version) string {
	if v.IsZero() {
		return ""
	}
	parts := []int64{v.Major(), v.Minor(), v.Patch(), v.Revision()}
	for len(parts) > 2 && parts[len(parts)-1] == 0 {
		parts = parts[:len(parts)-1]
	}
	dotted := false
	for _, p := range parts {
		if p > 9 {
			dotted = true
		}
	}
	var b strings.Builder
	for i, p := range parts {
		if dotted && i > 0 {
			b.WriteString(".")
		}
		fmt.Fprintf(&b, "%d", p)
	}
	s := b.String()
	if !dotted && parts[len(parts)-1] == 0 && len(parts) == 2 {
		s = s[:len(s)-1]
	}
	return s
}

// windowsAsNETCore maps Windows store versions onto the .NETCore family.
var windowsAsNETCore = map[string]version.Version{
	"8.0": version.New(4, 5, 0, 0),
	"8.1": version.New(4, 5, 1, 0),
}

// canonical lower-cases the identifier and folds equivalent families together.
func canonical(t Target) Target {
	id := strings.ToLower(strings.TrimSpace(t.Identifier))
	if id == strings.ToLower(Windows) {
		if v, ok := windowsAsNETCore[t.Version.String()]; ok {
			return Target{Identifier: strings.ToLower(NETCore), Version: v}
		}
		if t.Version.IsZero() {
			return Target{Identifier: strings.ToLower(NETCore)}
		}
	}
	return Target{Identifier: id, Version: t.Version}
}

// Profile is an immutable set of targets.
type Profile struct {
	name    string
	targets []Target
}

// NewProfile returns a profile of the given targets with duplicates removed.
func NewProfile(targets ...Target) *Profile {
	p := &Profile{targets: make([]Target, 0, len(targets))}
	for _, t := range targets {
		dup := false
		for _, existing := range p.targets {
			if existing.Equal(t) {
				dup = true
				break
			}
		}
		if !dup {
			p.targets = append(p.targets, t)
		}
	}
	return p
}

func (p *Profile) withName(name string) *Profile {
	return &Profile{name: name, targets: p.targets}
}

// Name returns the table name the profile was registered under, if any.
func (p *Profile) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

// Targets returns a copy of the profile's targets.
func (p *Profile) Targets() []Target {
	if p == nil {
		return nil
	}
	out := make([]Target, len(p.targets))
	copy(out, p.targets)
	return out
}

// Len returns the number of targets.
func (p *Profile) Len() int {
	if p == nil {
		return 0
	}
	return len(p.targets)
}

// String renders the compact form, e.g. "net45+sl4+wp71".
func (p *Profile) String() string {
	if p == nil {
		return ""
	}
	names := make([]string, len(p.targets))
	for i, t := range p.targets {
		names[i] = t.ShortName()
	}
	return strings.Join(names, "+")
}

// Supports reports whether target can use something built for this profile.
func (p *Profile) Supports(target Target) bool {
	return IsCompatible(p, target)
}

// IsCompatibleWith reports whether every target of other can use this
// profile. An identifier in other that the profile does not name makes the
// pair incompatible.
func (p *Profile) IsCompatibleWith(other *Profile) bool {
	if other == nil {
		return true
	}
	for _, t := range other.targets {
		if !IsCompatible(p, t) {
			return false
		}
	}
	return true
}

// IsCompatible reports whether profile contains a target of the same family
// as target whose version is 0.0 or not newer than target's.
func IsCompatible(profile *Profile, target Target) bool {
	if profile == nil {
		return false
	}
	want := canonical(target)
	for _, t := range profile.targets {
		have := canonical(t)
		if have.Identifier != want.Identifier {
			continue
		}
		if have.Version.IsZero() || !have.Version.GreaterThan(want.Version) {
			return true
		}
	}
	return false
}
